package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/aliskhannn/examprep/internal/apperr"
	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/srs"
)

// ProjectInput selects the range and cards of a projection. Zero Start means
// today; zero End means a week from Start.
type ProjectInput struct {
	Start   time.Time
	End     time.Time
	Paper   string
	Subject string
}

// ScheduleOptions tunes the projector.
type ScheduleOptions struct {
	MaxRangeDays         int
	HeavyDayThreshold    int     // busiest day above this triggers a recommendation
	ConsistencyThreshold float64 // average daily load above this triggers a recommendation
}

// DefaultScheduleOptions returns the stock tuning.
func DefaultScheduleOptions() ScheduleOptions {
	return ScheduleOptions{MaxRangeDays: 366, HeavyDayThreshold: 50, ConsistencyThreshold: 20}
}

// ScheduleService projects the due load of a learner over a date range.
type ScheduleService struct {
	cards  CardStore
	opts   ScheduleOptions
	logger *zap.Logger

	now func() time.Time
}

// NewScheduleService creates a ScheduleService.
func NewScheduleService(cards CardStore, opts ScheduleOptions, logger *zap.Logger) *ScheduleService {
	def := DefaultScheduleOptions()
	if opts.MaxRangeDays <= 0 {
		opts.MaxRangeDays = def.MaxRangeDays
	}
	if opts.HeavyDayThreshold <= 0 {
		opts.HeavyDayThreshold = def.HeavyDayThreshold
	}
	if opts.ConsistencyThreshold <= 0 {
		opts.ConsistencyThreshold = def.ConsistencyThreshold
	}
	return &ScheduleService{
		cards:  cards,
		opts:   opts,
		logger: logger.Named("schedule"),
		now:    time.Now,
	}
}

// Project buckets every card due up to End into the day it will be studied.
// Cards already due are placed on today, or on Start when the range begins
// later. A range that ends before today is a look back: cards are placed on
// their own due date, or on Start when they fell due earlier, and all of
// them count as overdue. Every day of the range gets a bucket, empty or not.
func (s *ScheduleService) Project(ctx context.Context, ownerID string, in ProjectInput) (*entities.Projection, error) {
	const op = "project schedule"

	ctx, span := tracer.Start(ctx, "ScheduleService.Project")
	defer span.End()

	if ownerID == "" {
		return nil, apperr.Validation(op, "owner is required")
	}

	today := srs.Today(s.now())
	start := today
	if !in.Start.IsZero() {
		start = srs.Today(in.Start)
	}
	end := srs.AddDays(start, 6)
	if !in.End.IsZero() {
		end = srs.Today(in.End)
	}
	if end.Before(start) {
		return nil, apperr.Validation(op, "end date must not be before start date")
	}
	days := srs.DaysBetween(start, end) + 1
	if days > s.opts.MaxRangeDays {
		return nil, apperr.Validation(op, fmt.Sprintf("range must not exceed %d days", s.opts.MaxRangeDays))
	}
	span.SetAttributes(attribute.Int("schedule.days", days))

	cards, err := s.cards.Query(ctx, ownerID, entities.CardFilter{
		Paper:         in.Paper,
		Subject:       in.Subject,
		Today:         today,
		DueOnOrBefore: &end,
	})
	if err != nil {
		span.RecordError(err)
		return nil, apperr.Store(op, err)
	}

	buckets := make([]entities.DayBucket, days)
	for i := range buckets {
		buckets[i] = entities.DayBucket{Date: srs.AddDays(start, i), BySubject: map[string]int{}}
	}

	floor := today
	if today.After(end) {
		floor = start
	}

	var summary entities.ScheduleSummary
	for _, c := range cards {
		next := srs.Today(c.NextReviewDate)
		day := latest(next, floor, start)
		if day.After(end) {
			continue
		}

		b := &buckets[srs.DaysBetween(start, day)]
		b.Total++
		b.BySubject[c.Subject]++
		if next.Before(today) {
			b.Overdue++
			summary.Overdue++
		} else {
			b.Due++
		}

		summary.TotalCards++
		if next.Equal(today) {
			summary.DueToday++
		}
		switch offset := srs.DaysBetween(today, day); {
		case offset >= 0 && offset <= 6:
			summary.DueThisWeek++
		case offset >= 7 && offset <= 13:
			summary.DueNextWeek++
		}
	}

	summarizeBuckets(buckets, today, &summary)

	p := &entities.Projection{
		Start:    start,
		End:      end,
		Days:     buckets,
		Summary:  summary,
		Workload: workloadOf(buckets),
	}
	p.Recommendations = s.recommend(summary)
	return p, nil
}

func summarizeBuckets(buckets []entities.DayBucket, today time.Time, summary *entities.ScheduleSummary) {
	var future, futureTotal int
	for _, b := range buckets {
		if b.Total > 0 && (summary.BusiestDay == nil || b.Total > summary.BusiestDay.Count) {
			summary.BusiestDay = &entities.DayCount{Date: b.Date, Count: b.Total}
		}
		if b.Date.After(today) {
			future++
			futureTotal += b.Total
		}
	}
	if future > 0 {
		summary.AverageDailyLoad = math.Round(float64(futureTotal)/float64(future)*100) / 100
	}
}

var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

func workloadOf(buckets []entities.DayBucket) entities.Workload {
	w := entities.Workload{
		ByWeekday: make(map[string]int, len(weekdays)),
		BySubject: map[string]int{},
		Weekly:    []entities.WeeklyLoad{},
	}
	for _, d := range weekdays {
		w.ByWeekday[d.String()] = 0
	}

	for _, b := range buckets {
		w.ByWeekday[b.Date.Weekday().String()] += b.Total
		for subject, n := range b.BySubject {
			w.BySubject[subject] += n
		}

		ws := weekStart(b.Date)
		if n := len(w.Weekly); n == 0 || !w.Weekly[n-1].WeekStart.Equal(ws) {
			w.Weekly = append(w.Weekly, entities.WeeklyLoad{WeekStart: ws})
		}
		w.Weekly[len(w.Weekly)-1].Total += b.Total
	}
	return w
}

// weekStart returns the Monday of the week containing d.
func weekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return srs.AddDays(d, -offset)
}

func (s *ScheduleService) recommend(summary entities.ScheduleSummary) []entities.Recommendation {
	recs := []entities.Recommendation{}

	if summary.DueToday > 0 {
		recs = append(recs, entities.Recommendation{
			Priority: entities.PriorityNormal,
			Kind:     "due_today",
			Message:  fmt.Sprintf("%d cards are due today.", summary.DueToday),
		})
	}
	if summary.Overdue > 0 {
		recs = append(recs, entities.Recommendation{
			Priority: entities.PriorityHigh,
			Kind:     "overdue",
			Message:  fmt.Sprintf("%d cards are overdue. Clear them before starting new material.", summary.Overdue),
		})
	}
	if summary.BusiestDay != nil && summary.BusiestDay.Count > s.opts.HeavyDayThreshold {
		recs = append(recs, entities.Recommendation{
			Priority: entities.PriorityMedium,
			Kind:     "heavy_day",
			Message: fmt.Sprintf("%s has %d cards due. Review some of them earlier to spread the load.",
				summary.BusiestDay.Date.Format(time.DateOnly), summary.BusiestDay.Count),
		})
	}
	if summary.AverageDailyLoad > s.opts.ConsistencyThreshold {
		recs = append(recs, entities.Recommendation{
			Priority: entities.PriorityLow,
			Kind:     "consistency",
			Message:  fmt.Sprintf("About %.0f cards a day are coming up. Keep a daily review habit.", summary.AverageDailyLoad),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Rank() < recs[j].Priority.Rank()
	})
	return recs
}

func latest(times ...time.Time) time.Time {
	out := times[0]
	for _, t := range times[1:] {
		if t.After(out) {
			out = t
		}
	}
	return out
}
