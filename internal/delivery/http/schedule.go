package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aliskhannn/examprep/internal/service"
)

const dateLayout = "2006-01-02"

// Schedule handles GET /schedule.
func (h *Handler) Schedule(c *gin.Context) {
	var in service.ProjectInput
	for key, dst := range map[string]*time.Time{"start": &in.Start, "end": &in.End} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			badRequest(c, key+" must be a date formatted YYYY-MM-DD")
			return
		}
		*dst = d
	}
	in.Paper = c.Query("paper")
	in.Subject = c.Query("subject")

	projection, err := h.schedule.Project(c.Request.Context(), ownerFrom(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, projection)
}
