package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrDispatcherClosed is logged for tasks scheduled after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// Dispatcher runs fire-and-forget side effects with bounded concurrency.
// Tasks outlive the request that scheduled them but are bounded by a timeout.
type Dispatcher struct {
	sem     chan struct{}
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher running at most maxConcurrent tasks.
func NewDispatcher(maxConcurrent int, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		sem:     make(chan struct{}, maxConcurrent),
		timeout: timeout,
		logger:  logger.Named("dispatcher"),
	}
}

// Go schedules fn. It waits for a free slot while ctx is alive; a task that
// cannot get a slot, or that fails, is logged and dropped.
func (d *Dispatcher) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		d.logger.Warn("task dropped", zap.String("task", name), zap.Error(ErrDispatcherClosed))
		return
	}
	d.wg.Add(1)
	d.mu.RUnlock()

	select {
	case d.sem <- struct{}{}: // Acquire
	case <-ctx.Done():
		d.wg.Done()
		d.logger.Warn("task dropped", zap.String("task", name), zap.Error(ctx.Err()))
		return
	}

	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	go func() {
		defer d.wg.Done()
		defer func() { <-d.sem }() // Release
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("task panicked", zap.String("task", name), zap.Any("panic", r))
			}
		}()

		if err := fn(taskCtx); err != nil {
			d.logger.Warn("task failed", zap.String("task", name), zap.Error(err))
		}
	}()
}

// Close stops accepting tasks and waits for running ones until ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for side effects: %w", ctx.Err())
	}
}
