package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"vid2manga/internal/logging"
	"vid2manga/internal/services"
	"vid2manga/internal/workflow"
)

// Dispatcher forwards terminal workflow events to a Service. Attempts the
// user cancelled are not reported.
type Dispatcher struct {
	svc     Service
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher wraps svc. timeout bounds each delivery.
func NewDispatcher(svc Service, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{svc: svc, logger: logging.NewComponentLogger(logger, "notifications"), timeout: timeout}
}

// OnEvent implements workflow.Observer.
func (d *Dispatcher) OnEvent(event workflow.Event) {
	if d == nil || d.svc == nil {
		return
	}
	var send func(ctx context.Context) error
	state := event.State
	switch event.Kind {
	case workflow.EventAttemptSucceeded:
		if state.Result == nil {
			return
		}
		result := *state.Result
		elapsed := state.FinishedAt.Sub(state.StartedAt)
		send = func(ctx context.Context) error {
			return d.svc.NotifyAttemptSucceeded(ctx, state.Candidate.Name, result, elapsed)
		}
	case workflow.EventAttemptFailed:
		if errors.Is(event.Err, services.ErrCancelled) {
			return
		}
		send = func(ctx context.Context) error {
			return d.svc.NotifyAttemptFailed(ctx, state.Candidate.Name, state.ErrorMessage)
		}
	default:
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := send(ctx); err != nil {
			logging.WarnWithContext(d.logger, "notification failed", "notification_failed",
				logging.AttemptID(state.AttemptID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
				logging.String(logging.FieldImpact, "no push notification for this attempt"),
			)
		}
	}()
}

// Wait blocks until pending deliveries finish or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ workflow.Observer = (*Dispatcher)(nil)
