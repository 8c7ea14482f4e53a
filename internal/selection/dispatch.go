package selection

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pinnlo/pinnlo-server/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Action is applied to one selected card.
type Action func(ctx context.Context, id uuid.UUID) error

// Outcome is the result of an action on one card.
type Outcome struct {
	ID  uuid.UUID
	Err error
}

// Report lists one outcome per selected card, in selection order.
type Report struct {
	Outcomes []Outcome
}

func (r Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

func (r Report) Failed() []uuid.UUID {
	var ids []uuid.UUID
	for _, o := range r.Outcomes {
		if o.Err != nil {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

type Dispatcher struct {
	log   *logger.Logger
	limit int
}

// NewDispatcher returns a dispatcher running at most limit actions at once.
func NewDispatcher(log *logger.Logger, limit int) *Dispatcher {
	if limit <= 0 {
		limit = 1
	}
	return &Dispatcher{log: log.With("component", "BulkDispatcher"), limit: limit}
}

// Serial returns a dispatcher that runs one action at a time.
func (d *Dispatcher) Serial() *Dispatcher {
	return &Dispatcher{log: d.log, limit: 1}
}

// Dispatch runs action for every selected id and records each outcome. A
// failing item does not stop the others. When everything succeeds the
// selection is cleared; otherwise only the failed ids stay selected so they
// can be retried on their own. A cancelled ctx marks the items that had not
// started as failed with ctx.Err().
func (d *Dispatcher) Dispatch(ctx context.Context, sel *Selection, action Action) (Report, error) {
	ids, err := sel.begin()
	if err != nil {
		return Report{}, err
	}

	outcomes := make([]Outcome, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.limit)
	for i, id := range ids {
		i, id := i, id
		outcomes[i].ID = id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Err = safeRun(gctx, action, id)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Outcomes: outcomes}
	failed := report.Failed()
	sel.finish(failed)

	if len(failed) > 0 {
		d.log.Warn("Bulk action finished with failures", "total", len(ids), "failed", len(failed))
	} else {
		d.log.Debug("Bulk action finished", "total", len(ids))
	}
	return report, nil
}

func safeRun(ctx context.Context, action Action, id uuid.UUID) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	return action(ctx, id)
}
