/*
sweeper.go - Scheduled overdue sweep

PURPOSE:
  Periodically flags installments whose due date has passed without full
  settlement. The flag is a reporting concern only: amounts, percentages
  and due dates are immutable once a sale is finalized, so the sweep
  writes nothing but the overdue marker.

SCHEDULING: robfig/cron
  The sweep runs on a cron expression (default daily at 02:00). It can
  also be triggered manually through POST /api/admin/sweep, which runs
  the same code path and reports how many installments were flagged.

IDEMPOTENCY:
  MarkOverdue only touches rows not already flagged, so running the
  sweep twice in a row is harmless and the second run reports zero.

SEE ALSO:
  - credit/store.go: The MarkOverdue contract
  - handlers.go: The due report that surfaces the flag
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/warp/credit-engine/credit"
)

// Sweeper drives the periodic overdue sweep.
type Sweeper struct {
	store credit.SaleStore
	cal   credit.BusinessCalendar
	log   *logrus.Logger
	cron  *cron.Cron
}

// NewSweeper creates a sweeper over the given store. A nil calendar
// falls back to civil-day arithmetic; a nil logger to the standard one.
func NewSweeper(store credit.SaleStore, cal credit.BusinessCalendar, log *logrus.Logger) *Sweeper {
	if cal == nil {
		cal = credit.CivilCalendar{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Sweeper{store: store, cal: cal, log: log}
}

// Start schedules the sweep on the given cron expression and begins
// running it. Returns an error if the expression does not parse.
func (s *Sweeper) Start(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.WithError(err).Error("overdue sweep failed")
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.log.WithField("spec", spec).Info("overdue sweep scheduled")
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}

// RunOnce flags installments due strictly before today and returns how
// many were newly flagged.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	today := s.cal.Today()
	flagged, err := s.store.MarkOverdue(ctx, today)
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{
		"before":  today,
		"flagged": flagged,
	}).Info("overdue sweep complete")
	return flagged, nil
}

// HandleRunNow runs the sweep immediately and reports the result.
func (s *Sweeper) HandleRunNow(w http.ResponseWriter, r *http.Request) {
	flagged, err := s.RunOnce(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Overdue sweep failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"flagged": flagged})
}
