// Package reminders follows up on form panels the client has left pending.
// A periodic sweep sends a chat reminder per due panel and escalates to a
// human task once the configured reminder budget is exhausted.
package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/veltia-labs/veltia-core/pkg/notify"
	"github.com/veltia-labs/veltia-core/pkg/store"
)

// Stats summarizes one sweep.
type Stats struct {
	Due       int
	Reminded  int
	Escalated int
	Failed    int
}

// Sweeper walks due panels and sends reminders. Safe to run from a single
// goroutine; the rate limiter keeps a large backlog from flooding the chat
// channel in one burst.
type Sweeper struct {
	panels  store.FormPanelStore
	chat    notify.Chat
	limiter *rate.Limiter
	clock   func() time.Time
	log     *slog.Logger
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithLimiter replaces the default rate limit of 5 reminders per second.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Sweeper) { s.limiter = l }
}

// WithClock pins the sweeper's clock.
func WithClock(clock func() time.Time) Option {
	return func(s *Sweeper) { s.clock = clock }
}

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Sweeper) { s.log = log }
}

// NewSweeper creates a Sweeper over the panel store and chat channel.
func NewSweeper(panels store.FormPanelStore, chat notify.Chat, opts ...Option) *Sweeper {
	s := &Sweeper{
		panels:  panels,
		chat:    chat,
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		clock:   time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep processes every currently due panel once. Per-panel failures are
// counted and logged but do not abort the sweep.
func (s *Sweeper) Sweep(ctx context.Context) (Stats, error) {
	now := s.clock()
	due, err := s.panels.DueReminders(ctx, now)
	if err != nil {
		return Stats{}, fmt.Errorf("lecture des rappels dus: %w", err)
	}

	stats := Stats{Due: len(due)}
	for _, panel := range due {
		if err := s.limiter.Wait(ctx); err != nil {
			return stats, err
		}

		if panel.ReminderCount >= panel.MaxRemindersBeforeTask {
			if err := s.panels.MarkTaskCreated(ctx, panel.ID); err != nil {
				s.log.Warn("escalade du panneau échouée", "panel_id", panel.ID, "error", err)
				stats.Failed++
				continue
			}
			s.log.Info("panneau escaladé en tâche", "panel_id", panel.ID,
				"reminders_sent", panel.ReminderCount)
			stats.Escalated++
			continue
		}

		msg := &notify.Message{
			ProspectID: panel.ProspectID,
			Sender:     "system",
			Content:    fmt.Sprintf("Rappel: le formulaire « %s » attend toujours votre réponse.", panel.StepName),
			Metadata: map[string]any{
				"panelId":  panel.ID,
				"formId":   panel.FormID,
				"reminder": panel.ReminderCount + 1,
			},
		}
		if err := s.chat.Send(ctx, msg); err != nil {
			s.log.Warn("envoi du rappel échoué", "panel_id", panel.ID, "error", err)
			stats.Failed++
			continue
		}
		if err := s.panels.RecordReminder(ctx, panel.ID, now); err != nil {
			s.log.Warn("enregistrement du rappel échoué", "panel_id", panel.ID, "error", err)
			stats.Failed++
			continue
		}
		stats.Reminded++
	}
	return stats, nil
}

// Run sweeps on the given interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if stats, err := s.Sweep(ctx); err != nil {
				s.log.Error("balayage des rappels échoué", "error", err)
			} else if stats.Due > 0 {
				s.log.Info("balayage des rappels terminé",
					"due", stats.Due, "reminded", stats.Reminded,
					"escalated", stats.Escalated, "failed", stats.Failed)
			}
		}
	}
}
