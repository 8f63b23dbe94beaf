// Package scheduler периодически ищет пробные периоды, которые скоро
// закончатся, и публикует для них событие trial.ending.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/toolbox/internal/events"
	"github.com/magabrotheeeer/toolbox/internal/lib/sl"
	"github.com/magabrotheeeer/toolbox/internal/models"
)

// TrialRepository ищет пользователей по дате окончания пробного периода.
type TrialRepository interface {
	FindTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]*models.User, error)
}

// Service — планировщик напоминаний.
type Service struct {
	repo     TrialRepository
	events   events.Publisher
	log      *slog.Logger
	lead     time.Duration
	interval time.Duration
	now      func() time.Time
}

// New создаёт Service. Каждый прогон берёт триалы, заканчивающиеся
// в окне [now+lead, now+lead+interval), так что соседние прогоны не пересекаются.
func New(repo TrialRepository, pub events.Publisher, log *slog.Logger, lead, interval time.Duration) *Service {
	return &Service{
		repo:     repo,
		events:   pub,
		log:      log,
		lead:     lead,
		interval: interval,
		now:      time.Now,
	}
}

// Run выполняет прогон сразу и затем раз в interval, пока не отменён ctx.
func (s *Service) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("trial reminder scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error("trial reminder run failed", sl.Err(err))
	}
}

// RunOnce публикует trial.ending для каждого найденного пользователя и
// возвращает число опубликованных событий. Ошибка публикации одного
// события не прерывает прогон.
func (s *Service) RunOnce(ctx context.Context) (int, error) {
	const op = "services.scheduler.RunOnce"
	log := s.log.With(slog.String("op", op))

	now := s.now().UTC()
	from := now.Add(s.lead)
	users, err := s.repo.FindTrialsEndingBetween(ctx, from, from.Add(s.interval))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(users) == 0 {
		log.Debug("no trials ending soon")
		return 0, nil
	}
	log.Info("found trials ending soon", slog.Int("count", len(users)))

	published := 0
	for _, u := range users {
		err := s.events.Publish(ctx, events.Event{
			Type:               events.TrialEnding,
			Email:              u.Email,
			SubscriptionStatus: u.SubscriptionStatus,
			TrialEndsAt:        u.TrialEnd(),
			OccurredAt:         now,
		})
		if err != nil {
			log.Error("failed to publish message", sl.Email(u.Email), sl.Err(err))
			continue
		}
		published++
	}
	return published, nil
}
