package preview

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// periodic runs a full rebuild on a fixed interval for filesystems where
// change events are unreliable.
type periodic struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

func newPeriodic(interval time.Duration, task func(), logger *slog.Logger) (*periodic, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create scheduler").Build()
	}
	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName("periodic-rebuild"),
	); err != nil {
		_ = s.Shutdown()
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to schedule periodic rebuild").
			WithContext("interval", interval.String()).
			Build()
	}
	return &periodic{scheduler: s, logger: logger}, nil
}

func (p *periodic) start() {
	p.logger.Info("Starting periodic rebuild scheduler")
	p.scheduler.Start()
}

func (p *periodic) stop() {
	if err := p.scheduler.Shutdown(); err != nil {
		p.logger.Warn("Scheduler shutdown failed", logfields.Error(err))
	}
}
