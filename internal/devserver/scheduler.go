package devserver

import (
	"context"

	"github.com/go-co-op/gocron/v2"

	swerrors "git.home.luguber.info/inful/sitewright/internal/errors"
	"git.home.luguber.info/inful/sitewright/internal/logfields"
)

// startScheduler schedules periodic rebuilds for plugins that refresh a
// remote source (git). Returns nil when no plugin asked for one.
func (s *Server) startScheduler(ctx context.Context) (gocron.Scheduler, error) {
	s.mu.Lock()
	st := s.lastState
	s.mu.Unlock()
	if st == nil {
		return nil, nil
	}

	intervals := st.RefreshIntervals()
	if len(intervals) == 0 {
		return nil, nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, swerrors.Wrap(err, swerrors.CategoryDevServer, swerrors.SeverityError, "failed to create refresh scheduler")
	}

	for name, interval := range intervals {
		name := name
		_, err := scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(func() {
				s.log.Info("Scheduled source refresh", logfields.Plugin(name))
				if err := s.rebuild(ctx, "schedule"); err != nil {
					s.log.Error("Scheduled rebuild failed", logfields.Error(err))
				}
			}),
			gocron.WithName(name+"-refresh"),
		)
		if err != nil {
			_ = scheduler.Shutdown()
			return nil, swerrors.Wrap(err, swerrors.CategoryDevServer, swerrors.SeverityError, "failed to schedule source refresh").
				WithContext("plugin", name)
		}
		s.log.Info("Source refresh scheduled",
			logfields.Plugin(name),
			logfields.DurationMS(float64(interval.Milliseconds())))
	}

	scheduler.Start()
	return scheduler, nil
}
