package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/repository"
)

// CleanupJob periodically purges expired sessions and audit rows past the
// retention horizon.
type CleanupJob struct {
	sessionRepo  repository.SessionRepository
	activityRepo repository.ActivityRepository
	interval     time.Duration
	retention    time.Duration
	done         chan struct{}
}

func NewCleanupJob(
	sessionRepo repository.SessionRepository,
	activityRepo repository.ActivityRepository,
	interval time.Duration,
	retention time.Duration,
) *CleanupJob {
	return &CleanupJob{
		sessionRepo:  sessionRepo,
		activityRepo: activityRepo,
		interval:     interval,
		retention:    retention,
		done:         make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j.runCleanup(ctx, "expired sessions", j.sessionRepo.DeleteExpired)
	j.runCleanup(ctx, "old activity logs", func(ctx context.Context) (int64, error) {
		return j.activityRepo.DeleteOlderThan(ctx, time.Now().Add(-j.retention))
	})
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
