package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/boxofficeapp/boxoffice-server/internal/logger"
	"github.com/boxofficeapp/boxoffice-server/internal/service"
)

// shutdownTimeout bounds graceful shutdown of long-lived services.
const shutdownTimeout = 30 * time.Second

const sessionCleanupInterval = 1 * time.Hour

// SessionCleanupJob owns the background loop that purges expired
// sessions. Refresh tokens only die when their session record does, so
// the purge has to keep running for revocation to mean anything.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob starts the cleanup loop. One sweep runs
// immediately so a long-stopped server does not serve stale sessions
// for up to an hour after restart.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	sessions := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	sweep := func() {
		count, err := sessions.DeleteExpiredSessions(ctx)
		switch {
		case err != nil:
			log.Warn("Session cleanup failed", "error", err)
		case count > 0:
			log.Info("Session cleanup completed", "deleted", count)
		}
	}

	go func() {
		ticker := time.NewTicker(sessionCleanupInterval)
		defer ticker.Stop()

		sweep()
		for {
			select {
			case <-ticker.C:
				sweep()
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session cleanup job started", "interval", sessionCleanupInterval)
	return &SessionCleanupJob{cancel: cancel}, nil
}
