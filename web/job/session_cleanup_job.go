// Package job contains the scheduled background jobs of the platform.
package job

import (
	"github.com/modelhub/modelhub/logger"
	"github.com/modelhub/modelhub/web/service"
)

// SessionCleanupJob deletes expired session rows. Validity checks never
// rely on it; expired rows are already excluded from lookups, this is
// table hygiene.
type SessionCleanupJob struct {
	sessions *service.SessionService
}

func NewSessionCleanupJob(sessions *service.SessionService) *SessionCleanupJob {
	return &SessionCleanupJob{sessions: sessions}
}

// Here Run is an interface method of the cron Job interface
func (j *SessionCleanupJob) Run() {
	n, err := j.sessions.PurgeExpired()
	if err != nil {
		logger.Warning("session cleanup job err:", err)
		return
	}
	if n > 0 {
		logger.Debugf("session cleanup removed %d expired sessions", n)
	}
}
