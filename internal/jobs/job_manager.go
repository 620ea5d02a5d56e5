package jobs

import (
	"context"
	"fmt"

	"dispatch/internal/pkg/logger"
)

// Job is a scheduled background task.
type Job interface {
	Name() string
	Start() error
	Stop()
}

// JobManager starts and stops the background jobs as one unit.
type JobManager struct {
	jobs []Job
	log  *logger.Logger
}

func NewJobManager(log *logger.Logger, jobs ...Job) *JobManager {
	return &JobManager{jobs: jobs, log: log.Component("jobs")}
}

// StartAll starts jobs in order. If one fails, the ones already started are
// stopped again.
func (jm *JobManager) StartAll() error {
	for i, job := range jm.jobs {
		if err := job.Start(); err != nil {
			for _, started := range jm.jobs[:i] {
				started.Stop()
			}
			return fmt.Errorf("failed to start %s job: %w", job.Name(), err)
		}
	}
	jm.log.Info(context.Background(), fmt.Sprintf("%d job(s) started", len(jm.jobs)))
	return nil
}

// StopAll stops jobs in reverse start order.
func (jm *JobManager) StopAll() {
	for i := len(jm.jobs) - 1; i >= 0; i-- {
		jm.jobs[i].Stop()
	}
}
