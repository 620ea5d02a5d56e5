package jobs_test

import (
	"errors"
	"testing"

	"dispatch/internal/jobs"
	"dispatch/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type fakeJob struct {
	name     string
	startErr error
	log      *[]string
}

func (f *fakeJob) Name() string { return f.name }

func (f *fakeJob) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	*f.log = append(*f.log, "start "+f.name)
	return nil
}

func (f *fakeJob) Stop() {
	*f.log = append(*f.log, "stop "+f.name)
}

func TestJobManager_StartStopOrder(t *testing.T) {
	var calls []string
	manager := jobs.NewJobManager(logger.Nop(),
		&fakeJob{name: "a", log: &calls},
		&fakeJob{name: "b", log: &calls},
	)

	assert.NoError(t, manager.StartAll())
	manager.StopAll()
	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, calls)
}

func TestJobManager_StartFailureStopsStartedJobs(t *testing.T) {
	var calls []string
	manager := jobs.NewJobManager(logger.Nop(),
		&fakeJob{name: "a", log: &calls},
		&fakeJob{name: "b", log: &calls, startErr: errors.New("bad schedule")},
	)

	err := manager.StartAll()
	assert.ErrorContains(t, err, "failed to start b job")
	assert.Equal(t, []string{"start a", "stop a"}, calls)
}
