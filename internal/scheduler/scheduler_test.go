package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())

	tests := []struct {
		name     string
		schedule string
		job      Job
		wantErr  bool
	}{
		{"standard cron", "0 3 * * *", &countingJob{name: "backup"}, false},
		{"descriptor", "@hourly", &countingJob{name: "wal_checkpoint"}, false},
		{"duplicate name", "@daily", &countingJob{name: "backup"}, true},
		{"invalid schedule", "every night", &countingJob{name: "broken"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.AddJob(tt.schedule, tt.job)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	statuses := s.Status()
	require.Len(t, statuses, 2)
	assert.Equal(t, "backup", statuses[0].Name)
	assert.Equal(t, "wal_checkpoint", statuses[1].Name)
	assert.Equal(t, "@hourly", statuses[1].Schedule)
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())
	ok := &countingJob{name: "ok"}
	failing := &countingJob{name: "failing", err: errors.New("bucket unreachable")}
	require.NoError(t, s.AddJob("@daily", ok))
	require.NoError(t, s.AddJob("@daily", failing))

	require.NoError(t, s.RunNow("ok"))
	assert.Equal(t, int32(1), ok.runs.Load())

	assert.Error(t, s.RunNow("failing"))
	assert.Error(t, s.RunNow("missing"))

	statuses := s.Status()
	require.Len(t, statuses, 2)
	assert.Equal(t, "failing", statuses[0].Name)
	assert.Equal(t, "bucket unreachable", statuses[0].LastError)
	assert.False(t, statuses[0].LastRun.IsZero())
	assert.Empty(t, statuses[1].LastError)
	assert.False(t, statuses[1].Running)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@every 1h", &countingJob{name: "idle"}))

	s.Start()
	statuses := s.Status()
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].NextRun.IsZero())
	s.Stop()
}
