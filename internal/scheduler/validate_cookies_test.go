package scheduler

import (
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	assert.Error(t, s.AddJob("not a schedule", &countingJob{}))
}

func TestAddJobAcceptsCronAndDescriptors(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("*/30 * * * *", &countingJob{}))
	require.NoError(t, s.AddJob("@every 6h", &countingJob{}))
}

func TestValidateCookiesJobSkipsWhileRunActive(t *testing.T) {
	// A nil validator would panic if the job tried to validate, so a
	// completed run guard must short-circuit first.
	job := NewValidateCookiesJob(nil, func() bool { return true })
	assert.NoError(t, job.Run())
	assert.Equal(t, "validate_cookies", job.Name())
}
