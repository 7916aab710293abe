package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTriggersJob(t *testing.T) {
	s := New(nil)
	var runs int32
	s.Register(Job{
		Name:     "probe",
		Interval: time.Hour,
		Fn: func(ctx context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		},
	})

	require.NoError(t, s.Run(context.Background(), "probe"))
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) == 1
	}, time.Second, 10*time.Millisecond)

	items := s.List()
	require.Len(t, items, 1)
	assert.Equal(t, "probe", items[0].Name)
	assert.Equal(t, StatusFulfill, items[0].Status)
	assert.NotNil(t, items[0].LastRunAt)
}

func TestRunUnknownJob(t *testing.T) {
	s := New(nil)
	assert.Error(t, s.Run(context.Background(), "missing"))
}

func TestOverlappingRunIsSkipped(t *testing.T) {
	s := New(nil)
	var runs int32
	release := make(chan struct{})
	started := make(chan struct{})
	s.Register(Job{
		Name:     "slow",
		Interval: time.Hour,
		Fn: func(ctx context.Context) error {
			atomic.AddInt32(&runs, 1)
			close(started)
			<-release
			return nil
		},
	})

	require.NoError(t, s.Run(context.Background(), "slow"))
	<-started

	// The first run is still active; the second trigger must be dropped.
	require.NoError(t, s.Run(context.Background(), "slow"))
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&runs))

	close(release)
	require.Eventually(t, func() bool {
		for _, item := range s.List() {
			if item.Name == "slow" {
				return item.Status == StatusFulfill
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&runs))
}

func TestFailedJobReportsReject(t *testing.T) {
	s := New(nil)
	s.Register(Job{
		Name:     "broken",
		Interval: time.Hour,
		Fn: func(ctx context.Context) error {
			return assert.AnError
		},
	})

	require.NoError(t, s.Run(context.Background(), "broken"))
	require.Eventually(t, func() bool {
		items := s.List()
		return len(items) == 1 && items[0].Status == StatusReject
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, assert.AnError.Error(), s.List()[0].Message)
}
