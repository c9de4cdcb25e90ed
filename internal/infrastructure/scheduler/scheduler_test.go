package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduler_Register(t *testing.T) {
	s := New(zap.NewNop())
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Register(Job{Name: "a", Spec: "0 */5 * * * *", Run: noop}))
	assert.ErrorIs(t, s.Register(Job{Name: "a", Spec: "0 */5 * * * *", Run: noop}), ErrDuplicateJob)
	assert.Error(t, s.Register(Job{Name: "b", Spec: "every minute", Run: noop}))
	assert.Error(t, s.Register(Job{Name: "", Spec: "* * * * * *", Run: noop}))
	assert.Error(t, s.Register(Job{Name: "c", Spec: "* * * * * *"}))

	s.Start(context.Background())
	defer func() { _ = s.Stop(context.Background()) }()
	assert.ErrorIs(t, s.Register(Job{Name: "d", Spec: "* * * * * *", Run: noop}), ErrSchedulerRunning)
}

func TestScheduler_RunNowTracksState(t *testing.T) {
	s := New(zap.NewNop())
	fail := true
	require.NoError(t, s.Register(Job{
		Name: "flaky",
		Spec: "0 0 3 * * *",
		Run: func(context.Context) error {
			if fail {
				return errors.New("boom")
			}
			return nil
		},
	}))

	assert.EqualError(t, s.RunNow(context.Background(), "flaky"), "boom")
	fail = false
	require.NoError(t, s.RunNow(context.Background(), "flaky"))
	assert.Error(t, s.RunNow(context.Background(), "missing"))

	states := s.States()
	require.Len(t, states, 1)
	st := states[0]
	assert.Equal(t, JobStatusSuccess, st.Status)
	assert.Equal(t, int64(2), st.Runs)
	assert.Equal(t, int64(1), st.Failures)
	assert.Empty(t, st.LastError)
	assert.NotNil(t, st.LastRunAt)
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	s := New(zap.NewNop(), WithJobTimeout(time.Second))
	var calls atomic.Int32
	require.NoError(t, s.Register(Job{
		Name: "tick",
		Spec: "* * * * * *",
		Run: func(context.Context) error {
			calls.Add(1)
			return nil
		},
	}))

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
}

func TestScheduler_JobTimeout(t *testing.T) {
	s := New(zap.NewNop(), WithJobTimeout(20*time.Millisecond))
	require.NoError(t, s.Register(Job{
		Name: "slow",
		Spec: "0 0 3 * * *",
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}))
	assert.ErrorIs(t, s.RunNow(context.Background(), "slow"), context.DeadlineExceeded)
}

type fakeExpirer struct {
	n     int64
	err   error
	calls *int
}

func (f fakeExpirer) ExpirePending(context.Context) (int64, error) {
	if f.calls != nil {
		*f.calls++
	}
	return f.n, f.err
}

func TestExpireCheckoutsJob(t *testing.T) {
	calls := 0
	job := ExpireCheckoutsJob("0 */10 * * * *", fakeExpirer{n: 3, calls: &calls})
	assert.Equal(t, JobExpireCheckouts, job.Name)
	assert.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, calls)

	job = ExpireCheckoutsJob("0 */10 * * * *", fakeExpirer{err: errors.New("db down")})
	assert.ErrorContains(t, job.Run(context.Background()), "db down")
}

type fakeCounter struct {
	results []map[uuid.UUID]int64
	call    int
}

func (f *fakeCounter) CountLowStockByOrganization(context.Context) (map[uuid.UUID]int64, error) {
	r := f.results[f.call]
	f.call++
	return r, nil
}

type gaugeRecorder struct {
	mu     sync.Mutex
	values map[uuid.UUID]int64
}

func (g *gaugeRecorder) RecordLowStock(orgID uuid.UUID, count int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[orgID] = count
}

func TestLowStockMetricsJob_ResetsRecoveredOrganizations(t *testing.T) {
	orgA, orgB := uuid.New(), uuid.New()
	counter := &fakeCounter{results: []map[uuid.UUID]int64{
		{orgA: 2, orgB: 1},
		{orgA: 4},
	}}
	rec := &gaugeRecorder{values: map[uuid.UUID]int64{}}
	job := LowStockMetricsJob("0 * * * * *", counter, rec)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, map[uuid.UUID]int64{orgA: 2, orgB: 1}, rec.values)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, map[uuid.UUID]int64{orgA: 4, orgB: 0}, rec.values)
}
