package github

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Kamar-Folarin/github-trending/internal/config"
	"github.com/Kamar-Folarin/github-trending/internal/db"
	"github.com/Kamar-Folarin/github-trending/internal/errors"
	"github.com/Kamar-Folarin/github-trending/internal/models"
)

const (
	testInterval = 20 * time.Millisecond
	testWaitTime = 2 * time.Second
)

// MockStore implements db.Store for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) TableExists(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStore) ListSnapshots(ctx context.Context) ([]*models.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Snapshot), args.Error(1)
}

func (m *MockStore) GetSnapshot(ctx context.Context, id int64) (*models.Snapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Snapshot), args.Error(1)
}

func (m *MockStore) GetSnapshotByName(ctx context.Context, name string) (*models.Snapshot, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Snapshot), args.Error(1)
}

func (m *MockStore) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	return m.Called(ctx, snapshot).Error(0)
}

func (m *MockStore) PruneBelowRank(ctx context.Context, rank int) (int64, error) {
	args := m.Called(ctx, rank)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) CountSnapshots(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}

// stubFetcher returns canned snapshots, or err when set
type stubFetcher struct {
	mu        sync.Mutex
	snapshots []*models.Snapshot
	err       error
	calls     atomic.Int32
}

func (f *stubFetcher) FetchTopRepositories(ctx context.Context) ([]*models.Snapshot, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Snapshot, len(f.snapshots))
	for i, s := range f.snapshots {
		c := *s
		out[i] = &c
	}
	return out, nil
}

func (f *stubFetcher) set(snapshots []*models.Snapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = snapshots
	f.err = err
}

func snap(id, stars int64) *models.Snapshot {
	lang := "Go"
	return &models.Snapshot{ID: id, Name: fmt.Sprintf("repo-%d", id), Owner: "owner", Language: &lang, Stars: stars}
}

func setupSQLiteService(t *testing.T, fetcher Fetcher) (*SyncServiceImpl, *db.SQLStore) {
	t.Helper()

	store, err := db.Open(filepath.Join(t.TempDir(), "sync.sqlite"), newTestLogger())
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { store.Close() })

	svc := NewSyncService(fetcher, store, config.DefaultSyncConfig(), newTestLogger())
	t.Cleanup(svc.StopPeriodic)
	return svc, store
}

func TestSyncService_RunCycle_InsertsIntoEmptyStore(t *testing.T) {
	fetcher := &stubFetcher{snapshots: []*models.Snapshot{snap(1, 500000), snap(2, 400000)}}
	svc, store := setupSQLiteService(t, fetcher)
	ctx := context.Background()

	report, err := svc.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 2, report.Inserted)
	assert.Zero(t, report.Pruned)

	list, err := store.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Same(t, report, svc.LastReport())
}

func TestSyncService_RunCycle_UpdatesChangedStars(t *testing.T) {
	fetcher := &stubFetcher{snapshots: []*models.Snapshot{snap(1, 500000)}}
	svc, store := setupSQLiteService(t, fetcher)
	ctx := context.Background()

	_, err := svc.RunCycle(ctx)
	require.NoError(t, err)

	fetcher.set([]*models.Snapshot{snap(1, 600000)}, nil)
	report, err := svc.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Zero(t, report.Inserted)

	got, err := store.GetSnapshot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(600000), got.Stars)

	n, err := store.CountSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSyncService_RunCycle_PrunesToCap(t *testing.T) {
	fetcher := &stubFetcher{}
	svc, store := setupSQLiteService(t, fetcher)
	ctx := context.Background()

	// 31 rows already stored, the upstream ranking repeats 30 of them
	for i := int64(1); i <= 31; i++ {
		require.NoError(t, store.SaveSnapshot(ctx, snap(i, 100000+i*1000)))
	}
	var top []*models.Snapshot
	for i := int64(31); i >= 2; i-- {
		top = append(top, snap(i, 100000+i*1000))
	}
	fetcher.set(top, nil)

	report, err := svc.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Pruned)
	assert.Equal(t, 30, report.Unchanged)

	n, err := store.CountSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(30), n)

	_, err = store.GetSnapshot(ctx, 1)
	assert.True(t, errors.IsNotFound(err))
}

func TestSyncService_RunCycle_NeverExceedsCap(t *testing.T) {
	fetcher := &stubFetcher{}
	svc, store := setupSQLiteService(t, fetcher)
	ctx := context.Background()

	// each cycle brings a mostly new ranking
	for cycle := int64(0); cycle < 4; cycle++ {
		var top []*models.Snapshot
		for i := int64(0); i < 30; i++ {
			id := cycle*20 + i + 1
			top = append(top, snap(id, 100000+id*997+cycle))
		}
		fetcher.set(top, nil)

		_, err := svc.RunCycle(ctx)
		require.NoError(t, err)

		n, err := store.CountSnapshots(ctx)
		require.NoError(t, err)
		assert.LessOrEqual(t, n, int64(30), "cycle %d", cycle)
	}
}

func TestSyncService_RunCycle_IdempotentWithMockStore(t *testing.T) {
	store := new(MockStore)
	fetcher := &stubFetcher{snapshots: []*models.Snapshot{snap(1, 500000), snap(2, 400000)}}
	svc := NewSyncService(fetcher, store, config.DefaultSyncConfig(), newTestLogger())
	ctx := context.Background()

	store.On("GetSnapshot", ctx, int64(1)).Return(snap(1, 500000), nil)
	store.On("GetSnapshot", ctx, int64(2)).Return(snap(2, 400000), nil)
	store.On("CountSnapshots", ctx).Return(int64(2), nil)

	for i := 0; i < 3; i++ {
		report, err := svc.RunCycle(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Unchanged)
	}

	store.AssertNotCalled(t, "SaveSnapshot", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "PruneBelowRank", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestSyncService_RunCycle_StoreErrorsAreNotFatal(t *testing.T) {
	store := new(MockStore)
	fetcher := &stubFetcher{snapshots: []*models.Snapshot{snap(1, 500000), snap(2, 400000)}}
	svc := NewSyncService(fetcher, store, config.DefaultSyncConfig(), newTestLogger())
	ctx := context.Background()

	diskErr := errors.NewStoreError("failed to get snapshot", stderrors.New("disk I/O error"))
	store.On("GetSnapshot", ctx, int64(1)).Return(nil, diskErr)
	store.On("GetSnapshot", ctx, int64(2)).Return(nil, errors.NewResourceNotFoundError("repository", "2"))
	store.On("SaveSnapshot", ctx, mock.MatchedBy(func(s *models.Snapshot) bool { return s.ID == 2 })).Return(nil)
	store.On("CountSnapshots", ctx).Return(int64(0), diskErr)

	report, err := svc.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Inserted)
	store.AssertExpectations(t)
}

func TestSyncService_RunCycle_FetchError(t *testing.T) {
	store := new(MockStore)
	fetchErr := errors.NewFetchError("failed to search repositories", stderrors.New("no route to host"))
	fetcher := &stubFetcher{err: fetchErr}
	svc := NewSyncService(fetcher, store, config.DefaultSyncConfig(), newTestLogger())

	report, err := svc.RunCycle(context.Background())
	assert.Nil(t, report)
	assert.True(t, errors.IsFetch(err))
	assert.Nil(t, svc.LastReport())
	store.AssertNotCalled(t, "GetSnapshot", mock.Anything, mock.Anything)
}

func TestSyncService_Prune(t *testing.T) {
	ctx := context.Background()

	t.Run("within cap is a no-op", func(t *testing.T) {
		store := new(MockStore)
		svc := NewSyncService(&stubFetcher{}, store, config.DefaultSyncConfig(), newTestLogger())
		store.On("CountSnapshots", ctx).Return(int64(30), nil)

		deleted, err := svc.Prune(ctx)
		require.NoError(t, err)
		assert.Zero(t, deleted)
		store.AssertNotCalled(t, "PruneBelowRank", mock.Anything, mock.Anything)
	})

	t.Run("empty store is a no-op", func(t *testing.T) {
		store := new(MockStore)
		svc := NewSyncService(&stubFetcher{}, store, config.DefaultSyncConfig(), newTestLogger())
		store.On("CountSnapshots", ctx).Return(int64(0), nil)

		deleted, err := svc.Prune(ctx)
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})

	t.Run("over cap prunes at the cap rank", func(t *testing.T) {
		store := new(MockStore)
		svc := NewSyncService(&stubFetcher{}, store, config.DefaultSyncConfig(), newTestLogger())
		store.On("CountSnapshots", ctx).Return(int64(33), nil)
		store.On("PruneBelowRank", ctx, 30).Return(int64(3), nil)

		deleted, err := svc.Prune(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), deleted)
		store.AssertExpectations(t)
	})
}

func TestSyncService_StartPeriodic(t *testing.T) {
	fetcher := &stubFetcher{snapshots: []*models.Snapshot{snap(1, 500000)}}
	svc, _ := setupSQLiteService(t, fetcher)

	svc.StartPeriodic(context.Background(), testInterval, nil)
	assert.True(t, svc.Scheduled())

	require.Eventually(t, func() bool {
		return fetcher.calls.Load() >= 2
	}, testWaitTime, testInterval/2)

	svc.StopPeriodic()
	assert.False(t, svc.Scheduled())

	calls := fetcher.calls.Load()
	time.Sleep(5 * testInterval)
	assert.Equal(t, calls, fetcher.calls.Load(), "no cycles after stop")
}

func TestSyncService_StartPeriodicReplacesSchedule(t *testing.T) {
	fetcher := &stubFetcher{snapshots: []*models.Snapshot{snap(1, 500000)}}
	svc, _ := setupSQLiteService(t, fetcher)
	ctx := context.Background()

	// a long first schedule must not survive being replaced
	svc.StartPeriodic(ctx, time.Hour, nil)
	svc.StartPeriodic(ctx, time.Hour, nil)
	svc.StartPeriodic(ctx, testInterval, nil)

	require.Eventually(t, func() bool {
		return fetcher.calls.Load() >= 1
	}, testWaitTime, testInterval/2)

	svc.StopPeriodic()
	svc.StopPeriodic()
	assert.False(t, svc.Scheduled())
}

func TestSyncService_StartPeriodicFetchFailureEndsSchedule(t *testing.T) {
	fetcher := &stubFetcher{err: errors.NewFetchError("failed to search repositories", stderrors.New("timeout"))}
	svc, _ := setupSQLiteService(t, fetcher)

	failures := make(chan error, 1)
	svc.StartPeriodic(context.Background(), testInterval, func(err error) {
		failures <- err
	})

	select {
	case err := <-failures:
		assert.True(t, errors.IsFetch(err))
	case <-time.After(testWaitTime):
		t.Fatal("onFailure was not called")
	}

	require.Eventually(t, func() bool { return !svc.Scheduled() }, testWaitTime, testInterval/2)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestSyncService_StopOnParentCancel(t *testing.T) {
	fetcher := &stubFetcher{snapshots: []*models.Snapshot{snap(1, 500000)}}
	svc, _ := setupSQLiteService(t, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	svc.StartPeriodic(ctx, time.Hour, func(error) { t.Error("cancellation is not a failure") })
	cancel()

	require.Eventually(t, func() bool { return !svc.Scheduled() }, testWaitTime, 10*time.Millisecond)
}
