package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yakuphankucukkesim/resonora-ai/internal/upload"
)

type flakyInvoker struct {
	mu       sync.Mutex
	calls    int
	failures int
}

func (i *flakyInvoker) Submit(ctx context.Context, sourceKey string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls++
	if i.calls <= i.failures {
		return errors.New("transient failure")
	}
	return nil
}

func (i *flakyInvoker) callCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls
}

func TestInlineDispatcherDropsDuplicateTriggers(t *testing.T) {
	store := newFakeStore()
	id, userID := uuid.New(), uuid.New()
	store.addFile(id, userID, "abc/original.mp4", 5)

	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	invoker := &fakeInvoker{}
	invoker.onSubmit = func() {
		entered <- struct{}{}
		<-release
	}
	lister := &fakeLister{keys: []string{"abc/original.mp4", "abc/clip_1.mp4"}}
	orch := NewOrchestrator(store, lister, invoker, zap.NewNop())
	d := NewInlineDispatcher(orch, testRetryCfg(2), zap.NewNop())

	require.NoError(t, d.Dispatch(context.Background(), id))
	<-entered
	// Second trigger while the first run is mid-flight must be a no-op.
	require.NoError(t, d.Dispatch(context.Background(), id))
	close(release)

	require.Eventually(t, func() bool {
		return store.status(id) == upload.StatusProcessed
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, invoker.callCount())
	assert.Equal(t, int64(4), store.balance(userID))
}

func TestInlineDispatcherRetriesTransientFailure(t *testing.T) {
	store := newFakeStore()
	id, userID := uuid.New(), uuid.New()
	store.addFile(id, userID, "abc/original.mp4", 5)

	invoker := &flakyInvoker{failures: 1}
	lister := &fakeLister{keys: []string{"abc/original.mp4", "abc/clip_1.mp4"}}
	orch := NewOrchestrator(store, lister, invoker, zap.NewNop())
	d := NewInlineDispatcher(orch, testRetryCfg(2), zap.NewNop())

	require.NoError(t, d.Dispatch(context.Background(), id))

	require.Eventually(t, func() bool {
		return store.status(id) == upload.StatusProcessed
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, invoker.callCount())
	assert.Equal(t, int64(4), store.balance(userID))
}

func TestInlineDispatcherGivesUpAfterRetryLimit(t *testing.T) {
	store := newFakeStore()
	id, userID := uuid.New(), uuid.New()
	store.addFile(id, userID, "abc/original.mp4", 5)

	invoker := &flakyInvoker{failures: 100}
	orch := NewOrchestrator(store, &fakeLister{}, invoker, zap.NewNop())
	d := NewInlineDispatcher(orch, testRetryCfg(2), zap.NewNop())

	require.NoError(t, d.Dispatch(context.Background(), id))

	require.Eventually(t, func() bool {
		return invoker.callCount() == 2 && store.status(id) == upload.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(5), store.balance(userID))
}
