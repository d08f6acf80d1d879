package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yakuphankucukkesim/resonora-ai/internal/upload"
)

type fakeRecord struct {
	userID uuid.UUID
	s3Key  string
}

type fakeStore struct {
	mu        sync.Mutex
	files     map[uuid.UUID]fakeRecord
	credits   map[uuid.UUID]int64
	statuses  map[uuid.UUID]upload.Status
	clips     map[string]uuid.UUID
	loadCalls int

	insertErr    error
	decrementErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		files:    make(map[uuid.UUID]fakeRecord),
		credits:  make(map[uuid.UUID]int64),
		statuses: make(map[uuid.UUID]upload.Status),
		clips:    make(map[string]uuid.UUID),
	}
}

func (s *fakeStore) addFile(id, userID uuid.UUID, s3Key string, credits int64) {
	s.files[id] = fakeRecord{userID: userID, s3Key: s3Key}
	s.credits[userID] = credits
	s.statuses[id] = upload.StatusQueued
}

func (s *fakeStore) LoadFundingInfo(ctx context.Context, id uuid.UUID) (*upload.FundingInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadCalls++
	rec, ok := s.files[id]
	if !ok {
		return nil, upload.ErrNotFound
	}
	return &upload.FundingInfo{
		UserID:  rec.userID,
		Credits: s.credits[rec.userID],
		S3Key:   rec.s3Key,
	}, nil
}

func (s *fakeStore) SetStatus(ctx context.Context, id uuid.UUID, status upload.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[id] = status
	return nil
}

func (s *fakeStore) InsertClips(ctx context.Context, uploadedFileID, userID uuid.UUID, keys []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	var inserted int64
	for _, key := range keys {
		if _, exists := s.clips[key]; exists {
			continue
		}
		s.clips[key] = uploadedFileID
		inserted++
	}
	return inserted, nil
}

func (s *fakeStore) DecrementCredits(ctx context.Context, userID uuid.UUID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.decrementErr != nil {
		return s.decrementErr
	}
	if amount <= 0 {
		return nil
	}
	if amount > s.credits[userID] {
		amount = s.credits[userID]
	}
	s.credits[userID] -= amount
	return nil
}

func (s *fakeStore) status(id uuid.UUID) upload.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[id]
}

func (s *fakeStore) balance(userID uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits[userID]
}

func (s *fakeStore) clipCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clips)
}

type fakeLister struct {
	keys []string
	err  error
}

func (l *fakeLister) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.keys, nil
}

type fakeInvoker struct {
	mu       sync.Mutex
	calls    int
	err      error
	onSubmit func()
}

func (i *fakeInvoker) Submit(ctx context.Context, sourceKey string) error {
	i.mu.Lock()
	i.calls++
	i.mu.Unlock()
	if i.onSubmit != nil {
		i.onSubmit()
	}
	return i.err
}

func (i *fakeInvoker) callCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls
}

func TestRunMarksNoCreditsWhenBalanceEmpty(t *testing.T) {
	store := newFakeStore()
	id, userID := uuid.New(), uuid.New()
	store.addFile(id, userID, "abc/original.mp4", 0)
	invoker := &fakeInvoker{}
	orch := NewOrchestrator(store, &fakeLister{}, invoker, zap.NewNop())

	err := orch.Run(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, upload.StatusNoCredits, store.status(id))
	assert.Equal(t, 0, invoker.callCount(), "transcoding must never be invoked without credits")
	assert.Equal(t, 0, store.clipCount())
	assert.Equal(t, int64(0), store.balance(userID))
}

func TestRunProcessesAndDebitsPerClip(t *testing.T) {
	store := newFakeStore()
	id, userID := uuid.New(), uuid.New()
	store.addFile(id, userID, "abc/original.mp4", 10)
	lister := &fakeLister{keys: []string{"abc/original.mp4", "abc/clip_1.mp4", "abc/clip_2.mp4"}}
	orch := NewOrchestrator(store, lister, &fakeInvoker{}, zap.NewNop())

	err := orch.Run(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, upload.StatusProcessed, store.status(id))
	assert.Equal(t, 2, store.clipCount(), "the source object is not a clip")
	assert.Equal(t, int64(8), store.balance(userID))
}

func TestRunCapsDebitAtBalance(t *testing.T) {
	store := newFakeStore()
	id, userID := uuid.New(), uuid.New()
	store.addFile(id, userID, "abc/original.mp4", 3)
	lister := &fakeLister{keys: []string{
		"abc/original.mp4",
		"abc/clip_1.mp4", "abc/clip_2.mp4", "abc/clip_3.mp4", "abc/clip_4.mp4", "abc/clip_5.mp4",
	}}
	orch := NewOrchestrator(store, lister, &fakeInvoker{}, zap.NewNop())

	err := orch.Run(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, upload.StatusProcessed, store.status(id))
	assert.Equal(t, 5, store.clipCount(), "all clips are kept even when the balance runs out")
	assert.Equal(t, int64(0), store.balance(userID), "balance bottoms out at zero, never negative")
}

func TestRunWithZeroClipsIsSuccess(t *testing.T) {
	store := newFakeStore()
	id, userID := uuid.New(), uuid.New()
	store.addFile(id, userID, "abc/original.mp4", 5)
	lister := &fakeLister{keys: []string{"abc/original.mp4"}}
	orch := NewOrchestrator(store, lister, &fakeInvoker{}, zap.NewNop())

	err := orch.Run(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, upload.StatusProcessed, store.status(id))
	assert.Equal(t, 0, store.clipCount())
	assert.Equal(t, int64(5), store.balance(userID))
}

func TestRunIsIdempotentAcrossReruns(t *testing.T) {
	store := newFakeStore()
	id, userID := uuid.New(), uuid.New()
	store.addFile(id, userID, "abc/original.mp4", 10)
	lister := &fakeLister{keys: []string{"abc/original.mp4", "abc/clip_1.mp4", "abc/clip_2.mp4"}}
	orch := NewOrchestrator(store, lister, &fakeInvoker{}, zap.NewNop())

	require.NoError(t, orch.Run(context.Background(), id))
	require.NoError(t, orch.Run(context.Background(), id))

	assert.Equal(t, upload.StatusProcessed, store.status(id))
	assert.Equal(t, 2, store.clipCount(), "re-running must not duplicate clip rows")
	assert.Equal(t, int64(8), store.balance(userID), "re-running must not double-debit")
}

func TestRunInvokeFailureMarksFailed(t *testing.T) {
	store := newFakeStore()
	id, userID := uuid.New(), uuid.New()
	store.addFile(id, userID, "abc/original.mp4", 5)
	invoker := &fakeInvoker{err: errors.New("endpoint down")}
	orch := NewOrchestrator(store, &fakeLister{}, invoker, zap.NewNop())

	err := orch.Run(context.Background(), id)

	require.Error(t, err)
	assert.Equal(t, upload.StatusFailed, store.status(id))
	assert.Equal(t, 0, store.clipCount())
	assert.Equal(t, int64(5), store.balance(userID), "a failed run leaves the balance untouched")
}

func TestRunListFailureMarksFailed(t *testing.T) {
	store := newFakeStore()
	id, userID := uuid.New(), uuid.New()
	store.addFile(id, userID, "abc/original.mp4", 5)
	lister := &fakeLister{err: errors.New("list timeout")}
	orch := NewOrchestrator(store, lister, &fakeInvoker{}, zap.NewNop())

	err := orch.Run(context.Background(), id)

	require.Error(t, err)
	assert.Equal(t, upload.StatusFailed, store.status(id))
	assert.Equal(t, int64(5), store.balance(userID))
}

func TestRunUnknownUploadIsFatal(t *testing.T) {
	store := newFakeStore()
	orch := NewOrchestrator(store, &fakeLister{}, &fakeInvoker{}, zap.NewNop())

	err := orch.Run(context.Background(), uuid.New())

	require.Error(t, err)
	assert.ErrorIs(t, err, upload.ErrNotFound)
	assert.Equal(t, 0, store.clipCount())
}

func TestRunMarksProcessingBeforeInvoking(t *testing.T) {
	store := newFakeStore()
	id, userID := uuid.New(), uuid.New()
	store.addFile(id, userID, "abc/original.mp4", 5)
	invoker := &fakeInvoker{}
	invoker.onSubmit = func() {
		assert.Equal(t, upload.StatusProcessing, store.status(id),
			"processing must be visible before the external call")
	}
	orch := NewOrchestrator(store, &fakeLister{keys: []string{"abc/original.mp4"}}, invoker, zap.NewNop())

	require.NoError(t, orch.Run(context.Background(), id))
}
