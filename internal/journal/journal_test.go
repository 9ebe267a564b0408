package journal_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/argusvision/dashsync/internal/journal"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStorage копит все записанные пачки в памяти.
type fakeStorage struct {
	mu      sync.Mutex
	batches [][]journal.Entry
}

func (s *fakeStorage) WriteBatch(_ context.Context, entries []journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := append([]journal.Entry(nil), entries...)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *fakeStorage) all() []journal.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []journal.Entry
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

func (s *fakeStorage) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func TestJournal_FlushesByTicker(t *testing.T) {
	storage := &fakeStorage{}
	j := journal.New(storage, 100, 50*time.Millisecond, zap.NewNop())
	j.Start()
	defer j.Stop()

	j.Record(1, "alert/acked", "a1", time.Now())
	j.Record(2, "camera/removed", "c1", time.Now())

	require.Eventually(t, func() bool {
		return len(storage.all()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	entries := storage.all()
	require.Equal(t, uint64(1), entries[0].Seq)
	require.Equal(t, "alert/acked", entries[0].Kind)
	require.Equal(t, "a1", entries[0].EntityID)
	require.NotEmpty(t, entries[0].ID)
}

func TestJournal_StopDrainsBuffer(t *testing.T) {
	storage := &fakeStorage{}
	// Большой интервал: единственный шанс на flush — drain при Stop
	j := journal.New(storage, 100, time.Hour, zap.NewNop())
	j.Start()

	for i := 1; i <= 7; i++ {
		j.Record(uint64(i), "detection/appended", "d", time.Now())
	}
	j.Stop()

	require.Len(t, storage.all(), 7)
}

func TestJournal_BatchesLargeVolumes(t *testing.T) {
	storage := &fakeStorage{}
	j := journal.New(storage, 1000, time.Hour, zap.NewNop())
	j.Start()

	// 250 записей при лимите пачки 100 дают минимум две полные пачки
	for i := 1; i <= 250; i++ {
		j.Record(uint64(i), "detection/appended", "d", time.Now())
	}
	j.Stop()

	require.Len(t, storage.all(), 250)
	require.GreaterOrEqual(t, storage.batchCount(), 3)
}

func TestJournal_RecordAfterStopIsNoop(t *testing.T) {
	storage := &fakeStorage{}
	j := journal.New(storage, 100, 50*time.Millisecond, zap.NewNop())
	j.Start()
	j.Stop()

	require.NotPanics(t, func() {
		j.Record(99, "alert/acked", "a1", time.Now())
	})
	require.Empty(t, storage.all())
}

func TestJournal_DoubleStopIsSafe(t *testing.T) {
	j := journal.New(&fakeStorage{}, 100, 50*time.Millisecond, zap.NewNop())
	j.Start()
	j.Stop()
	require.NotPanics(t, j.Stop)
}
