package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/klotz/summarizer-service/internal/session"
	"github.com/klotz/summarizer-service/internal/usage"
)

func TestLoad_MissingSessionIsZero(t *testing.T) {
	mem, err := New(8)
	require.NoError(t, err)

	got, err := mem.Load(context.Background(), "nope")
	require.NoError(t, err)
	require.Equal(t, session.Session{}, got)
}

func TestUpdate_PersistsAndClones(t *testing.T) {
	ctx := context.Background()
	mem, err := New(8)
	require.NoError(t, err)

	updated, err := mem.Update(ctx, "s-1", func(s *session.Session) error {
		s.URL = "https://example.com"
		s.ModelCounts = usage.Note(s.ModelCounts, "mistral")
		return nil
	})
	require.NoError(t, err)
	updated.ModelCounts["mistral"] = 99

	loaded, err := mem.Load(ctx, "s-1")
	require.NoError(t, err)
	require.Equal(t, "https://example.com", loaded.URL)
	require.Equal(t, 1, loaded.ModelCounts.Count("mistral"))
}

func TestUpdate_ErrorLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	mem, err := New(8)
	require.NoError(t, err)
	_, err = mem.Update(ctx, "s-1", func(s *session.Session) error {
		s.Question = "kept"
		return nil
	})
	require.NoError(t, err)

	_, err = mem.Update(ctx, "s-1", func(s *session.Session) error {
		s.Question = "dropped"
		return errors.New("abort")
	})
	require.Error(t, err)

	loaded, err := mem.Load(ctx, "s-1")
	require.NoError(t, err)
	require.Equal(t, "kept", loaded.Question)
}

func TestUpdate_ConcurrentIncrementsAreNotLost(t *testing.T) {
	ctx := context.Background()
	mem, err := New(8)
	require.NoError(t, err)

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := mem.Update(ctx, "shared", func(s *session.Session) error {
				s.ModelCounts = usage.Note(s.ModelCounts, "mistral")
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	loaded, err := mem.Load(ctx, "shared")
	require.NoError(t, err)
	require.Equal(t, workers, loaded.ModelCounts.Count("mistral"))
}

func TestEviction(t *testing.T) {
	ctx := context.Background()
	mem, err := New(2)
	require.NoError(t, err)
	for _, id := range []string{"a", "b", "c"} {
		_, err := mem.Update(ctx, id, func(s *session.Session) error {
			s.URL = id
			return nil
		})
		require.NoError(t, err)
	}
	require.Equal(t, 2, mem.Len())

	evicted, err := mem.Load(ctx, "a")
	require.NoError(t, err)
	require.Empty(t, evicted.URL)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	mem, err := New(0)
	require.NoError(t, err)
	_, err = mem.Update(ctx, "s-1", func(s *session.Session) error {
		s.Summary = "x"
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mem.Delete(ctx, "s-1"))

	loaded, err := mem.Load(ctx, "s-1")
	require.NoError(t, err)
	require.Empty(t, loaded.Summary)
	require.NoError(t, mem.Ping(ctx))
}

func TestUpdate_EntryEvictedBeforeLockIsReinstated(t *testing.T) {
	ctx := context.Background()
	mem, err := New(1)
	require.NoError(t, err)
	_, err = mem.Update(ctx, "a", func(s *session.Session) error {
		s.URL = "https://first.example"
		return nil
	})
	require.NoError(t, err)

	fired := false
	beforeEntryLock = func() {
		if fired {
			return
		}
		fired = true
		mem.entryFor("b")
	}
	t.Cleanup(func() { beforeEntryLock = func() {} })

	_, err = mem.Update(ctx, "a", func(s *session.Session) error {
		s.Question = "kept?"
		return nil
	})
	require.NoError(t, err)
	require.True(t, fired)

	loaded, err := mem.Load(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "https://first.example", loaded.URL)
	require.Equal(t, "kept?", loaded.Question)
}

func TestUpdate_EntryReplacedBeforeLockRetries(t *testing.T) {
	ctx := context.Background()
	mem, err := New(1)
	require.NoError(t, err)

	fired := false
	beforeEntryLock = func() {
		if fired {
			return
		}
		fired = true
		mem.entryFor("b")
		mem.entryFor("a")
	}
	t.Cleanup(func() { beforeEntryLock = func() {} })

	_, err = mem.Update(ctx, "a", func(s *session.Session) error {
		s.Question = "written"
		return nil
	})
	require.NoError(t, err)

	loaded, err := mem.Load(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "written", loaded.Question)
}
