package session

import (
	"context"

	"github.com/klotz/summarizer-service/internal/usage"
)

// Handle binds one request to one stored session. Every mutation goes through
// Store.Update and refreshes the snapshot returned by Values.
type Handle struct {
	store   Store
	id      string
	current Session
}

func Open(ctx context.Context, store Store, id string) (*Handle, error) {
	current, err := store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Handle{store: store, id: id, current: current}, nil
}

func (h *Handle) ID() string {
	return h.id
}

func (h *Handle) Values() Session {
	return h.current.Clone()
}

func (h *Handle) Update(ctx context.Context, fn func(*Session) error) error {
	updated, err := h.store.Update(ctx, h.id, fn)
	if err != nil {
		return err
	}
	h.current = updated
	return nil
}

// Set persists a schema field. Unknown field names are ignored.
func (h *Handle) Set(ctx context.Context, field string, value string) error {
	if !(&Session{}).Set(field, value) {
		return nil
	}
	return h.Update(ctx, func(s *Session) error {
		s.Set(field, value)
		return nil
	})
}

func (h *Handle) NoteUsage(ctx context.Context, model string) error {
	return h.Update(ctx, func(s *Session) error {
		s.ModelCounts = usage.Note(s.ModelCounts, model)
		return nil
	})
}

func (h *Handle) ModelCount(model string) int {
	return h.current.ModelCounts.Count(model)
}

func (h *Handle) SortedModels() []string {
	return h.current.ModelCounts.Sorted()
}

// Clear resets the whole session. url, question and context read back as "".
func (h *Handle) Clear(ctx context.Context) error {
	return h.Update(ctx, func(s *Session) error {
		s.Reset()
		return nil
	})
}
