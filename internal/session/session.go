package session

import (
	"context"

	"github.com/klotz/summarizer-service/internal/usage"
)

const (
	FieldURL      = "url"
	FieldPrompt   = "prompt"
	FieldQuestion = "question"
	FieldContext  = "context"
	FieldSummary  = "summary"
)

// Session is the per-browser state persisted between requests. An unset
// field is its zero value.
type Session struct {
	URL         string       `json:"url"`
	Prompt      string       `json:"prompt"`
	Question    string       `json:"question"`
	Context     string       `json:"context"`
	Summary     string       `json:"summary"`
	ModelCounts usage.Counts `json:"model_counts,omitempty"`
}

// Get returns the named string field, or "" for names outside the schema.
func (s Session) Get(field string) string {
	if ptr := s.field(field); ptr != nil {
		return *ptr
	}
	return ""
}

// Set stores value under a schema field and reports whether the name was known.
func (s *Session) Set(field string, value string) bool {
	ptr := s.field(field)
	if ptr == nil {
		return false
	}
	*ptr = value
	return true
}

// Reset wipes every field, model counts included.
func (s *Session) Reset() {
	*s = Session{}
}

func (s Session) Clone() Session {
	cloned := s
	cloned.ModelCounts = s.ModelCounts.Clone()
	return cloned
}

func (s *Session) field(name string) *string {
	switch name {
	case FieldURL:
		return &s.URL
	case FieldPrompt:
		return &s.Prompt
	case FieldQuestion:
		return &s.Question
	case FieldContext:
		return &s.Context
	case FieldSummary:
		return &s.Summary
	default:
		return nil
	}
}

// Store persists sessions by id. Update must serialize concurrent callers
// for the same id so read-modify-write sequences never lose updates.
type Store interface {
	Load(ctx context.Context, id string) (Session, error)
	Update(ctx context.Context, id string, fn func(*Session) error) (Session, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
