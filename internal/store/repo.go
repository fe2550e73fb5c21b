package store

import (
	"context"
	"errors"
	"time"

	"github.com/lingvistik/lingvistik-server/internal/quiz"
)

var (
	// ErrNotFound covers missing tests, results and bookmarks. Handlers map
	// it to a user-visible "no tests available" style condition.
	ErrNotFound = errors.New("not found")
)

// Bookmark is a question a user pinned for later review.
type Bookmark struct {
	QuestionID string    `json:"id"`
	Title      string    `json:"title"`
	Language   string    `json:"language"`
	Variant    int       `json:"variant"`
	CreatedAt  time.Time `json:"timestamp"`
}

type TestStore interface {
	PutTest(ctx context.Context, t quiz.TestVariant) error
	// GetTest is student-safe: correctness flags are stripped and text
	// questions lose their options (the first option is the answer key).
	GetTest(ctx context.Context, language string, variant int) (quiz.TestVariant, error)
	// GetTestWithKeys returns the full variant for scoring and export.
	GetTestWithKeys(ctx context.Context, language string, variant int) (quiz.TestVariant, error)
	// RandomTest picks any variant for the language uniformly at random.
	RandomTest(ctx context.Context, language string) (quiz.TestVariant, error)
	ListLanguages(ctx context.Context) ([]string, error)
	ListVariants(ctx context.Context, language string) ([]int, error)
}

type ResultStore interface {
	// SaveResult is an idempotent upsert keyed by result id, so a client may
	// retry a failed save without re-scoring.
	SaveResult(ctx context.Context, r quiz.TestResult) error
	GetResult(ctx context.Context, id string) (quiz.TestResult, error)
	// ListResults returns the user's results, newest first.
	ListResults(ctx context.Context, userID string) ([]quiz.TestResult, error)
}

type BookmarkStore interface {
	AddBookmark(ctx context.Context, userID string, b Bookmark) error
	ListBookmarks(ctx context.Context, userID string) ([]Bookmark, error)
	RemoveBookmark(ctx context.Context, userID, questionID string) error
}

type Store interface {
	TestStore
	ResultStore
	BookmarkStore
}

// Sanitize returns a student-safe copy of the variant: correctness flags
// zeroed, and options removed from text questions entirely since their
// first option is the canonical answer.
func Sanitize(t quiz.TestVariant) quiz.TestVariant {
	out := t
	out.Questions = make([]quiz.Question, len(t.Questions))
	for i, q := range t.Questions {
		sq := q
		if q.Type == quiz.TypeText {
			sq.Options = nil
		} else {
			sq.Options = make([]quiz.Option, len(q.Options))
			for j, o := range q.Options {
				o.IsCorrect = false
				sq.Options[j] = o
			}
		}
		out.Questions[i] = sq
	}
	return out
}
