package store

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"github.com/lingvistik/lingvistik-server/internal/quiz"
)

// memoryStore is a mutex-guarded map-backed Store for tests and dev runs.
type memoryStore struct {
	mu        sync.RWMutex
	tests     map[string]quiz.TestVariant
	results   map[string]quiz.TestResult
	bookmarks map[string][]Bookmark // by user id
}

func NewInMemoryStore() Store {
	return &memoryStore{
		tests:     map[string]quiz.TestVariant{},
		results:   map[string]quiz.TestResult{},
		bookmarks: map[string][]Bookmark{},
	}
}

func (m *memoryStore) PutTest(_ context.Context, t quiz.TestVariant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tests[t.Key()] = t
	return nil
}

func (m *memoryStore) GetTest(ctx context.Context, language string, variant int) (quiz.TestVariant, error) {
	t, err := m.GetTestWithKeys(ctx, language, variant)
	if err != nil {
		return quiz.TestVariant{}, err
	}
	return Sanitize(t), nil
}

func (m *memoryStore) GetTestWithKeys(_ context.Context, language string, variant int) (quiz.TestVariant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[quiz.TestVariant{Language: language, Variant: variant}.Key()]
	if !ok {
		return quiz.TestVariant{}, ErrNotFound
	}
	return t, nil
}

func (m *memoryStore) RandomTest(ctx context.Context, language string) (quiz.TestVariant, error) {
	variants, err := m.ListVariants(ctx, language)
	if err != nil {
		return quiz.TestVariant{}, err
	}
	if len(variants) == 0 {
		return quiz.TestVariant{}, ErrNotFound
	}
	return m.GetTest(ctx, language, variants[rand.Intn(len(variants))])
}

func (m *memoryStore) ListLanguages(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	out := []string{}
	for _, t := range m.tests {
		if !seen[t.Language] {
			seen[t.Language] = true
			out = append(out, t.Language)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memoryStore) ListVariants(_ context.Context, language string) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []int{}
	for _, t := range m.tests {
		if t.Language == language {
			out = append(out, t.Variant)
		}
	}
	sort.Ints(out)
	return out, nil
}

func (m *memoryStore) SaveResult(_ context.Context, r quiz.TestResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[r.ID]; ok {
		return nil // idempotent retry
	}
	m.results[r.ID] = r
	return nil
}

func (m *memoryStore) GetResult(_ context.Context, id string) (quiz.TestResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[id]
	if !ok {
		return quiz.TestResult{}, ErrNotFound
	}
	return r, nil
}

func (m *memoryStore) ListResults(_ context.Context, userID string) ([]quiz.TestResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []quiz.TestResult{}
	for _, r := range m.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (m *memoryStore) AddBookmark(_ context.Context, userID string, b Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.bookmarks[userID]
	for i, cur := range list {
		if cur.QuestionID == b.QuestionID {
			list[i] = b
			return nil
		}
	}
	m.bookmarks[userID] = append(list, b)
	return nil
}

func (m *memoryStore) ListBookmarks(_ context.Context, userID string) ([]Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := append([]Bookmark(nil), m.bookmarks[userID]...)
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (m *memoryStore) RemoveBookmark(_ context.Context, userID, questionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.bookmarks[userID]
	for i, cur := range list {
		if cur.QuestionID == questionID {
			m.bookmarks[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
