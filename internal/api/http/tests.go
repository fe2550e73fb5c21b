package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lingvistik/lingvistik-server/internal/quiz"
	"github.com/lingvistik/lingvistik-server/internal/store"
	syncx "github.com/lingvistik/lingvistik-server/internal/sync"
)

// GET /tests/languages
func ListLanguagesHandler(ts store.TestStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		langs, err := ts.ListLanguages(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, map[string]any{"languages": langs})
	}
}

// GET /tests/{language}/variants
func ListVariantsHandler(ts store.TestStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		language := chi.URLParam(r, "language")
		variants, err := ts.ListVariants(r.Context(), language)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, map[string]any{"language": language, "variants": variants})
	}
}

// GET /tests/{language}/variants/{variant} - student-safe variant.
func GetTestHandler(ts store.TestStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		language := chi.URLParam(r, "language")
		variant, err := strconv.Atoi(chi.URLParam(r, "variant"))
		if err != nil {
			http.Error(w, "bad variant", 400)
			return
		}
		t, err := ts.GetTest(r.Context(), language, variant)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "no tests available", 404)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, t)
	}
}

// GET /tests/{language}/random - any variant, uniformly at random.
func RandomTestHandler(ts store.TestStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		language := chi.URLParam(r, "language")
		t, err := ts.RandomTest(r.Context(), language)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "no tests available", 404)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, t)
	}
}

// POST /tests - admin bulk upload, body is an array of variants.
func UploadTestsHandler(ts store.TestStore, events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var tests []quiz.TestVariant
		if err := json.NewDecoder(r.Body).Decode(&tests); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		for _, t := range tests {
			if t.Language == "" || len(t.Questions) == 0 {
				http.Error(w, "variant needs a language and questions", 400)
				return
			}
			for _, q := range t.Questions {
				if !q.Type.Valid() {
					http.Error(w, "unknown question type "+string(q.Type)+" in "+q.ID, 400)
					return
				}
			}
		}
		for _, t := range tests {
			if err := ts.PutTest(r.Context(), t); err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			if events != nil {
				_ = events.Append(r.Context(), syncx.Event{Type: syncx.EventTestUploaded, Key: t.Key()})
			}
		}
		writeJSON(w, map[string]any{"uploaded": len(tests)})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
