package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	authmw "github.com/lingvistik/lingvistik-server/internal/auth/middleware"
	"github.com/lingvistik/lingvistik-server/internal/store"
)

// POST /bookmarks  { "id": "...", "title": "...", "language": "...", "variant": 3 }
func AddBookmarkHandler(bs store.BookmarkStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		var b store.Bookmark
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if b.QuestionID == "" {
			http.Error(w, "question id required", 400)
			return
		}
		b.CreatedAt = time.Now().UTC().Truncate(time.Second)
		if err := bs.AddBookmark(r.Context(), userID, b); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, b)
	}
}

// GET /bookmarks - own bookmarks, newest first.
func ListBookmarksHandler(bs store.BookmarkStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		list, err := bs.ListBookmarks(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, list)
	}
}

// DELETE /bookmarks/{questionID}
func RemoveBookmarkHandler(bs store.BookmarkStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		err := bs.RemoveBookmark(r.Context(), userID, chi.URLParam(r, "questionID"))
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "bookmark not found", 404)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
