package http

import (
	"database/sql"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	authmw "github.com/lingvistik/lingvistik-server/internal/auth/middleware"
	"github.com/lingvistik/lingvistik-server/internal/storage"
)

// MountProfile wires the avatar endpoints onto the (already authenticated)
// profile subrouter.
func MountProfile(r chi.Router, bs storage.BlobStore, db *sql.DB) {
	// POST /profile/avatar - multipart "file"
	r.Post("/avatar", func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		key := storage.AvatarKey(userID)
		if _, err := bs.Put(key, f); err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if db != nil {
			_, _ = db.ExecContext(r.Context(), `UPDATE users SET avatar_key=$1 WHERE id=$2`, key, userID)
		}
		writeJSON(w, map[string]string{"key": key})
	})

	// GET /profile/avatar
	r.Get("/avatar", func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		rc, err := bs.Get(storage.AvatarKey(userID))
		if err != nil {
			http.Error(w, "no avatar", http.StatusNotFound)
			return
		}
		defer rc.Close()

		head := make([]byte, 512)
		n, _ := io.ReadFull(rc, head)
		w.Header().Set("Content-Type", http.DetectContentType(head[:n]))
		_, _ = w.Write(head[:n])
		_, _ = io.Copy(w, rc)
	})
}
