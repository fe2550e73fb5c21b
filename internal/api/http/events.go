package http

import (
	"net/http"
	"strconv"

	syncx "github.com/lingvistik/lingvistik-server/internal/sync"
)

// GET /events?after=N&limit=M - append-order replay of the audit trail.
func ReplayEventsHandler(events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		list, err := events.ReadSince(r.Context(), after, limit)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, map[string]any{"events": list})
	}
}
