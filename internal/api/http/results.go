package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	authmw "github.com/lingvistik/lingvistik-server/internal/auth/middleware"
	"github.com/lingvistik/lingvistik-server/internal/quiz"
	"github.com/lingvistik/lingvistik-server/internal/rbac"
	"github.com/lingvistik/lingvistik-server/internal/store"
	syncx "github.com/lingvistik/lingvistik-server/internal/sync"
)

// attemptRequest is the client's answer state for one finished attempt:
// picked option texts per question id (in selection order) and free-text
// entries.
type attemptRequest struct {
	Language    string              `json:"language"`
	Variant     int                 `json:"variant"`
	Selected    map[string][]string `json:"selected"`
	TextAnswers map[string]string   `json:"textAnswers"`
}

type attemptResponse struct {
	Result       quiz.TestResult `json:"result"`
	PartialCount int             `json:"partialCount"`
	Percentage   int             `json:"percentage"`
	Saved        bool            `json:"saved"`
}

// SubmitAttemptHandler scores a submitted answer state against the keyed
// test and persists the result. Scoring happens exactly once per attempt;
// when only the save fails, the response still carries the computed result
// and the client retries POST /results instead of re-submitting.
func SubmitAttemptHandler(st store.Store, events *syncx.EventRepo, partial quiz.PartialPolicy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		var req attemptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}

		test, err := st.GetTestWithKeys(r.Context(), req.Language, req.Variant)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "no tests available", 404)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}

		state := quiz.NewAnswerState()
		for _, q := range test.Questions {
			for _, text := range req.Selected[q.ID] {
				state.Select(q, optionByText(q, text))
			}
			if answer, ok := req.TextAnswers[q.ID]; ok {
				state.SetTextAnswer(q.ID, answer)
			}
		}

		// Truncated to seconds so the stored timestamp round-trips exactly.
		now := time.Now().UTC().Truncate(time.Second)
		result := quiz.Score(test, state, userID, now)

		resp := attemptResponse{
			Result:       result,
			PartialCount: quiz.PartialCount(result, partial),
			Percentage:   result.Percentage(),
		}
		if err := st.SaveResult(r.Context(), result); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(resp)
			return
		}
		resp.Saved = true
		if events != nil {
			_ = events.Append(r.Context(), syncx.Event{Type: syncx.EventResultSaved, Key: result.ID})
		}
		writeJSON(w, resp)
	}
}

// SaveResultHandler is the save-only retry path. The result was already
// computed by a previous submit whose persistence failed; saving is
// idempotent by result id.
func SaveResultHandler(rs store.ResultStore, events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		var result quiz.TestResult
		if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if result.ID == "" || result.UserID != userID {
			http.Error(w, "result must carry its id and belong to the caller", 400)
			return
		}
		if err := rs.SaveResult(r.Context(), result); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		if events != nil {
			_ = events.Append(r.Context(), syncx.Event{Type: syncx.EventResultSaved, Key: result.ID})
		}
		writeJSON(w, map[string]bool{"saved": true})
	}
}

// GET /results - own results, newest first.
func ListResultsHandler(rs store.ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		list, err := rs.ListResults(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, list)
	}
}

// GET /results/{resultID}
func GetResultHandler(rs store.ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := loadOwnResult(w, r, rs)
		if !ok {
			return
		}
		writeJSON(w, result)
	}
}

type statsResponse struct {
	SectionA     quiz.SectionAStats    `json:"sectionA"`
	SectionB     quiz.SectionBStats    `json:"sectionB"`
	PartialCount int                   `json:"partialCount"`
	Percentage   int                   `json:"percentage"`
	Review       []quiz.QuestionReview `json:"review"`
}

// GET /results/{resultID}/stats - section statistics and per-question
// review verdicts, derived from the stored record alone.
func ResultStatsHandler(rs store.ResultStore, partial, review quiz.PartialPolicy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := loadOwnResult(w, r, rs)
		if !ok {
			return
		}
		writeJSON(w, statsResponse{
			SectionA:     quiz.SectionA(result, review),
			SectionB:     quiz.SectionB(result),
			PartialCount: quiz.PartialCount(result, partial),
			Percentage:   result.Percentage(),
			Review:       quiz.Review(result, review),
		})
	}
}

// loadOwnResult fetches the result and enforces ownership; admins may read
// any result. Writes the error response itself when returning ok=false.
func loadOwnResult(w http.ResponseWriter, r *http.Request, rs store.ResultStore) (quiz.TestResult, bool) {
	userID := authmw.SubjectFromContext(r.Context())
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return quiz.TestResult{}, false
	}
	result, err := rs.GetResult(r.Context(), chi.URLParam(r, "resultID"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "result not found", 404)
		return quiz.TestResult{}, false
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return quiz.TestResult{}, false
	}
	if result.UserID != userID && rbac.RoleFromContext(r.Context()) != "admin" {
		http.Error(w, "result not found", 404)
		return quiz.TestResult{}, false
	}
	return result, true
}

// optionByText resolves a posted option text against the question; unknown
// texts still flow through as bare options, the scoring set equality makes
// them wrong picks.
func optionByText(q quiz.Question, text string) quiz.Option {
	for _, o := range q.Options {
		if o.Text == text {
			return o
		}
	}
	return quiz.Option{Text: text}
}
