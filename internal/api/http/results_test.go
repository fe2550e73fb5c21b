package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	api "github.com/lingvistik/lingvistik-server/internal/api/http"
	authmw "github.com/lingvistik/lingvistik-server/internal/auth/middleware"
	"github.com/lingvistik/lingvistik-server/internal/quiz"
	"github.com/lingvistik/lingvistik-server/internal/rbac"
	"github.com/lingvistik/lingvistik-server/internal/store"
)

func seedTest(t *testing.T, st store.Store) quiz.TestVariant {
	t.Helper()
	variant := quiz.TestVariant{
		Language: "Русский язык",
		Variant:  1,
		Questions: []quiz.Question{
			{ID: "a1", Title: "союз", Type: quiz.TypeSingle, Options: []quiz.Option{
				{Text: "и", IsCorrect: true}, {Text: "на"},
			}},
			{ID: "a2", Title: "однородные", Type: quiz.TypeMulti, Options: []quiz.Option{
				{Text: "A", IsCorrect: true}, {Text: "B", IsCorrect: true}, {Text: "C"},
			}},
			{ID: "b1", Title: "столица", Type: quiz.TypeText, Options: []quiz.Option{
				{Text: "Минск", IsCorrect: true},
			}},
		},
	}
	if err := st.PutTest(context.Background(), variant); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return variant
}

func asUser(r *http.Request, userID, role string) *http.Request {
	ctx := authmw.WithSubject(r.Context(), userID)
	ctx = rbac.WithRole(ctx, role)
	return r.WithContext(ctx)
}

func submitBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"language": "Русский язык",
		"variant":  1,
		"selected": map[string][]string{
			"a1": {"и"},      // correct
			"a2": {"A", "C"}, // wrong (contains C)
		},
		"textAnswers": map[string]string{"b1": "  минск "}, // correct after normalization
	})
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewBuffer(body)
}

func TestSubmitAttempt(t *testing.T) {
	st := store.NewInMemoryStore()
	seedTest(t, st)
	h := api.SubmitAttemptHandler(st, nil, quiz.DefaultPartialPolicy())

	req := asUser(httptest.NewRequest("POST", "/attempts", submitBody(t)), "u1", "student")
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		Result       quiz.TestResult `json:"result"`
		PartialCount int             `json:"partialCount"`
		Percentage   int             `json:"percentage"`
		Saved        bool            `json:"saved"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Saved {
		t.Fatal("result not reported saved")
	}
	if resp.Result.CorrectAnswers != 2 || resp.Result.TotalQuestions != 3 {
		t.Fatalf("score = %d/%d, want 2/3", resp.Result.CorrectAnswers, resp.Result.TotalQuestions)
	}
	if got := resp.Result.Answers["a2"]; got != "A, C" {
		t.Fatalf("answers[a2] = %q, want %q", got, "A, C")
	}
	// A and C is not a proper subset of {A,B}: no partial credit.
	if resp.PartialCount != 0 {
		t.Fatalf("partialCount = %d, want 0", resp.PartialCount)
	}
	if resp.Result.UserID != "u1" {
		t.Fatalf("result attributed to %q", resp.Result.UserID)
	}

	saved, err := st.GetResult(context.Background(), resp.Result.ID)
	if err != nil {
		t.Fatalf("result not persisted: %v", err)
	}
	if saved.CorrectAnswers != resp.Result.CorrectAnswers {
		t.Fatal("persisted result differs from response")
	}
}

func TestSubmitAttemptUnauthenticated(t *testing.T) {
	st := store.NewInMemoryStore()
	seedTest(t, st)
	h := api.SubmitAttemptHandler(st, nil, quiz.DefaultPartialPolicy())

	req := httptest.NewRequest("POST", "/attempts", submitBody(t)) // no subject
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if list, _ := st.ListResults(context.Background(), ""); len(list) != 0 {
		t.Fatal("unauthenticated submit must not persist anything")
	}
}

func TestSubmitAttemptUnknownVariant(t *testing.T) {
	st := store.NewInMemoryStore()
	h := api.SubmitAttemptHandler(st, nil, quiz.DefaultPartialPolicy())

	req := asUser(httptest.NewRequest("POST", "/attempts", submitBody(t)), "u1", "student")
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// failingSaveStore breaks result persistence while leaving reads intact.
type failingSaveStore struct{ store.Store }

func (f failingSaveStore) SaveResult(context.Context, quiz.TestResult) error {
	return errors.New("store unavailable")
}

func TestSubmitAttemptStoreFailureKeepsResult(t *testing.T) {
	st := store.NewInMemoryStore()
	seedTest(t, st)
	h := api.SubmitAttemptHandler(failingSaveStore{st}, nil, quiz.DefaultPartialPolicy())

	req := asUser(httptest.NewRequest("POST", "/attempts", submitBody(t)), "u1", "student")
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var resp struct {
		Result quiz.TestResult `json:"result"`
		Saved  bool            `json:"saved"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Saved {
		t.Fatal("failed save reported as saved")
	}
	if resp.Result.ID == "" || resp.Result.TotalQuestions != 3 {
		t.Fatal("computed result must still reach the caller for a retry")
	}

	// The retry path persists the very same result without re-scoring.
	body, _ := json.Marshal(resp.Result)
	retry := asUser(httptest.NewRequest("POST", "/results", bytes.NewBuffer(body)), "u1", "student")
	rec = httptest.NewRecorder()
	api.SaveResultHandler(st, nil)(rec, retry)
	if rec.Code != http.StatusOK {
		t.Fatalf("retry status = %d, body %s", rec.Code, rec.Body)
	}
	if _, err := st.GetResult(context.Background(), resp.Result.ID); err != nil {
		t.Fatalf("retried result not persisted: %v", err)
	}
}

func TestSaveResultRejectsForeignResult(t *testing.T) {
	st := store.NewInMemoryStore()
	res := quiz.Score(quiz.TestVariant{Language: "Русский язык", Variant: 1}, quiz.NewAnswerState(), "other", time.Now())
	body, _ := json.Marshal(res)

	req := asUser(httptest.NewRequest("POST", "/results", bytes.NewBuffer(body)), "u1", "student")
	rec := httptest.NewRecorder()
	api.SaveResultHandler(st, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestResultStats(t *testing.T) {
	st := store.NewInMemoryStore()
	test := seedTest(t, st)

	state := quiz.NewAnswerState()
	state.Select(test.Questions[1], test.Questions[1].Options[0]) // a2: A only → partial
	state.SetTextAnswer("b1", "")                                 // b1 blank → wrong
	// a1 untouched → wrong
	res := quiz.Score(test, state, "u1", time.Now().UTC().Truncate(time.Second))
	if err := st.SaveResult(context.Background(), res); err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	r.Get("/results/{resultID}/stats", api.ResultStatsHandler(st, quiz.DefaultPartialPolicy(), quiz.DefaultReviewPolicy()))

	req := asUser(httptest.NewRequest("GET", "/results/"+res.ID+"/stats", nil), "u1", "student")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		SectionA     quiz.SectionAStats    `json:"sectionA"`
		SectionB     quiz.SectionBStats    `json:"sectionB"`
		PartialCount int                   `json:"partialCount"`
		Review       []quiz.QuestionReview `json:"review"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SectionA.Total != 2 || resp.SectionA.Partial != 1 || resp.SectionA.Wrong != 1 {
		t.Fatalf("sectionA = %+v", resp.SectionA)
	}
	if resp.SectionB.Total != 1 || resp.SectionB.Wrong != 1 {
		t.Fatalf("sectionB = %+v", resp.SectionB)
	}
	if resp.PartialCount != 1 {
		t.Fatalf("partialCount = %d, want 1", resp.PartialCount)
	}
	if len(resp.Review) != 3 {
		t.Fatalf("review rows = %d, want 3", len(resp.Review))
	}
}

func TestResultOwnership(t *testing.T) {
	st := store.NewInMemoryStore()
	test := seedTest(t, st)
	res := quiz.Score(test, quiz.NewAnswerState(), "owner", time.Now().UTC().Truncate(time.Second))
	if err := st.SaveResult(context.Background(), res); err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	r.Get("/results/{resultID}", api.GetResultHandler(st))

	req := asUser(httptest.NewRequest("GET", "/results/"+res.ID, nil), "intruder", "student")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign result status = %d, want 404", rec.Code)
	}

	req = asUser(httptest.NewRequest("GET", "/results/"+res.ID, nil), "someone", "admin")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin read status = %d, want 200", rec.Code)
	}
}
