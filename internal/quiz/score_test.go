package quiz

import (
	"strings"
	"testing"
	"time"
)

var scoreNow = time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

func singleQ(id string, correct string, others ...string) Question {
	opts := []Option{{Text: correct, IsCorrect: true}}
	for _, o := range others {
		opts = append(opts, Option{Text: o})
	}
	return Question{ID: id, Title: "q " + id, Type: TypeSingle, Options: opts}
}

func multiQ(id string, correct []string, others ...string) Question {
	var opts []Option
	for _, c := range correct {
		opts = append(opts, Option{Text: c, IsCorrect: true})
	}
	for _, o := range others {
		opts = append(opts, Option{Text: o})
	}
	return Question{ID: id, Title: "q " + id, Type: TypeMulti, Options: opts}
}

func textQ(id string, canonical string) Question {
	return Question{ID: id, Title: "q " + id, Type: TypeText, Options: []Option{{Text: canonical, IsCorrect: true}}}
}

func pick(t *testing.T, state *AnswerState, q Question, texts ...string) {
	t.Helper()
	for _, want := range texts {
		found := false
		for _, o := range q.Options {
			if o.Text == want {
				state.Select(q, o)
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("question %s has no option %q", q.ID, want)
		}
	}
}

func TestScoreSingleChoice(t *testing.T) {
	tests := []struct {
		name        string
		selected    []string
		wantCorrect bool
		wantAnswer  string
	}{
		{name: "exact pick", selected: []string{"A"}, wantCorrect: true},
		{name: "wrong pick", selected: []string{"B"}, wantAnswer: "B"},
		{name: "no pick", selected: nil, wantAnswer: ""},
		{name: "replaced pick keeps last", selected: []string{"B", "A"}, wantCorrect: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := singleQ("a1", "A", "B", "C")
			state := NewAnswerState()
			pick(t, state, q, tc.selected...)

			res := Score(TestVariant{Language: "Русский язык", Variant: 1, Questions: []Question{q}}, state, "u1", scoreNow)
			if tc.wantCorrect {
				if res.CorrectAnswers != 1 {
					t.Fatalf("correctAnswers = %d, want 1", res.CorrectAnswers)
				}
				if _, ok := res.Answers["a1"]; ok {
					t.Fatalf("correct question must not appear in answers, got %q", res.Answers["a1"])
				}
				return
			}
			if res.CorrectAnswers != 0 {
				t.Fatalf("correctAnswers = %d, want 0", res.CorrectAnswers)
			}
			got, ok := res.Answers["a1"]
			if !ok {
				t.Fatal("wrong question missing from answers")
			}
			if got != tc.wantAnswer {
				t.Fatalf("answers[a1] = %q, want %q", got, tc.wantAnswer)
			}
		})
	}
}

func TestScoreMultiChoice(t *testing.T) {
	tests := []struct {
		name        string
		selected    []string
		wantCorrect bool
		wantAnswer  string
	}{
		{name: "full set any order", selected: []string{"B", "A"}, wantCorrect: true},
		{name: "subset recorded in selection order", selected: []string{"A"}, wantAnswer: "A"},
		{name: "superset is wrong", selected: []string{"A", "B", "C"}, wantAnswer: "A, B, C"},
		{name: "toggle removes pick", selected: []string{"A", "B", "B"}, wantAnswer: "A"},
		{name: "nothing selected", selected: nil, wantAnswer: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := multiQ("a2", []string{"A", "B"}, "C", "D")
			state := NewAnswerState()
			pick(t, state, q, tc.selected...)

			res := Score(TestVariant{Language: "Русский язык", Variant: 1, Questions: []Question{q}}, state, "u1", scoreNow)
			if tc.wantCorrect {
				if res.CorrectAnswers != 1 {
					t.Fatalf("correctAnswers = %d, want 1", res.CorrectAnswers)
				}
				return
			}
			if got := res.Answers["a2"]; got != tc.wantAnswer {
				t.Fatalf("answers[a2] = %q, want %q", got, tc.wantAnswer)
			}
		})
	}
}

func TestScoreTextNormalization(t *testing.T) {
	tests := []struct {
		name        string
		canonical   string
		user        string
		wantCorrect bool
		wantAnswer  string
	}{
		{name: "case and whitespace insensitive", canonical: " Paris ", user: "paris", wantCorrect: true},
		{name: "inner whitespace preserved", canonical: "New York", user: "new  york", wantAnswer: "new  york"},
		{name: "blank answer recorded empty", canonical: "Paris", user: "   ", wantAnswer: ""},
		{name: "cyrillic answer", canonical: "Минск", user: "минск  ", wantCorrect: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := textQ("b1", tc.canonical)
			state := NewAnswerState()
			state.SetTextAnswer("b1", tc.user)

			res := Score(TestVariant{Language: "Русский язык", Variant: 1, Questions: []Question{q}}, state, "u1", scoreNow)
			if tc.wantCorrect {
				if res.CorrectAnswers != 1 {
					t.Fatalf("correctAnswers = %d, want 1", res.CorrectAnswers)
				}
				return
			}
			if got := res.Answers["b1"]; got != tc.wantAnswer {
				t.Fatalf("answers[b1] = %q, want %q", got, tc.wantAnswer)
			}
		})
	}
}

func TestScoreEndToEnd(t *testing.T) {
	q1 := singleQ("a1", "союз", "предлог")
	q2 := singleQ("a2", "глагол", "наречие")
	q3 := textQ("b1", "Минск")

	state := NewAnswerState()
	pick(t, state, q1, "союз")    // correct
	pick(t, state, q2, "наречие") // wrong
	// q3 left blank

	test := TestVariant{Language: "Белорусский язык", Variant: 3, Questions: []Question{q1, q2, q3}}
	res := Score(test, state, "user-7", scoreNow)

	if res.CorrectAnswers != 1 || res.TotalQuestions != 3 {
		t.Fatalf("got %d/%d, want 1/3", res.CorrectAnswers, res.TotalQuestions)
	}
	if len(res.Answers) != 2 {
		t.Fatalf("answers = %v, want entries for a2 and b1 only", res.Answers)
	}
	if res.Answers["a2"] != "наречие" || res.Answers["b1"] != "" {
		t.Fatalf("answers = %v", res.Answers)
	}
	if res.UserID != "user-7" || res.Language != "Белорусский язык" || res.Variant != 3 {
		t.Fatalf("result header mismatch: %+v", res)
	}
	if !res.Timestamp.Equal(scoreNow) {
		t.Fatalf("timestamp = %v, want %v", res.Timestamp, scoreNow)
	}
}

func TestScoreResultShape(t *testing.T) {
	test := TestVariant{Language: "Русский язык", Variant: 2, Questions: []Question{
		singleQ("a1", "A", "B"),
		multiQ("a2", []string{"A", "B"}, "C"),
		textQ("b1", "ответ"),
		singleQ("c1", "X", "Y"),
	}}
	res := Score(test, NewAnswerState(), "u1", scoreNow)

	if len(res.AllQuestionIDs) != len(test.Questions) {
		t.Fatalf("allQuestionIDs length %d, want %d", len(res.AllQuestionIDs), len(test.Questions))
	}
	for i, q := range test.Questions {
		if res.AllQuestionIDs[i] != q.ID {
			t.Fatalf("allQuestionIDs[%d] = %s, want %s (source order preserved)", i, res.AllQuestionIDs[i], q.ID)
		}
	}
	inAll := map[string]bool{}
	for _, id := range res.AllQuestionIDs {
		inAll[id] = true
	}
	for id := range res.QuestionTypesByID {
		if !inAll[id] {
			t.Fatalf("questionTypesById key %s not in allQuestionIDs", id)
		}
	}
	if _, ok := res.CorrectOptionsByID["b1"]; ok {
		t.Fatal("text question must not appear in correctOptionsById")
	}
	for _, id := range []string{"a1", "a2", "c1"} {
		if _, ok := res.CorrectOptionsByID[id]; !ok {
			t.Fatalf("correctOptionsById missing %s", id)
		}
	}
}

func TestScoreDeterministicExceptID(t *testing.T) {
	q := multiQ("a1", []string{"A", "B"}, "C")
	state := NewAnswerState()
	pick(t, state, q, "A")
	test := TestVariant{Language: "Русский язык", Variant: 1, Questions: []Question{q}}

	r1 := Score(test, state, "u1", scoreNow)
	r2 := Score(test, state, "u1", scoreNow)

	if r1.ID == r2.ID {
		t.Fatal("result ids must be unique per call")
	}
	r2.ID = r1.ID
	if r1.CorrectAnswers != r2.CorrectAnswers || r1.Answers["a1"] != r2.Answers["a1"] ||
		strings.Join(r1.AllQuestionIDs, "|") != strings.Join(r2.AllQuestionIDs, "|") {
		t.Fatalf("repeated scoring differs: %+v vs %+v", r1, r2)
	}
}

func TestScoreDuplicateOptionTextsConflate(t *testing.T) {
	// Two correct options sharing a text collapse into one entry under the
	// set-equality rule. Historical results rely on this, so it stays.
	q := Question{ID: "a1", Type: TypeMulti, Options: []Option{
		{ID: "o1", Text: "дуб", IsCorrect: true},
		{ID: "o2", Text: "дуб", IsCorrect: true},
		{ID: "o3", Text: "ель"},
	}}
	state := NewAnswerState()
	state.Select(q, q.Options[0])

	res := Score(TestVariant{Language: "Русский язык", Variant: 1, Questions: []Question{q}}, state, "u1", scoreNow)
	if res.CorrectAnswers != 1 {
		t.Fatalf("correctAnswers = %d, want 1 (duplicate texts conflated)", res.CorrectAnswers)
	}
}
