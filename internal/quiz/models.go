package quiz

import (
	"fmt"
	"strings"
	"time"
)

// QuestionType is the closed set of question kinds a variant may contain.
type QuestionType string

const (
	TypeSingle QuestionType = "single"
	TypeMulti  QuestionType = "multi"
	TypeText   QuestionType = "text"
)

func (t QuestionType) Valid() bool {
	switch t {
	case TypeSingle, TypeMulti, TypeText:
		return true
	}
	return false
}

type Option struct {
	ID        string `json:"id,omitempty"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Key identifies the option inside its question. Legacy content carries no
// explicit option ids, so the display text doubles as the identity there.
// Scoring always compares by text regardless, to stay interpretable against
// historical results.
func (o Option) Key() string {
	if o.ID != "" {
		return o.ID
	}
	return o.Text
}

type Question struct {
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Text    string       `json:"text,omitempty"`
	Type    QuestionType `json:"type"`
	Options []Option     `json:"options"`
}

const passageMarker = "текст"

// PassageTied reports whether the question belongs to a shared reading
// passage, marked by the "текст" substring in its id.
func (q Question) PassageTied() bool {
	return strings.Contains(strings.ToLower(q.ID), passageMarker)
}

// TestVariant is one concrete instance of an exam for a language.
// Immutable once fetched; identity is (Language, Variant).
type TestVariant struct {
	Language  string     `json:"language"`
	Variant   int        `json:"variant"`
	Questions []Question `json:"questions"`
}

// Key is the document key the content pipeline uses for a variant.
func (t TestVariant) Key() string {
	return fmt.Sprintf("%s_%d", t.Language, t.Variant)
}

// TestResult is the durable, replayable record produced by Score. The JSON
// field names are a persistence contract and must round-trip unchanged.
// Answers holds only incorrectly answered questions; a question with no
// entry was answered fully correctly.
type TestResult struct {
	ID                 string                  `json:"id"`
	UserID             string                  `json:"userId"`
	Language           string                  `json:"language"`
	Variant            int                     `json:"variant"`
	CorrectAnswers     int                     `json:"correctAnswers"`
	TotalQuestions     int                     `json:"totalQuestions"`
	Timestamp          time.Time               `json:"timestamp"`
	Answers            map[string]string       `json:"answers"`
	AllQuestionIDs     []string                `json:"allQuestionIDs"`
	QuestionTypesByID  map[string]QuestionType `json:"questionTypesById"`
	CorrectOptionsByID map[string][]string     `json:"correctOptionsById"`
}

// Percentage is the summary-screen score, 0..100.
func (r TestResult) Percentage() int {
	if r.TotalQuestions == 0 {
		return 0
	}
	return int(float64(r.CorrectAnswers) / float64(r.TotalQuestions) * 100)
}
