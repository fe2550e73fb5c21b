package quiz

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Score judges every question of the test against the answer state in a
// single ordered pass and assembles the durable result record. It is pure:
// persistence belongs to the caller, and calling it twice with the same
// inputs yields identical results except for the generated id.
//
// Correctness rules:
//   - text: the first option's text is the canonical answer; both sides are
//     trimmed and lower-cased before comparing.
//   - single/multi: the set of selected option texts must equal the set of
//     correct option texts. Options sharing a text are conflated; historical
//     results depend on that, so it is preserved here.
//
// Wrong or unanswered questions land in Answers keyed by question id: text
// questions record the normalized user entry, choice questions record the
// ", "-joined selection in selection order.
func Score(test TestVariant, state *AnswerState, userID string, now time.Time) TestResult {
	if state == nil {
		state = NewAnswerState()
	}

	answers := map[string]string{}
	types := make(map[string]QuestionType, len(test.Questions))
	correctByID := map[string][]string{}
	allIDs := make([]string, 0, len(test.Questions))
	correctCount := 0

	for _, q := range test.Questions {
		allIDs = append(allIDs, q.ID)
		types[q.ID] = q.Type

		correctTexts := correctOptionTexts(q)
		if q.Type != TypeText {
			correctByID[q.ID] = correctTexts
		}

		switch q.Type {
		case TypeText:
			canonical := ""
			if len(q.Options) > 0 {
				canonical = normalize(q.Options[0].Text)
			}
			user := normalize(state.TextAnswer(q.ID))
			if user == canonical {
				correctCount++
			} else {
				answers[q.ID] = user
			}
		case TypeSingle, TypeMulti:
			selected := selectedTexts(state.Selected(q.ID))
			if equalStringSets(selected, correctTexts) {
				correctCount++
			} else {
				answers[q.ID] = strings.Join(selected, ", ")
			}
		}
	}

	return TestResult{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Language:           test.Language,
		Variant:            test.Variant,
		CorrectAnswers:     correctCount,
		TotalQuestions:     len(test.Questions),
		Timestamp:          now,
		Answers:            answers,
		AllQuestionIDs:     allIDs,
		QuestionTypesByID:  types,
		CorrectOptionsByID: correctByID,
	}
}

// correctOptionTexts returns the distinct texts of the correct options,
// in option order.
func correctOptionTexts(q Question) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, o := range q.Options {
		if o.IsCorrect && !seen[o.Text] {
			seen[o.Text] = true
			out = append(out, o.Text)
		}
	}
	return out
}

// selectedTexts returns the distinct texts of the selected options,
// in selection order.
func selectedTexts(selected []Option) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, o := range selected {
		if !seen[o.Text] {
			seen[o.Text] = true
			out = append(out, o.Text)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func equalStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		seen[s]--
	}
	for _, v := range seen {
		if v != 0 {
			return false
		}
	}
	return true
}
