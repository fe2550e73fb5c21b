package quiz

import "strings"

// The classifier re-derives review statistics from a persisted TestResult
// alone. The result is self-describing (AllQuestionIDs, QuestionTypesByID,
// CorrectOptionsByID), so the original test is never consulted. Malformed
// results with missing maps degrade to empty maps and still classify.

// Verdict is the per-question review outcome.
type Verdict string

const (
	VerdictCorrect Verdict = "correct"
	VerdictPartial Verdict = "partial"
	VerdictWrong   Verdict = "wrong"
)

// SectionAStats summarizes part A: choice questions whose id starts with
// "a" (case-insensitive). Text questions are excluded.
type SectionAStats struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
	Partial int `json:"partial"`
	Wrong   int `json:"wrong"`
}

// SectionBStats summarizes part B: every question whose id starts with "b"
// (case-insensitive). Part B has no partial concept.
type SectionBStats struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
}

// QuestionReview is one row of the detailed answers screen.
type QuestionReview struct {
	QuestionID     string   `json:"id"`
	Verdict        Verdict  `json:"verdict"`
	Answer         string   `json:"answer,omitempty"`
	CorrectOptions []string `json:"correctOptions,omitempty"`
}

// SectionA computes part A statistics. A question with no Answers entry was
// fully correct; a recorded entry is partial when the policy admits the
// result's language, the question is multi-select, and the recorded
// selection is a proper non-empty subset of the correct set. Anything
// else is wrong.
func SectionA(r TestResult, policy PartialPolicy) SectionAStats {
	var stats SectionAStats
	for _, id := range r.AllQuestionIDs {
		if sectionOf(id) != 'a' || r.QuestionTypesByID[id] == TypeText {
			continue
		}
		stats.Total++
		switch questionVerdict(r, id, policy) {
		case VerdictCorrect:
			stats.Correct++
		case VerdictPartial:
			stats.Partial++
		case VerdictWrong:
			stats.Wrong++
		}
	}
	return stats
}

// SectionB computes part B statistics: correct iff no Answers entry.
func SectionB(r TestResult) SectionBStats {
	var stats SectionBStats
	for _, id := range r.AllQuestionIDs {
		if sectionOf(id) != 'b' {
			continue
		}
		stats.Total++
		if _, wrong := r.Answers[id]; wrong {
			stats.Wrong++
		} else {
			stats.Correct++
		}
	}
	return stats
}

// Review classifies every question of the result in its original order.
func Review(r TestResult, policy PartialPolicy) []QuestionReview {
	out := make([]QuestionReview, 0, len(r.AllQuestionIDs))
	for _, id := range r.AllQuestionIDs {
		qr := QuestionReview{
			QuestionID:     id,
			Verdict:        questionVerdict(r, id, policy),
			CorrectOptions: r.CorrectOptionsByID[id],
		}
		if answer, ok := r.Answers[id]; ok {
			qr.Answer = answer
		}
		out = append(out, qr)
	}
	return out
}

// questionVerdict applies the shared predicate: absent answer entry means
// correct; a recorded entry is partial only for policy languages on
// multi-select questions, else wrong.
func questionVerdict(r TestResult, id string, policy PartialPolicy) Verdict {
	answer, ok := r.Answers[id]
	if !ok {
		return VerdictCorrect
	}
	if policy.Allows(r.Language) && r.QuestionTypesByID[id] == TypeMulti &&
		isPartialAnswer(answer, r.CorrectOptionsByID[id]) {
		return VerdictPartial
	}
	return VerdictWrong
}

// sectionOf maps a question id to its section rune ('a' or 'b') by
// case-insensitive prefix, or 0 when it belongs to neither.
func sectionOf(id string) byte {
	if id == "" {
		return 0
	}
	switch lower := strings.ToLower(id[:1]); lower {
	case "a":
		return 'a'
	case "b":
		return 'b'
	}
	return 0
}
