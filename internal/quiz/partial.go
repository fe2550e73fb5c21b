package quiz

import "strings"

// PartialPolicy lists the language labels whose multi-select questions earn
// qualitative partial credit. It is built once from configuration instead of
// scattering label comparisons across call sites.
type PartialPolicy map[string]bool

func NewPartialPolicy(languages []string) PartialPolicy {
	p := make(PartialPolicy, len(languages))
	for _, l := range languages {
		if l = strings.TrimSpace(l); l != "" {
			p[l] = true
		}
	}
	return p
}

// DefaultPartialPolicy covers the two languages whose exams define
// multi-select partial credit.
func DefaultPartialPolicy() PartialPolicy {
	return NewPartialPolicy([]string{"Русский язык", "Белорусский язык"})
}

// DefaultReviewPolicy gates the partial verdict in section statistics and
// per-question review. Narrower than DefaultPartialPolicy: review screens
// only surface partial credit for Russian exams.
func DefaultReviewPolicy() PartialPolicy {
	return NewPartialPolicy([]string{"Русский язык"})
}

func (p PartialPolicy) Allows(language string) bool { return p[language] }

// PartialCount reports how many multi-select questions were answered with a
// proper non-empty subset of the correct options: some right picks, nothing
// wrong, but not all of them. The stored binary correctness count is not
// affected. Results for languages outside the policy, or results missing the
// type/key maps, count zero.
func PartialCount(r TestResult, policy PartialPolicy) int {
	if !policy.Allows(r.Language) || r.QuestionTypesByID == nil || r.CorrectOptionsByID == nil {
		return 0
	}

	partial := 0
	for id, typ := range r.QuestionTypesByID {
		if typ != TypeMulti {
			continue
		}
		answer, wrong := r.Answers[id]
		if !wrong {
			continue
		}
		correct, ok := r.CorrectOptionsByID[id]
		if !ok {
			continue
		}
		if isPartialAnswer(answer, correct) {
			partial++
		}
	}
	return partial
}

// isPartialAnswer applies the subset predicate to a recorded wrong answer:
// the ", "-joined selection must be a proper non-empty subset of the
// correct option texts.
func isPartialAnswer(answer string, correct []string) bool {
	selected := splitAnswer(answer)
	if len(selected) == 0 {
		return false
	}
	correctSet := make(map[string]bool, len(correct))
	for _, c := range correct {
		correctSet[c] = true
	}
	for _, s := range selected {
		if !correctSet[s] {
			return false
		}
	}
	return len(selected) < len(correctSet)
}

// splitAnswer reverses the ", " join used when recording a wrong selection.
func splitAnswer(answer string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, piece := range strings.Split(answer, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" || seen[piece] {
			continue
		}
		seen[piece] = true
		out = append(out, piece)
	}
	return out
}
