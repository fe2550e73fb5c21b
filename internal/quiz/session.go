package quiz

import "strings"

// AnswerState is the mutable, session-scoped record of a user's selections
// and free-text entries before scoring. One state belongs to exactly one
// test attempt and is discarded once Score has consumed it; it is never
// shared across attempts, so no locking is needed.
type AnswerState struct {
	selected map[string][]Option // per question id, in selection order
	text     map[string]string
}

func NewAnswerState() *AnswerState {
	return &AnswerState{
		selected: map[string][]Option{},
		text:     map[string]string{},
	}
}

// Select records an option pick. Multi-select questions toggle membership;
// any other kind replaces the previous pick. Callers are trusted to pass an
// option that belongs to the question.
func (s *AnswerState) Select(q Question, o Option) {
	switch q.Type {
	case TypeMulti:
		cur := s.selected[q.ID]
		for i, sel := range cur {
			if sel.Key() == o.Key() {
				s.selected[q.ID] = append(cur[:i:i], cur[i+1:]...)
				return
			}
		}
		s.selected[q.ID] = append(cur, o)
	case TypeSingle, TypeText:
		s.selected[q.ID] = []Option{o}
	}
}

// SetTextAnswer records the free-text entry for a text question.
func (s *AnswerState) SetTextAnswer(questionID, answer string) {
	s.text[questionID] = answer
}

// Selected returns the picked options for a question, in selection order.
func (s *AnswerState) Selected(questionID string) []Option {
	return s.selected[questionID]
}

// TextAnswer returns the raw free-text entry for a question.
func (s *AnswerState) TextAnswer(questionID string) string {
	return s.text[questionID]
}

// Answered reports whether the question has a usable answer: a non-empty
// selection for choice questions, a non-blank entry for text questions.
func (s *AnswerState) Answered(q Question) bool {
	switch q.Type {
	case TypeSingle, TypeMulti:
		return len(s.selected[q.ID]) > 0
	case TypeText:
		return strings.TrimSpace(s.text[q.ID]) != ""
	}
	return false
}

// Progress is the percentage of questions with any recorded answer.
func (s *AnswerState) Progress(totalQuestions int) int {
	if totalQuestions == 0 {
		return 0
	}
	answered := len(s.selected) + len(s.text)
	return int(float64(answered) / float64(totalQuestions) * 100)
}
