package model

// AnswerSet maps a survey question id to the raw answer value: a scalar
// (string, number, bool), a list, or a structured object. It is owned by
// exactly one partnership.
type AnswerSet map[string]any

// Clone returns a shallow copy, used as the immutable snapshot taken at scoring time
func (s AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge applies incremental answers on top of the set. A nil value removes the answer.
func (s AnswerSet) Merge(updates AnswerSet) AnswerSet {
	out := s.Clone()
	for k, v := range updates {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// SaveAnswersRequest is the body of PUT /v1/survey
type SaveAnswersRequest struct {
	Answers AnswerSet `json:"answers"`
}
