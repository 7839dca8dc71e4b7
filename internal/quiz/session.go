package quiz

import (
	"fmt"
	"slices"
	"sync"

	"github.com/MrWong99/tutor/pkg/portal"
)

// Review is the outcome of one question after submission.
type Review struct {
	Question portal.Question
	Chosen   string
	Correct  bool
}

// Result is a scored submission.
type Result struct {
	Score   int
	Total   int
	Verdict string
	Review  []Review
}

// Session is one attempt at a generated test. It is safe for concurrent use.
type Session struct {
	chapterID int64
	topic     string
	questions []portal.Question

	mu        sync.Mutex
	answers   map[int]string
	submitted bool
	result    Result
}

// ChapterID returns the chapter the test was generated for.
func (s *Session) ChapterID() int64 { return s.chapterID }

// Topic returns the topic sent to the generator.
func (s *Session) Topic() string { return s.topic }

// Questions returns the questions in display order.
func (s *Session) Questions() []portal.Question {
	return slices.Clone(s.questions)
}

// Answer selects option for question i (0-based). Re-answering replaces the
// previous choice until the test is submitted.
func (s *Session) Answer(i int, option string) error {
	if i < 0 || i >= len(s.questions) {
		return fmt.Errorf("%w: %d", ErrNoSuchQuestion, i+1)
	}
	if !slices.Contains(s.questions[i].Options, option) {
		return fmt.Errorf("%w: %q", ErrInvalidOption, option)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return ErrSubmitted
	}
	s.answers[i] = option
	return nil
}

// Chosen returns the current answer to question i, if any.
func (s *Session) Chosen(i int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[i]
	return a, ok
}

// Answered returns the number of answered questions.
func (s *Session) Answered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// Complete reports whether every question has an answer.
func (s *Session) Complete() bool {
	return s.Answered() == len(s.questions)
}

// Submit scores the test. It fails with [ErrIncomplete] until every question
// is answered; afterwards answers are frozen and further calls return the
// same result together with [ErrSubmitted].
func (s *Session) Submit() (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return s.result, ErrSubmitted
	}
	if len(s.answers) < len(s.questions) {
		return Result{}, fmt.Errorf("%w: %d of %d answered", ErrIncomplete, len(s.answers), len(s.questions))
	}

	res := Result{Total: len(s.questions), Review: make([]Review, len(s.questions))}
	for i, q := range s.questions {
		chosen := s.answers[i]
		ok := chosen == q.CorrectAnswer
		if ok {
			res.Score++
		}
		res.Review[i] = Review{Question: q, Chosen: chosen, Correct: ok}
	}
	res.Verdict = Verdict(res.Score, res.Total)
	s.submitted = true
	s.result = res
	return res, nil
}
