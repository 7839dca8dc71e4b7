package quiz

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MrWong99/tutor/pkg/portal"
	"github.com/MrWong99/tutor/pkg/portal/mock"
)

var questions = []portal.Question{
	{Question: "What is H2O?", Options: []string{"Water", "Salt", "Air"}, CorrectAnswer: "Water", Explanation: "Two hydrogen, one oxygen."},
	{Question: "Rusting is an example of?", Options: []string{"Oxidation", "Reduction"}, CorrectAnswer: "Oxidation"},
	{Question: "A catalyst is?", Options: []string{"Consumed", "Not consumed"}, CorrectAnswer: "Not consumed"},
	{Question: "Burning is?", Options: []string{"Physical", "Chemical"}, CorrectAnswer: "Chemical"},
}

func generate(t *testing.T) *Session {
	t.Helper()
	s, err := Generate(context.Background(), &mock.Client{GenerateTestResult: questions}, 7, "Chemical Reactions")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return s
}

func TestGenerate_Topic(t *testing.T) {
	t.Parallel()
	gen := &mock.Client{GenerateTestResult: questions}
	s, err := Generate(context.Background(), gen, 7, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := []mock.GenerateTestCall{{ChapterID: 7, Topic: "Chapter 7 Science"}}
	if diff := cmp.Diff(want, gen.GenerateTestCalls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if s.Topic() != "Chapter 7 Science" || s.ChapterID() != 7 {
		t.Errorf("session = %q/%d", s.Topic(), s.ChapterID())
	}
	if diff := cmp.Diff(questions, s.Questions()); diff != "" {
		t.Errorf("questions mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		result []portal.Question
		err    error
		want   string
	}{
		{"warning wins", nil, &portal.AppError{StatusCode: 200, Message: "no docs", Warning: "No material for this chapter yet"}, "No material for this chapter yet"},
		{"backend error", nil, &portal.AppError{StatusCode: 500, Message: "Ollama not running"}, "Ollama not running"},
		{"bare failure", nil, &portal.AppError{StatusCode: 200}, MsgGenerateFailed},
		{"no questions", []portal.Question{}, nil, MsgGenerateFailed},
		{"unreachable", nil, fmt.Errorf("portal: generate test: %w", errors.New("dial tcp: connection refused")), MsgConnectFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Generate(context.Background(), &mock.Client{GenerateTestResult: tt.result, GenerateTestErr: tt.err}, 3, "")
			var qe *Error
			if !errors.As(err, &qe) {
				t.Fatalf("err = %v, want *Error", err)
			}
			if qe.Message != tt.want {
				t.Errorf("Message = %q, want %q", qe.Message, tt.want)
			}
		})
	}
}

func TestGenerate_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Generate(ctx, &mock.Client{GenerateTestErr: context.Canceled}, 3, "")
	var qe *Error
	if errors.As(err, &qe) {
		t.Errorf("cancellation reported as %v", qe)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSession_Answer(t *testing.T) {
	t.Parallel()
	s := generate(t)

	if err := s.Answer(4, "Water"); !errors.Is(err, ErrNoSuchQuestion) {
		t.Errorf("out of range: err = %v", err)
	}
	if err := s.Answer(0, "Fire"); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("bad option: err = %v", err)
	}
	if err := s.Answer(0, "Salt"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if err := s.Answer(0, "Water"); err != nil {
		t.Fatalf("re-answer: %v", err)
	}
	if got, ok := s.Chosen(0); !ok || got != "Water" {
		t.Errorf("Chosen(0) = %q, %v", got, ok)
	}
	if s.Answered() != 1 || s.Complete() {
		t.Errorf("answered = %d, complete = %v", s.Answered(), s.Complete())
	}
}

func TestSession_SubmitRequiresAllAnswers(t *testing.T) {
	t.Parallel()
	s := generate(t)
	_ = s.Answer(0, "Water")
	if _, err := s.Submit(); !errors.Is(err, ErrIncomplete) {
		t.Errorf("err = %v, want ErrIncomplete", err)
	}
}

func TestSession_Submit(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		answers []string
		score   int
		verdict string
	}{
		{"perfect", []string{"Water", "Oxidation", "Not consumed", "Chemical"}, 4, VerdictPerfect},
		{"half", []string{"Water", "Oxidation", "Consumed", "Physical"}, 2, VerdictGood},
		{"low", []string{"Salt", "Reduction", "Consumed", "Chemical"}, 1, VerdictPractice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := generate(t)
			for i, a := range tt.answers {
				if err := s.Answer(i, a); err != nil {
					t.Fatalf("Answer(%d): %v", i, err)
				}
			}
			res, err := s.Submit()
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if res.Score != tt.score || res.Total != 4 || res.Verdict != tt.verdict {
				t.Errorf("result = %d/%d %q", res.Score, res.Total, res.Verdict)
			}
			for i, r := range res.Review {
				if r.Chosen != tt.answers[i] || r.Correct != (tt.answers[i] == questions[i].CorrectAnswer) {
					t.Errorf("review[%d] = %+v", i, r)
				}
			}

			if err := s.Answer(0, "Salt"); !errors.Is(err, ErrSubmitted) {
				t.Errorf("answer after submit: err = %v", err)
			}
			again, err := s.Submit()
			if !errors.Is(err, ErrSubmitted) || again.Score != res.Score {
				t.Errorf("second submit = %+v, %v", again, err)
			}
		})
	}
}

func TestVerdict(t *testing.T) {
	t.Parallel()
	tests := []struct {
		score, total int
		want         string
	}{
		{5, 5, VerdictPerfect},
		{3, 5, VerdictGood},
		{2, 4, VerdictGood},
		{2, 5, VerdictPractice},
		{0, 3, VerdictPractice},
	}
	for _, tt := range tests {
		if got := Verdict(tt.score, tt.total); got != tt.want {
			t.Errorf("Verdict(%d, %d) = %q, want %q", tt.score, tt.total, got, tt.want)
		}
	}
}
