package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MrWong99/tutor/internal/quiz"
)

// ErrAborted is returned by [RunQuiz] when input ends before every question
// is answered.
var ErrAborted = errors.New("ui: quiz aborted")

// RunQuiz walks the student through s on a line-based terminal: each question
// is printed with lettered options and the answer is read from in. Invalid
// answers are re-prompted. Once every question is answered the test is
// submitted and the result with a per-question review is written to out.
func RunQuiz(ctx context.Context, s *quiz.Session, in io.Reader, out io.Writer) (quiz.Result, error) {
	st := DefaultStyles()
	sc := bufio.NewScanner(in)
	questions := s.Questions()

	fmt.Fprintln(out, st.Title.Render("Test: "+s.Topic()))
	for i, q := range questions {
		fmt.Fprintf(out, "\n%s\n", st.Header.UnsetPadding().Render(fmt.Sprintf("Q%d. %s", i+1, q.Question)))
		for j, opt := range q.Options {
			fmt.Fprintf(out, "  %c) %s\n", 'a'+j, opt)
		}
		for {
			if err := ctx.Err(); err != nil {
				return quiz.Result{}, err
			}
			fmt.Fprintf(out, "Answer [a-%c]: ", 'a'+len(q.Options)-1)
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					return quiz.Result{}, fmt.Errorf("ui: quiz: read answer: %w", err)
				}
				return quiz.Result{}, fmt.Errorf("%w after %d of %d questions", ErrAborted, s.Answered(), len(questions))
			}
			opt, ok := parseChoice(sc.Text(), q.Options)
			if !ok {
				fmt.Fprintln(out, st.Error.Render("Please enter one of the listed letters."))
				continue
			}
			if err := s.Answer(i, opt); err != nil {
				return quiz.Result{}, err
			}
			break
		}
	}

	res, err := s.Submit()
	if err != nil {
		return quiz.Result{}, err
	}
	fmt.Fprint(out, FormatResult(res))
	return res, nil
}

// parseChoice accepts a letter ("b") or a 1-based number ("2").
func parseChoice(line string, options []string) (string, bool) {
	line = strings.ToLower(strings.TrimSpace(line))
	if line == "" {
		return "", false
	}
	if n, err := strconv.Atoi(line); err == nil {
		if n < 1 || n > len(options) {
			return "", false
		}
		return options[n-1], true
	}
	if len(line) != 1 {
		return "", false
	}
	idx := int(line[0] - 'a')
	if idx < 0 || idx >= len(options) {
		return "", false
	}
	return options[idx], true
}

// FormatResult renders a scored test with the verdict and a review of every
// question.
func FormatResult(res quiz.Result) string {
	st := DefaultStyles()
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s %s\n", st.Title.Render(fmt.Sprintf("Score: %d/%d", res.Score, res.Total)), res.Verdict)
	for i, r := range res.Review {
		mark := st.Success.Render("✓")
		if !r.Correct {
			mark = st.Error.Render("✗")
		}
		fmt.Fprintf(&b, "\n%s Q%d. %s\n", mark, i+1, r.Question.Question)
		fmt.Fprintf(&b, "   Your answer: %s\n", r.Chosen)
		if !r.Correct {
			fmt.Fprintf(&b, "   Correct answer: %s\n", r.Question.CorrectAnswer)
		}
		if r.Question.Explanation != "" {
			fmt.Fprintf(&b, "   %s\n", st.Muted.Render(r.Question.Explanation))
		}
	}
	return b.String()
}
