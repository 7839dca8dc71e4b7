package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MrWong99/tutor/internal/quiz"
	"github.com/MrWong99/tutor/internal/ui"
)

func (c *cli) quizCmd() *cobra.Command {
	var topic string
	cmd := &cobra.Command{
		Use:   "quiz <chapter-id>",
		Short: "Take a generated multiple-choice test on a chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapterID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || chapterID <= 0 {
				return errInvalidChapter(args[0])
			}
			s, err := c.openPortal()
			if err != nil {
				return err
			}

			genCtx, cancel := context.WithTimeout(cmd.Context(), c.cfg.Quiz.Timeout)
			defer cancel()
			session, err := quiz.Generate(genCtx, s.client, chapterID, topic, quiz.WithMetrics(c.metrics))
			if err != nil {
				return err
			}
			_, err = ui.RunQuiz(cmd.Context(), session, c.stdin, c.stdout)
			return err
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "topic sent to the generator (default \"Chapter <id> Science\")")
	return cmd
}
