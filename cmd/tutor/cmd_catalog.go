package main

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrWong99/tutor/pkg/portal"
)

func (c *cli) subjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subjects",
		Short: "List the subjects of your standard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.openPortal()
			if err != nil {
				return err
			}
			ctx, cancel := c.requestContext(cmd.Context())
			defer cancel()
			subjects, err := s.client.Subjects(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSUBJECT")
			for _, sub := range subjects {
				fmt.Fprintf(tw, "%d\t%s\n", sub.ID, sub.Name)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) chaptersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chapters <subject>",
		Short: "List the chapters of a subject, by ID or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openPortal()
			if err != nil {
				return err
			}
			ctx, cancel := c.requestContext(cmd.Context())
			defer cancel()
			sub, err := findSubject(ctx, s.client, args[0])
			if err != nil {
				return err
			}
			chapters, err := s.client.Chapters(ctx, sub.ID)
			if err != nil {
				return err
			}
			slices.SortStableFunc(chapters, func(a, b portal.Chapter) int { return a.Order - b.Order })
			tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "ID\t#\t%s\n", strings.ToUpper(sub.Name))
			for _, ch := range chapters {
				fmt.Fprintf(tw, "%d\t%d\t%s\n", ch.ID, ch.Order, ch.Title)
			}
			return tw.Flush()
		},
	}
}

// subjectLister is the part of the portal client subject lookup needs.
type subjectLister interface {
	Subjects(ctx context.Context) ([]portal.Subject, error)
}

// findSubject resolves ref as a subject ID or a case-insensitive name.
func findSubject(ctx context.Context, l subjectLister, ref string) (portal.Subject, error) {
	subjects, err := l.Subjects(ctx)
	if err != nil {
		return portal.Subject{}, err
	}
	id, idErr := strconv.ParseInt(ref, 10, 64)
	for _, s := range subjects {
		if (idErr == nil && s.ID == id) || strings.EqualFold(s.Name, ref) {
			return s, nil
		}
	}
	return portal.Subject{}, fmt.Errorf("no subject %q; run \"tutor subjects\" to list them", ref)
}
