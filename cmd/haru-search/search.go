package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/haru-search/internal/history"
	"github.com/dshills/haru-search/pkg/types"
)

type searchFlags struct {
	caller string
	entity string
	chatID string
	save   bool
	json   bool
}

func newSearchCmd(open opener) *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search as a given caller",
		Long: `Runs the same searches as the HTTP API from the terminal.

Without --entity the global search runs across all four entity types.
With --chat the query is scoped to one chat the caller owns.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			return runSearch(cmd, a, args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.caller, "caller", "", "user id to search as")
	cmd.Flags().StringVarP(&f.entity, "entity", "e", history.CategoryGlobal,
		"global, companions, users, messages or checkpoints")
	cmd.Flags().StringVar(&f.chatID, "chat", "", "search within this chat instead")
	cmd.Flags().BoolVar(&f.save, "save", false, "record the query in the caller's history")
	cmd.Flags().BoolVar(&f.json, "json", false, "output results as JSON")
	return cmd
}

func runSearch(cmd *cobra.Command, a *app, query string, f searchFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var results interface{}
	var sections []section

	switch {
	case f.chatID != "":
		msgs, err := a.searcher.SearchWithinChat(ctx, f.chatID, query, f.caller)
		if err != nil {
			return fmt.Errorf("chat search failed: %w", err)
		}
		results = msgs
		sections = []section{chatSection(msgs)}
	case f.entity == history.CategoryGlobal:
		g := a.searcher.GlobalSearch(ctx, query, f.caller)
		results = g
		sections = []section{
			companionSection(g.Companions),
			userSection(g.Users),
			messageSection(g.Messages),
			checkpointSection(g.Checkpoints),
		}
	case f.entity == history.CategoryCompanions:
		r := a.searcher.SearchCompanions(ctx, query, f.caller)
		results, sections = r, []section{companionSection(r)}
	case f.entity == history.CategoryUsers:
		r := a.searcher.SearchUsers(ctx, query, f.caller)
		results, sections = r, []section{userSection(r)}
	case f.entity == history.CategoryMessages:
		r := a.searcher.SearchMessages(ctx, query, f.caller)
		results, sections = r, []section{messageSection(r)}
	case f.entity == history.CategoryCheckpoints:
		r := a.searcher.SearchCheckpoints(ctx, query, f.caller)
		results, sections = r, []section{checkpointSection(r)}
	default:
		return fmt.Errorf("unknown entity %q", f.entity)
	}

	if f.save && f.chatID == "" {
		if _, err := a.history.Add(ctx, f.caller, query, f.entity); err != nil {
			return fmt.Errorf("failed to record history: %w", err)
		}
	}

	if f.json {
		return writeJSON(out, results)
	}
	for _, s := range sections {
		s.print(out)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// section is one titled block of text output
type section struct {
	title string
	lines []string
}

func (s section) print(w io.Writer) {
	fmt.Fprintf(w, "%s (%d)\n", s.title, len(s.lines))
	for _, l := range s.lines {
		fmt.Fprintf(w, "  %s\n", l)
	}
}

func companionSection(rs []types.CompanionResult) section {
	s := section{title: "Companions"}
	for _, r := range rs {
		line := r.Name
		if len(r.Tags) > 0 {
			names := make([]string, len(r.Tags))
			for i, t := range r.Tags {
				names[i] = t.Name
			}
			line += " [" + strings.Join(names, ", ") + "]"
		}
		s.lines = append(s.lines, line)
	}
	return s
}

func userSection(rs []types.UserResult) section {
	s := section{title: "Users"}
	for _, r := range rs {
		s.lines = append(s.lines, deref(r.Username, r.ID))
	}
	return s
}

func messageSection(rs []types.MessageResult) section {
	s := section{title: "Messages"}
	for _, r := range rs {
		s.lines = append(s.lines, fmt.Sprintf("%s: %s", r.Chat.Companion.Name, r.Content))
	}
	return s
}

func checkpointSection(rs []types.CheckpointResult) section {
	s := section{title: "Checkpoints"}
	for _, r := range rs {
		s.lines = append(s.lines, fmt.Sprintf("%s (used %d)", r.Title, r.UsageCount))
	}
	return s
}

func chatSection(rs []types.ChatMessageResult) section {
	s := section{title: "Messages"}
	for _, r := range rs {
		s.lines = append(s.lines, fmt.Sprintf("%s: %s", deref(r.Sender.Username, r.Sender.ID), r.Content))
	}
	return s
}

func deref(p *string, fallback string) string {
	if p == nil || *p == "" {
		return fallback
	}
	return *p
}
