package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/haru-search/pkg/types"
)

func newTagsCmd(open opener) *cobra.Command {
	var (
		companionsOf string
		caller       string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "tags [query]",
		Short: "List or search tags",
		Long: `Lists every tag with its companion count, or only the tags whose
name contains the query. With --companions, lists the companions carrying
that tag which the caller can see.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if companionsOf != "" {
				companions := a.searcher.SearchCompanionsByTag(ctx, companionsOf, caller)
				if asJSON {
					return writeJSON(out, companions)
				}
				companionSection(companions).print(out)
				return nil
			}

			var tags []types.TagResult
			if len(args) == 1 {
				tags, err = a.searcher.SearchTags(ctx, args[0])
			} else {
				tags, err = a.searcher.ListTags(ctx)
			}
			if err != nil {
				return fmt.Errorf("tag lookup failed: %w", err)
			}

			if asJSON {
				return writeJSON(out, tags)
			}
			s := section{title: "Tags"}
			for _, t := range tags {
				s.lines = append(s.lines, fmt.Sprintf("%s (%d)", t.Name, t.CompanionCount))
			}
			s.print(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&companionsOf, "companions", "", "list companions carrying this tag")
	cmd.Flags().StringVar(&caller, "caller", "", "user id to list companions as")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
