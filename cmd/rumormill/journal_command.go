package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newJournalCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent print dispatches",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := ctx.client().Journal(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, entries)
			}

			stdout := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(stdout, "Journal is empty")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				title := entry.Title
				if title == "" {
					title = "-"
				}
				rows = append(rows, []string{
					entry.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					title,
					entry.Outcome,
					entry.Source,
				})
			}
			headers := []string{"Time", "Rumour", "Outcome", "Source"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}
			fmt.Fprintln(stdout, renderTable(headers, rows, aligns))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit journal entries as JSON")
	cmd.AddCommand(newJournalClearCommand(ctx))
	return cmd
}

func newJournalClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.client().ClearJournal(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Journal cleared")
			return nil
		},
	}
}
