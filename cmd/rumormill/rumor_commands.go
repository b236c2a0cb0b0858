package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rumormill/internal/apiclient"
	"rumormill/internal/logging"
	"rumormill/internal/rumor"
	"rumormill/internal/store"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var personFilter string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored rumours",
		RunE: func(cmd *cobra.Command, args []string) error {
			rumors, err := fetchRumors(cmd.Context(), ctx, personFilter)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, rumors)
			}

			stdout := cmd.OutOrStdout()
			if len(rumors) == 0 {
				fmt.Fprintln(stdout, "No rumours stored")
				return nil
			}
			rows := make([][]string, 0, len(rumors))
			for _, r := range rumors {
				rows = append(rows, []string{
					strconv.FormatInt(r.ID, 10),
					r.Title,
					r.People,
					yesNo(r.Active),
					fmt.Sprintf("%d/%d", r.PrintedCount, r.MaxPrints),
				})
			}
			headers := []string{"ID", "Title", "People", "Active", "Prints"}
			aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight}
			fmt.Fprintln(stdout, renderTable(headers, rows, aligns))
			return nil
		},
	}
	cmd.Flags().StringVar(&personFilter, "person", "", "Only show rumours mentioning this person")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit rumours as JSON")
	return cmd
}

// fetchRumors prefers the daemon so counts are live; when nothing answers it
// reads the snapshot file directly.
func fetchRumors(cmdCtx context.Context, ctx *commandContext, filter string) ([]rumor.Rumor, error) {
	reqCtx, cancel := context.WithTimeout(cmdCtx, 5*time.Second)
	defer cancel()

	rumors, err := ctx.client().ListRumors(reqCtx, filter)
	if err == nil {
		return rumors, nil
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return nil, err
	}

	cfg := ctx.configValue()
	if cfg == nil {
		return nil, err
	}
	nop := logging.NewNop()
	registry := rumor.NewRegistry(store.NewFileStore(cfg.Paths.RumorsFile, nop), nop)
	if loadErr := registry.Load(reqCtx); loadErr != nil {
		return nil, err
	}
	return registry.List(reqCtx, filter)
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var (
		title     string
		textNL    string
		textEN    string
		people    string
		maxPrints int
		inactive  bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a rumour",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, field := range []struct {
				name  string
				value string
			}{
				{"--title", title},
				{"--text-nl", textNL},
				{"--text-en", textEN},
				{"--people", people},
			} {
				if strings.TrimSpace(field.value) == "" {
					return fmt.Errorf("%s is required", field.name)
				}
			}

			patch := rumor.Patch{
				Title:  &title,
				TextNL: &textNL,
				TextEN: &textEN,
				People: &people,
			}
			if cmd.Flags().Changed("max-prints") {
				patch.MaxPrints = &maxPrints
			}
			if inactive {
				active := false
				patch.Active = &active
			}

			created, err := ctx.client().CreateRumor(cmd.Context(), patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added rumour %d: %s\n", created.ID, created.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Rumour title")
	cmd.Flags().StringVar(&textNL, "text-nl", "", "Rumour text in Dutch")
	cmd.Flags().StringVar(&textEN, "text-en", "", "Rumour text in English")
	cmd.Flags().StringVar(&people, "people", "", "Comma-separated people the rumour mentions")
	cmd.Flags().IntVar(&maxPrints, "max-prints", rumor.DefaultMaxPrints, "Print budget before the rumour retires")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "Add the rumour in a deactivated state")
	return cmd
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var (
		title     string
		textNL    string
		textEN    string
		people    string
		active    bool
		maxPrints int
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields on a rumour",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRumorID(args[0])
			if err != nil {
				return err
			}

			var patch rumor.Patch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("text-nl") {
				patch.TextNL = &textNL
			}
			if flags.Changed("text-en") {
				patch.TextEN = &textEN
			}
			if flags.Changed("people") {
				patch.People = &people
			}
			if flags.Changed("active") {
				patch.Active = &active
			}
			if flags.Changed("max-prints") {
				patch.MaxPrints = &maxPrints
			}
			if patch == (rumor.Patch{}) {
				return errors.New("nothing to update; pass at least one field flag")
			}

			updated, err := ctx.client().UpdateRumor(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated rumour %d: %s\n", updated.ID, updated.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Rumour title")
	cmd.Flags().StringVar(&textNL, "text-nl", "", "Rumour text in Dutch")
	cmd.Flags().StringVar(&textEN, "text-en", "", "Rumour text in English")
	cmd.Flags().StringVar(&people, "people", "", "Comma-separated people the rumour mentions")
	cmd.Flags().BoolVar(&active, "active", true, "Whether the rumour may be printed")
	cmd.Flags().IntVar(&maxPrints, "max-prints", rumor.DefaultMaxPrints, "Print budget before the rumour retires")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id> [<id>...]",
		Short: "Remove rumours",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseRumorIDs(args)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			for _, id := range ids {
				err := ctx.client().DeleteRumor(cmd.Context(), id)
				if isNotFound(err) {
					fmt.Fprintf(stdout, "Rumour %d not found\n", id)
					continue
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Rumour %d removed\n", id)
			}
			return nil
		},
	}
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "reset [<id>...]",
		Short: "Reset print counts so rumours become printable again",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			if all {
				if len(args) > 0 {
					return errors.New("--all does not take rumour ids")
				}
				if err := ctx.client().ResetAllCounts(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(stdout, "Reset all print counts")
				return nil
			}

			if len(args) == 0 {
				return errors.New("pass rumour ids or --all")
			}
			ids, err := parseRumorIDs(args)
			if err != nil {
				return err
			}
			for _, id := range ids {
				err := ctx.client().ResetCount(cmd.Context(), id)
				if isNotFound(err) {
					fmt.Fprintf(stdout, "Rumour %d not found\n", id)
					continue
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Reset print count for rumour %d\n", id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Reset every rumour's print count")
	return cmd
}

func parseRumorID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid rumour id %q", arg)
	}
	return id, nil
}

func parseRumorIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseRumorID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func isNotFound(err error) bool {
	var apiErr *apiclient.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
