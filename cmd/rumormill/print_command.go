package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"rumormill/internal/apiclient"
)

func newPrintCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Queue a rumour print as if the lever were pulled",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().TriggerPrint(cmd.Context())
			if err != nil {
				var apiErr *apiclient.APIError
				if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
					return errors.New("print queue is full; try again in a moment")
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Print queued (%d pending)\n", resp.Pending)
			return nil
		},
	}
}
