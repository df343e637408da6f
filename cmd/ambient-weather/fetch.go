package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/i474232898/ambient-weather/internal/common"
	"github.com/i474232898/ambient-weather/pkg/ambient"
)

func newLatestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Print the most recent observation of the configured device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup()
			if err != nil {
				return err
			}

			obs, err := a.client.GetLatest(cmd.Context(), a.creds)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), obs)
		},
	}
}

func newHistoricCmd() *cobra.Command {
	var (
		end   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "historic",
		Short: "Print historic observations of the configured device, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := historicQuery(end, limit)
			if err != nil {
				return err
			}

			a, err := setup()
			if err != nil {
				return err
			}

			records, err := a.client.GetHistoric(cmd.Context(), a.creds, q)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().StringVar(&end, "end", "", "latest timestamp to include (RFC3339 or unix seconds)")
	cmd.Flags().IntVar(&limit, "limit", 0, fmt.Sprintf("number of records, 1-%d (vendor default when unset)", ambient.MaxHistoricLimit))
	return cmd
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the account's devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup()
			if err != nil {
				return err
			}

			devices, err := a.client.ListDevices(cmd.Context(), a.creds)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), devices)
		},
	}
}

// historicQuery builds and validates the query from flag values. Empty or
// zero flags are left unset.
func historicQuery(end string, limit int) (ambient.HistoricQuery, error) {
	q := ambient.HistoricQuery{Limit: limit}
	if end != "" {
		ts, err := common.ParseTime(end)
		if err != nil {
			return q, fmt.Errorf("--end: %w", err)
		}
		q.EndDate = ts
	}
	return q, q.Validate()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
