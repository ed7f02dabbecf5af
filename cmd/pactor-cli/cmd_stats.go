package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show contract, version, and approval counts for your org",
		Run: func(cmd *cobra.Command, args []string) {
			stats, err := apiClient.Stats(context.Background())
			if err != nil {
				fatal("get stats", err)
			}
			if flagFmt == "table" {
				headers := []string{"METRIC", "COUNT"}
				rows := [][]string{
					{"contracts", fmt.Sprintf("%d", stats.Contracts)},
					{"versions", fmt.Sprintf("%d", stats.Versions)},
					{"open_approvals", fmt.Sprintf("%d", stats.OpenApprovals)},
					{"audit_entries_30d", fmt.Sprintf("%d", stats.AuditEntries30)},
				}
				for status, n := range stats.ByStatus {
					rows = append(rows, []string{"status:" + status, fmt.Sprintf("%d", n)})
				}
				formatTable(headers, rows)
				return
			}
			output(stats, "")
		},
	}
}
