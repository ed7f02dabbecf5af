package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pactorhq/pactor/client"
	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query and manage the audit log",
	}
	cmd.AddCommand(auditQueryCmd())
	cmd.AddCommand(auditPurgeCmd())
	return cmd
}

func auditQueryCmd() *cobra.Command {
	var (
		targetType string
		targetID   string
		action     string
		actor      string
		since      string
		limit      int
		offset     int
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query audit entries, newest first",
		Run: func(cmd *cobra.Command, args []string) {
			opts := &client.AuditQueryOptions{
				TargetType: targetType,
				TargetID:   targetID,
				Action:     action,
				Actor:      actor,
				Limit:      limit,
				Offset:     offset,
			}
			if since != "" {
				t, err := time.Parse(time.RFC3339, since)
				if err != nil {
					fatal("parse since", err)
				}
				opts.Since = &t
			}
			entries, _, err := apiClient.Audit.Query(context.Background(), opts)
			if err != nil {
				fatal("query audit", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "ACTION", "TARGET", "ACTOR", "AT"}
				var rows [][]string
				for _, e := range entries {
					rows = append(rows, []string{
						fmt.Sprintf("%d", e.ID), e.Action,
						fmt.Sprintf("%s/%s", e.TargetType, e.TargetID),
						e.Actor, e.CreatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				formatTable(headers, rows)
				return
			}
			output(entries, "")
		},
	}
	cmd.Flags().StringVar(&targetType, "target-type", "", "Filter by target type (contract, version, approval)")
	cmd.Flags().StringVar(&targetID, "target-id", "", "Filter by target ID")
	cmd.Flags().StringVar(&action, "action", "", "Filter by action name")
	cmd.Flags().StringVar(&actor, "actor", "", "Filter by acting user")
	cmd.Flags().StringVar(&since, "since", "", "Only entries at or after this RFC3339 timestamp")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}

func auditPurgeCmd() *cobra.Command {
	var retentionDays int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete audit entries older than the retention window",
		Run: func(cmd *cobra.Command, args []string) {
			deleted, err := apiClient.Audit.Purge(context.Background(), retentionDays)
			if err != nil {
				fatal("purge audit", err)
			}
			fmt.Printf("deleted %d entries\n", deleted)
		},
	}
	cmd.Flags().IntVar(&retentionDays, "retention-days", 365, "Keep entries newer than this many days")
	return cmd
}
