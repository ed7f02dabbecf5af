package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/pactorhq/pactor/client"
	"github.com/spf13/cobra"
)

func newVersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Inspect contract version history",
	}
	cmd.AddCommand(versionsListCmd())
	cmd.AddCommand(versionsGetCmd())
	cmd.AddCommand(versionsChangelogCmd())
	cmd.AddCommand(versionsCompareCmd())
	return cmd
}

// fieldValueString renders a tagged field value for table cells.
func fieldValueString(v client.FieldValue) string {
	switch v.Kind {
	case "text":
		return v.Text
	case "number":
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case "money":
		return fmt.Sprintf("%s %s", v.Currency, strconv.FormatFloat(v.Number, 'f', 2, 64))
	case "date":
		if v.Date != nil {
			return v.Date.Format("2006-01-02")
		}
		return ""
	default:
		return string(v.Raw)
	}
}

func parseSeqArg(arg string) int {
	seq, err := strconv.Atoi(arg)
	if err != nil || seq < 1 {
		fmt.Fprintf(os.Stderr, "Error: sequence must be a positive integer, got %q\n", arg)
		os.Exit(1)
	}
	return seq
}

func versionsListCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list <contract-id>",
		Short: "List versions of a contract, newest first",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			versions, _, err := apiClient.Versions.List(context.Background(), args[0], limit, offset)
			if err != nil {
				fatal("list versions", err)
			}
			if flagFmt == "table" {
				headers := []string{"SEQ", "ID", "CREATED_BY", "CREATED_AT"}
				var rows [][]string
				for _, v := range versions {
					rows = append(rows, []string{
						fmt.Sprintf("%d", v.Sequence), v.ID, v.CreatedByUserID,
						v.CreatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				formatTable(headers, rows)
				return
			}
			if flagFmt == "quiet" {
				for _, v := range versions {
					fmt.Println(v.ID)
				}
				return
			}
			output(versions, "")
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}

func versionsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <contract-id> <sequence>",
		Short: "Get one version snapshot",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			v, err := apiClient.Versions.Get(context.Background(), args[0], parseSeqArg(args[1]))
			if err != nil {
				fatal("get version", err)
			}
			output(v, v.ID)
		},
	}
}

func versionsChangelogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "changelog <contract-id> <sequence>",
		Short: "Show what changed in a version relative to its predecessor",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			entry, err := apiClient.Versions.Changelog(context.Background(), args[0], parseSeqArg(args[1]))
			if err != nil {
				fatal("get changelog", err)
			}
			output(entry, entry.ID)
		},
	}
}

func versionsCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <contract-id> <from> <to>",
		Short: "Diff two arbitrary versions of a contract",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			from := parseSeqArg(args[1])
			to := parseSeqArg(args[2])
			entry, err := apiClient.Versions.Compare(context.Background(), args[0], from, to)
			if err != nil {
				fatal("compare versions", err)
			}
			if flagFmt == "table" {
				headers := []string{"FIELD", "CHANGE", "OLD", "NEW"}
				var rows [][]string
				for _, fc := range entry.FieldChanges {
					oldVal, newVal := "", ""
					if fc.OldValue != nil {
						oldVal = fieldValueString(*fc.OldValue)
					}
					if fc.NewValue != nil {
						newVal = fieldValueString(*fc.NewValue)
					}
					rows = append(rows, []string{fc.Field, fc.ChangeType, oldVal, newVal})
				}
				formatTable(headers, rows)
				return
			}
			output(entry, entry.ID)
		},
	}
}
