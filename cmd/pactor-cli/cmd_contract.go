package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pactorhq/pactor/client"
	"github.com/spf13/cobra"
)

func newContractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Manage contracts",
	}
	cmd.AddCommand(contractCreateCmd())
	cmd.AddCommand(contractGetCmd())
	cmd.AddCommand(contractUpdateCmd())
	cmd.AddCommand(contractListCmd())
	cmd.AddCommand(contractApprovalsCmd())
	for _, c := range workflowActionCmds() {
		cmd.AddCommand(c)
	}
	return cmd
}

func contractCreateCmd() *cobra.Command {
	var (
		reference    string
		counterparty string
		email        string
		amount       float64
		startDate    string
		endDate      string
		description  string
		fieldsJSON   string
		annexure     string
		noFinance    bool
	)
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a draft contract",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.CreateContractRequest{
				Title:             args[0],
				Reference:         reference,
				CounterpartyName:  counterparty,
				CounterpartyEmail: email,
				Description:       description,
				AnnexureData:      annexure,
			}
			if cmd.Flags().Changed("amount") {
				req.Amount = &amount
			}
			if startDate != "" {
				t, err := time.Parse("2006-01-02", startDate)
				if err != nil {
					fatal("parse start-date", err)
				}
				req.StartDate = &t
			}
			if endDate != "" {
				t, err := time.Parse("2006-01-02", endDate)
				if err != nil {
					fatal("parse end-date", err)
				}
				req.EndDate = &t
			}
			if fieldsJSON != "" {
				if err := json.Unmarshal([]byte(fieldsJSON), &req.FieldData); err != nil {
					fatal("parse fields", err)
				}
			}
			if noFinance {
				f := false
				req.FinanceRequired = &f
			}
			contract, err := apiClient.Contracts.Create(context.Background(), req)
			if err != nil {
				fatal("create contract", err)
			}
			output(contract, contract.ID)
		},
	}
	cmd.Flags().StringVar(&reference, "reference", "", "Contract reference (required)")
	cmd.Flags().StringVar(&counterparty, "counterparty", "", "Counterparty name (required)")
	cmd.Flags().StringVar(&email, "counterparty-email", "", "Counterparty email")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Contract amount")
	cmd.Flags().StringVar(&startDate, "start-date", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&fieldsJSON, "fields", "", "Tracked field data as JSON")
	cmd.Flags().StringVar(&annexure, "annexure", "", "Annexure body text")
	cmd.Flags().BoolVar(&noFinance, "no-finance", false, "Skip the finance approval stage")
	return cmd
}

func contractGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a contract by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			contract, err := apiClient.Contracts.Get(context.Background(), args[0])
			if err != nil {
				fatal("get contract", err)
			}
			output(contract, contract.ID)
		},
	}
}

func contractUpdateCmd() *cobra.Command {
	var (
		title       string
		description string
		fieldsJSON  string
		annexure    string
		expectedSeq int
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a draft contract (appends a new version)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.UpdateContractRequest{ExpectedSequence: expectedSeq}
			if title != "" {
				req.Title = &title
			}
			if description != "" {
				req.Description = &description
			}
			if fieldsJSON != "" {
				if err := json.Unmarshal([]byte(fieldsJSON), &req.FieldData); err != nil {
					fatal("parse fields", err)
				}
			}
			if cmd.Flags().Changed("annexure") {
				req.AnnexureData = &annexure
			}
			contract, err := apiClient.Contracts.Update(context.Background(), args[0], req)
			if err != nil {
				fatal("update contract", err)
			}
			output(contract, contract.ID)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Contract title")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&fieldsJSON, "fields", "", "Tracked field data as JSON")
	cmd.Flags().StringVar(&annexure, "annexure", "", "Annexure body text")
	cmd.Flags().IntVar(&expectedSeq, "expected-sequence", 0, "Optimistic lock token (0 = last writer wins)")
	return cmd
}

func contractListCmd() *cobra.Command {
	var status, counterparty, query string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contracts",
		Run: func(cmd *cobra.Command, args []string) {
			if limit < 0 {
				fmt.Fprintf(os.Stderr, "Error: --limit must be non-negative\n")
				os.Exit(1)
			}
			if offset < 0 {
				fmt.Fprintf(os.Stderr, "Error: --offset must be non-negative\n")
				os.Exit(1)
			}
			opts := &client.ContractListOptions{
				Status:       status,
				Counterparty: counterparty,
				Query:        query,
				Limit:        limit,
				Offset:       offset,
			}
			contracts, _, err := apiClient.Contracts.List(context.Background(), opts)
			if err != nil {
				fatal("list contracts", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "REFERENCE", "STATUS", "COUNTERPARTY", "SEQ"}
				var rows [][]string
				for _, c := range contracts {
					rows = append(rows, []string{c.ID, c.Reference, c.Status, c.CounterpartyName, fmt.Sprintf("%d", c.CurrentSequence)})
				}
				formatTable(headers, rows)
				return
			}
			if flagFmt == "quiet" {
				for _, c := range contracts {
					fmt.Println(c.ID)
				}
				return
			}
			output(contracts, "")
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&counterparty, "counterparty", "", "Filter by counterparty name")
	cmd.Flags().StringVar(&query, "query", "", "Search title and reference")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}

func contractApprovalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approvals <id>",
		Short: "List approval records for a contract",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			approvals, err := apiClient.Workflow.ListApprovals(context.Background(), args[0])
			if err != nil {
				fatal("list approvals", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "TYPE", "STATUS", "ACTED_BY"}
				var rows [][]string
				for _, a := range approvals {
					actedBy := ""
					if a.ActedByUserID != nil {
						actedBy = *a.ActedByUserID
					}
					rows = append(rows, []string{a.ID, a.Type, a.Status, actedBy})
				}
				formatTable(headers, rows)
				return
			}
			output(approvals, "")
		},
	}
}
