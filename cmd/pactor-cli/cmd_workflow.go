package main

import (
	"context"

	"github.com/pactorhq/pactor/client"
	"github.com/spf13/cobra"
)

// workflowActionCmds returns one subcommand per workflow transition.
// They all hang off the contract command. The closures read apiClient
// at Run time, after PersistentPreRun has built it.
func workflowActionCmds() []*cobra.Command {
	return []*cobra.Command{
		simpleActionCmd("submit", "Submit a draft for legal review", func(ctx context.Context, id string) (*client.ActionResponse, error) {
			return apiClient.Workflow.Submit(ctx, id)
		}),
		commentActionCmd("approve", "Approve the pending review stage", func(ctx context.Context, id string, c *string) (*client.ActionResponse, error) {
			return apiClient.Workflow.Approve(ctx, id, c)
		}),
		commentActionCmd("reject", "Reject the pending review stage", func(ctx context.Context, id string, c *string) (*client.ActionResponse, error) {
			return apiClient.Workflow.Reject(ctx, id, c)
		}),
		commentActionCmd("request-revision", "Send the contract back to draft for edits", func(ctx context.Context, id string, c *string) (*client.ActionResponse, error) {
			return apiClient.Workflow.RequestRevision(ctx, id, c)
		}),
		escalateCmd(),
		escalateLegalHeadCmd(),
		commentActionCmd("return", "Return an escalated contract to the manager queue", func(ctx context.Context, id string, c *string) (*client.ActionResponse, error) {
			return apiClient.Workflow.ReturnToManager(ctx, id, c)
		}),
		simpleActionCmd("send", "Send the approved contract to the counterparty", func(ctx context.Context, id string) (*client.ActionResponse, error) {
			return apiClient.Workflow.Send(ctx, id)
		}),
		simpleActionCmd("upload-signed", "Record the countersigned document", func(ctx context.Context, id string) (*client.ActionResponse, error) {
			return apiClient.Workflow.UploadSigned(ctx, id)
		}),
		simpleActionCmd("activate", "Activate a signed contract", func(ctx context.Context, id string) (*client.ActionResponse, error) {
			return apiClient.Workflow.Activate(ctx, id)
		}),
		simpleActionCmd("terminate", "Terminate an active contract", func(ctx context.Context, id string) (*client.ActionResponse, error) {
			return apiClient.Workflow.Terminate(ctx, id)
		}),
		simpleActionCmd("expire", "Mark a past-end-date contract as expired", func(ctx context.Context, id string) (*client.ActionResponse, error) {
			return apiClient.Workflow.Expire(ctx, id)
		}),
	}
}

func simpleActionCmd(use, short string, call func(context.Context, string) (*client.ActionResponse, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := call(context.Background(), args[0])
			if err != nil {
				fatal(use, err)
			}
			output(resp, resp.Contract.ID)
		},
	}
}

func commentActionCmd(use, short string, call func(context.Context, string, *string) (*client.ActionResponse, error)) *cobra.Command {
	var comment string
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var c *string
			if comment != "" {
				c = &comment
			}
			resp, err := call(context.Background(), args[0], c)
			if err != nil {
				fatal(use, err)
			}
			output(resp, resp.Contract.ID)
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "Reviewer comment")
	return cmd
}

func escalateCmd() *cobra.Command {
	var escalatedTo string
	cmd := &cobra.Command{
		Use:   "escalate <id>",
		Short: "Escalate the pending legal review to a manager",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := apiClient.Workflow.Escalate(context.Background(), args[0], escalatedTo)
			if err != nil {
				fatal("escalate", err)
			}
			output(resp, resp.Contract.ID)
		},
	}
	cmd.Flags().StringVar(&escalatedTo, "to", "", "User ID to escalate to (required)")
	cmd.MarkFlagRequired("to")
	return cmd
}

func escalateLegalHeadCmd() *cobra.Command {
	var legalHead, reason string
	cmd := &cobra.Command{
		Use:   "escalate-legal-head <id>",
		Short: "Escalate the pending legal review to the legal head",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var r *string
			if reason != "" {
				r = &reason
			}
			resp, err := apiClient.Workflow.EscalateToLegalHead(context.Background(), args[0], legalHead, r)
			if err != nil {
				fatal("escalate-legal-head", err)
			}
			output(resp, resp.Contract.ID)
		},
	}
	cmd.Flags().StringVar(&legalHead, "to", "", "Legal head user ID (required)")
	cmd.Flags().StringVar(&reason, "reason", "", "Escalation reason")
	cmd.MarkFlagRequired("to")
	return cmd
}
