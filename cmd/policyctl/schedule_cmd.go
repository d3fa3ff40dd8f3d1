package main

import (
	"context"
	"net/http"
	"net/url"

	"github.com/phrazzld/policyhub-api/internal/api"
	"github.com/phrazzld/policyhub-api/internal/task"
	"github.com/spf13/cobra"
)

// withClient runs fn against the server named by --server.
func withClient(cmd *cobra.Command, root *rootOptions, fn func(ctx context.Context, c *apiClient) (any, error)) error {
	client, err := newAPIClient(root.serverURL, root.timeout)
	if err != nil {
		return err
	}

	out, err := fn(cmd.Context(), client)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func newScheduleCmd(root *rootOptions) *cobra.Command {
	var req api.ScheduleMessageRequest

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule a message for delivery at a future date and time",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, root, func(ctx context.Context, c *apiClient) (any, error) {
				var resp api.ScheduledMessageResponse
				err := c.doJSON(ctx, http.MethodPost, "/api/schedule-message", nil, req, &resp)
				return resp, err
			})
		},
	}

	cmd.Flags().StringVar(&req.Message, "message", "", "message text (required)")
	cmd.Flags().StringVar(&req.Day, "day", "", "delivery date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&req.Time, "time", "", "delivery time, HH:MM in the server's timezone (required)")
	_ = cmd.MarkFlagRequired("message")
	_ = cmd.MarkFlagRequired("day")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func newListCmd(root *rootOptions) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scheduled messages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, root, func(ctx context.Context, c *apiClient) (any, error) {
				var query url.Values
				if status != "" {
					query = url.Values{"status": {status}}
				}
				var resp api.ScheduledMessageListResponse
				err := c.doJSON(ctx, http.MethodGet, "/api/scheduled-messages", query, nil, &resp)
				return resp, err
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only list messages with this status (pending, executed, failed, cancelled, expired)")
	return cmd
}

func newCancelCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a pending scheduled message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, root, func(ctx context.Context, c *apiClient) (any, error) {
				var resp api.CancelResponse
				err := c.doJSON(ctx, http.MethodDelete, "/api/scheduled-messages/"+url.PathEscape(args[0]), nil, nil, &resp)
				return resp, err
			})
		},
	}
}

func newStatsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show scheduled message counts by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, root, func(ctx context.Context, c *apiClient) (any, error) {
				var resp task.SchedulerStats
				err := c.doJSON(ctx, http.MethodGet, "/api/scheduler/stats", nil, nil, &resp)
				return resp, err
			})
		},
	}
}
