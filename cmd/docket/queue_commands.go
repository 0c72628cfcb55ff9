package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"docket/internal/api"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the extraction queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd.Context(), func(reqCtx context.Context, client *api.Client) error {
				status, err := client.Status(reqCtx)
				if err != nil {
					return err
				}
				if status.Queue.Total == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				rows := [][]string{
					{"pending", strconv.Itoa(status.Queue.Pending)},
					{"active", strconv.Itoa(status.Queue.Active)},
					{"complete", strconv.Itoa(status.Queue.Complete)},
					{"error", strconv.Itoa(status.Queue.Error)},
					{"total", strconv.Itoa(status.Queue.Total)},
				}
				printRows(cmd, []string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd.Context(), func(reqCtx context.Context, client *api.Client) error {
				items, err := client.QueueList(reqCtx)
				if err != nil {
					return err
				}

				filter := strings.ToLower(strings.TrimSpace(statusFilter))
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					if filter != "" && item.Status != filter {
						continue
					}
					detail := item.ErrorMessage
					if detail == "" {
						detail = item.SourcePath
					}
					rows = append(rows, []string{
						shortID(item.ID),
						item.Title,
						item.Status,
						strconv.Itoa(item.Retries),
						item.UpdatedAt.Local().Format(time.TimeOnly),
						detail,
					})
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matching queue items")
					return nil
				}
				printRows(cmd,
					[]string{"ID", "Title", "Status", "Retries", "Updated", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show items with this status")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Requeue an item with a fresh retry budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd.Context(), func(reqCtx context.Context, client *api.Client) error {
				id, err := resolveItemID(reqCtx, client, args[0])
				if err != nil {
					return err
				}
				resp, err := client.Retry(reqCtx, id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an item from the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd.Context(), func(reqCtx context.Context, client *api.Client) error {
				id, err := resolveItemID(reqCtx, client, args[0])
				if err != nil {
					return err
				}
				resp, err := client.Remove(reqCtx, id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every item from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd.Context(), func(reqCtx context.Context, client *api.Client) error {
				resp, err := client.Clear(reqCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d item(s)\n", resp.Dropped)
				return nil
			})
		},
	}
}

// resolveItemID accepts either a full item id or an unambiguous prefix.
func resolveItemID(ctx context.Context, client *api.Client, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("item id is required")
	}
	items, err := client.QueueList(ctx)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, item := range items {
		if item.ID == arg {
			return item.ID, nil
		}
		if strings.HasPrefix(item.ID, arg) {
			matches = append(matches, item.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		// Fall through to the full id: the daemon answers not-found.
		return arg, nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d matches)", arg, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printRows(cmd *cobra.Command, headers []string, rows [][]string, aligns []columnAlignment) {
	out := cmd.OutOrStdout()
	if stdoutIsTerminal() {
		fmt.Fprintln(out, renderTable(headers, rows, aligns))
		return
	}
	for _, row := range rows {
		fmt.Fprintln(out, strings.Join(row, "\t"))
	}
}
