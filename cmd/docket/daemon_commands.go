package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"docket/internal/api"
	"docket/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var withChecks bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			err := ctx.withClient(cmd.Context(), func(reqCtx context.Context, client *api.Client) error {
				status, err := client.Status(reqCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Daemon:  running (pid %d)\n", status.PID)
				fmt.Fprintf(out, "Paused:  %s\n", yesNo(status.Paused))
				fmt.Fprintf(out, "Queue:   %d total (%d pending, %d active, %d complete, %d error)\n",
					status.Queue.Total, status.Queue.Pending, status.Queue.Active,
					status.Queue.Complete, status.Queue.Error)
				fmt.Fprintf(out, "Lock:    %s\n", status.LockFilePath)
				fmt.Fprintf(out, "Journal: %s\n", status.HistoryDBPath)
				return nil
			})
			if err != nil {
				fmt.Fprintln(out, "Daemon:  not running")
			}

			if !withChecks {
				return nil
			}
			cfg, cfgErr := ctx.ensureConfig()
			if cfgErr != nil {
				return cfgErr
			}
			fmt.Fprintln(out)
			rows := make([][]string, 0, 5)
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				state := "FAIL"
				if result.Passed {
					state = "ok"
				}
				rows = append(rows, []string{result.Name, state, result.Detail})
			}
			printRows(cmd, []string{"Check", "State", "Detail"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft})
			return nil
		},
	}
	cmd.Flags().BoolVar(&withChecks, "checks", false, "Also run environment preflight checks")
	return cmd
}

func newPauseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause dispatching; in-flight extractions finish",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd.Context(), func(reqCtx context.Context, client *api.Client) error {
				resp, err := client.Pause(reqCtx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}

func newResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume dispatching",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd.Context(), func(reqCtx context.Context, client *api.Client) error {
				resp, err := client.Resume(reqCtx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled extraction outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd.Context(), func(reqCtx context.Context, client *api.Client) error {
				entries, err := client.HistoryList(reqCtx, limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "History is empty")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					detail := entry.ErrorMessage
					if detail == "" {
						detail = entry.SourcePath
					}
					rows = append(rows, []string{
						shortID(entry.ItemID),
						entry.Title,
						entry.Outcome,
						strconv.Itoa(entry.Retries),
						entry.RecordedAt.Local().Format("2006-01-02 15:04:05"),
						detail,
					})
				}
				printRows(cmd,
					[]string{"Item", "Title", "Outcome", "Retries", "Recorded", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
