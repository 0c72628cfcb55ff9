package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docket/internal/api"
	"docket/internal/config"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Enqueue a file for extraction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("source file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("source %s is a directory", path)
			}

			return ctx.withClient(cmd.Context(), func(reqCtx context.Context, client *api.Client) error {
				item, err := client.Add(reqCtx, api.AddRequest{SourcePath: path, Title: title})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %q as %s\n", item.Title, shortID(item.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Display title (derived from the file name when omitted)")
	return cmd
}
