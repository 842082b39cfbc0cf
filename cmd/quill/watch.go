package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/quill/pkg/adapters/lifecycle"
)

var (
	watchPattern string
	watchDryRun  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Republish published documents when they change",
	Long: `Watch the document root and republish every changed document that
already carries a cid. With --dry-run, changes are printed instead.
Stops on Ctrl+C.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc, _ := openService()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if watchDryRun {
			events, err := svc.Watch(ctx, watchPattern)
			if err != nil {
				fatal("Failed to watch", err)
			}
			src := lifecycle.NewSource(events)
			if err := src.Start(ctx); err != nil {
				fatal("Failed to start event source", err)
			}
			for e := range src.Events() {
				fmt.Println(e.String())
			}
			return
		}

		slog.Info("watching for changes", "pattern", watchPattern)
		if err := svc.AutoUpdate(ctx, watchPattern); err != nil {
			fatal("Failed to watch", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchPattern, "pattern", "p", "", "Glob selecting documents (default \"**/*.md\")")
	watchCmd.Flags().BoolVar(&watchDryRun, "dry-run", false, "Print changes without publishing")
}
