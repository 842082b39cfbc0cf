package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pingTimeout time.Duration

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the endpoint answers XML-RPC calls",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc, s := openService()

		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()

		methods, err := svc.Ping(ctx)
		if err != nil {
			fatal("Endpoint check failed", err)
		}
		fmt.Printf("%s answers with %d methods.\n", s.Endpoint, len(methods))
		if verbose {
			for _, m := range methods {
				fmt.Println("  " + m)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().DurationVar(&pingTimeout, "timeout", 15*time.Second, "Give up after this long")
}
