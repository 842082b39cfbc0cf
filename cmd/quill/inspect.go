package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the internal state of the service as JSON",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc, _ := openService()

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(svc.State()); err != nil {
			fatal("Failed to encode JSON", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
