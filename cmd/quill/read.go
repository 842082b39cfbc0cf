package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/quill/pkg/adapters/fs"
)

var (
	readFormat string
)

var readCmd = &cobra.Command{
	Use:   "read [id]",
	Short: "Read a document",
	Long:  `Read a document by its ID. Outputs Markdown with its header by default, or the whole document as JSON or YAML with --format.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		serializer, err := fs.SerializerFor(readFormat)
		if err != nil {
			fatal("Invalid format", err)
		}

		svc, _ := openService()
		doc, err := svc.GetDocument(context.Background(), args[0])
		if err != nil {
			fatal("Failed to read document", err)
		}

		out, err := serializer.Serialize(doc)
		if err != nil {
			fatal("Failed to encode document", err)
		}
		fmt.Fprint(os.Stdout, string(out))
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().StringVarP(&readFormat, "format", "f", "md", "Output format: md, json or yaml")
}
