package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/quill/pkg/core"
)

var (
	listJSON      bool
	listPattern   string
	listPublished bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the documents under the root",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc, _ := openService()

		docs, err := svc.ListDocuments(context.Background(), listPattern)
		if err != nil {
			fatal("Failed to list documents", err)
		}

		filtered := make([]core.Document, 0, len(docs))
		for _, doc := range docs {
			if listPublished && doc.Metadata.GetString(core.KeyCID) == "" {
				continue
			}
			filtered = append(filtered, doc)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(filtered); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, doc := range filtered {
			line := doc.ID
			if cid := doc.Metadata.GetString(core.KeyCID); cid != "" {
				line += " [" + cid + "]"
			}
			if title := doc.Metadata.GetString(core.KeyTitle); title != "" {
				line += " - " + title
			}
			fmt.Println(line)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVarP(&listPattern, "pattern", "p", "", "Glob selecting documents (default \"**/*.md\")")
	listCmd.Flags().BoolVar(&listPublished, "published", false, "Only documents that carry a cid")
}
