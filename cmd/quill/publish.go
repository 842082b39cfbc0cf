package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aretw0/quill/pkg/core"
)

// publishCmd represents the publish command
var publishCmd = &cobra.Command{
	Use:   "publish [id]",
	Short: "Publish a document as a blog post",
	Long: `Publish a document to the configured blog. A document without a cid in
its header becomes a new post; one with a cid updates that post. The header
is rewritten with the values that were sent.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]

		req, err := publishRequest(cmd.Flags())
		if err != nil {
			fatal("Invalid flags", err)
		}

		svc, _ := openService()

		ctx := context.Background()
		if msg, _ := cmd.Flags().GetString("message"); msg != "" {
			ctx = context.WithValue(ctx, core.ChangeReasonKey, msg)
		}

		res, err := svc.Publish(ctx, id, req)
		if err != nil {
			fatal("Failed to publish", err)
		}

		if res.Created {
			fmt.Printf("Created post %s from '%s'.\n", res.RemoteID, id)
		} else {
			fmt.Printf("Updated post %s from '%s'.\n", res.RemoteID, id)
		}
	},
}

// addPublishFlags registers the header overrides.
func addPublishFlags(f *pflag.FlagSet) {
	f.String("title", "", "Post title (overrides the header)")
	f.String("slug", "", "Post slug (overrides the header)")
	f.StringSlice("tags", nil, "Comma-separated tags (overrides the header)")
	f.StringSlice("categories", nil, "Comma-separated categories (overrides the header)")
	f.Bool("draft", false, "Save as draft instead of publishing")
	f.String("date", "", "Post date, e.g. \"2024-05-01 10:30\"")
	f.Bool("keep-date", false, "Keep the dateCreated already in the header")
	f.StringP("message", "m", "", "Commit message when versioning is enabled")
}

// publishRequest turns the flags that were set into overrides.
func publishRequest(f *pflag.FlagSet) (core.PublishRequest, error) {
	var req core.PublishRequest
	var err error

	if req.KeepDate, err = f.GetBool("keep-date"); err != nil {
		return req, err
	}
	if f.Changed("title") {
		title, _ := f.GetString("title")
		req.Title = &title
	}
	if f.Changed("slug") {
		slug, _ := f.GetString("slug")
		req.Slug = &slug
	}
	if f.Changed("tags") {
		req.Tags, _ = f.GetStringSlice("tags")
	}
	if f.Changed("categories") {
		req.Categories, _ = f.GetStringSlice("categories")
	}
	if f.Changed("draft") {
		draft, _ := f.GetBool("draft")
		req.Draft = &draft
	}
	if f.Changed("date") {
		raw, _ := f.GetString("date")
		t, ok := core.ParseDate(raw)
		if !ok {
			return core.PublishRequest{}, fmt.Errorf("unrecognized date %q", raw)
		}
		req.Date = &t
	}
	return req, nil
}

func init() {
	rootCmd.AddCommand(publishCmd)
	addPublishFlags(publishCmd.Flags())
}
