// Package quill is the composition root of the quill publisher.
//
// It connects the core publishing logic with the infrastructure adapters
// using the hexagonal layout: a directory of Markdown documents on one side,
// a MetaWeblog XML-RPC endpoint (Typecho, WordPress) on the other.
//
// A document is a Markdown file with a small metadata header. Publishing
// sends it as a post and writes the outcome back into the header, so the
// next publish of the same file edits the post instead of creating one:
//
//	---
//	title: "Hello World"
//	categories:
//	  - Notes
//	cid: 42
//	slug: hello-world
//	---
//
//	Body text.
//
// Usage:
//
//	s, err := quill.LoadSettings("")
//	svc, err := quill.New("./posts",
//		quill.WithSettings(s),
//		quill.WithLogger(logger),
//	)
//
//	res, err := svc.Publish(ctx, "hello-world", core.PublishRequest{})
package quill
