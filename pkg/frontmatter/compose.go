package frontmatter

import "github.com/aretw0/quill/pkg/core"

// Rebuild places a header written from meta above body.
func Rebuild(meta *core.Metadata, body string) string {
	return Fence + "\n" + Write(meta) + "\n" + Fence + "\n\n" + body
}

// Compose serializes a document. It is the inverse of Parse.
func Compose(doc core.Document) string {
	return Rebuild(doc.Metadata, doc.Content)
}
