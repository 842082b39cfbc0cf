// Package core holds the domain of quill: documents with a frontmatter
// header, the ports to the local store and to the remote blog, and the
// publish service that ties them together.
package core

import "time"

// Well-known metadata keys written back after a successful publish.
const (
	KeyTitle       = "title"
	KeySlug        = "slug"
	KeyTags        = "tags"
	KeyCategories  = "categories"
	KeyDraft       = "draft"
	KeyDateCreated = "dateCreated"
	KeyCID         = "cid"
)

// Document is a text file with an optional metadata header.
// Content is the body below the header and is never rewritten by quill.
type Document struct {
	ID       string    `json:"id" yaml:"id"`
	Metadata *Metadata `json:"metadata" yaml:"metadata"`
	Content  string    `json:"content" yaml:"content"`
}

// Post is the remote representation of a document.
type Post struct {
	Title       string
	Body        string
	Slug        string
	Tags        []string
	Categories  []string
	Draft       bool
	DateCreated time.Time
}

// EventType represents the type of change in the store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change in the store.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return string(e.Type) + " " + e.ID
}

type contextKey string

// ChangeReasonKey is the context key for passing the commit message/change reason.
const ChangeReasonKey contextKey = "change_reason"
