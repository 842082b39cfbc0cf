// Package frontmatter reads and writes the restricted metadata header that
// quill keeps at the top of a document:
//
//	---
//	title: "Hello World"
//	tags:
//	  - go
//	  - xmlrpc
//	draft: false
//	---
//
//	Body text.
//
// Only flat keys with string, boolean and string-list values are supported.
// It is not a YAML implementation and never fails: malformed headers degrade
// to partial or empty metadata.
package frontmatter

import (
	"regexp"
	"strings"

	"github.com/aretw0/quill/pkg/core"
)

var (
	headerPattern = regexp.MustCompile(`^---\r?\n([\s\S]*?)\r?\n---(?:\r?\n|$)`)
	keyPattern    = regexp.MustCompile(`^([A-Za-z0-9_-]+):\s*(.*)$`)
	itemPattern   = regexp.MustCompile(`^\s*-\s*(.+)$`)
	linePattern   = regexp.MustCompile(`\r?\n`)
)

// blockState tracks whether "- item" lines extend a key.
// The zero value is noActiveKey.
type blockState struct {
	key    string
	active bool
}

var noActiveKey = blockState{}

func activeKey(name string) blockState {
	return blockState{key: name, active: true}
}

// Parse splits text into its metadata header and body.
// Text without a header yields empty metadata and the whole text as body.
func Parse(text string) core.Document {
	doc := core.Document{Metadata: core.NewMetadata(), Content: text}

	loc := headerPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return doc
	}

	header := text[loc[2]:loc[3]]
	body := text[loc[1]:]
	// One blank line separates the closing fence from the body.
	if strings.HasPrefix(body, "\r\n") {
		body = body[2:]
	} else if strings.HasPrefix(body, "\n") {
		body = body[1:]
	}

	doc.Metadata = ParseHeader(header)
	doc.Content = body
	return doc
}

// ParseHeader reads the lines between the fences.
func ParseHeader(header string) *core.Metadata {
	meta := core.NewMetadata()
	state := noActiveKey
	for _, line := range linePattern.Split(header, -1) {
		state = parseLine(meta, state, line)
	}
	return meta
}

func parseLine(meta *core.Metadata, state blockState, line string) blockState {
	if m := keyPattern.FindStringSubmatch(line); m != nil {
		key, value := m[1], m[2]
		switch {
		case value == "":
			// Following "- item" lines may turn this into a list.
			meta.Set(key, "")
			return activeKey(key)
		case strings.EqualFold(value, "true"):
			meta.Set(key, true)
		case strings.EqualFold(value, "false"):
			meta.Set(key, false)
		case len(value) >= 2 && value[0] == '[' && value[len(value)-1] == ']':
			meta.Set(key, splitInline(value[1:len(value)-1]))
		default:
			meta.Set(key, unquote(value))
		}
		return noActiveKey
	}

	if m := itemPattern.FindStringSubmatch(line); m != nil && state.active {
		items, _ := existingItems(meta, state.key)
		meta.Set(state.key, append(items, unquote(m[1])))
		return state
	}

	if strings.TrimSpace(line) != "" {
		return noActiveKey
	}
	return state
}

func existingItems(meta *core.Metadata, key string) ([]string, bool) {
	v, _ := meta.Get(key)
	items, ok := v.([]string)
	return items, ok
}

func splitInline(inner string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(inner, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, unquote(part))
		}
	}
	return items
}

// unquote strips one pair of matching quotes. Inside double quotes the
// writer's \" escape is undone.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first != last {
		return s
	}
	switch first {
	case '"':
		return strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`)
	case '\'':
		return s[1 : len(s)-1]
	}
	return s
}
