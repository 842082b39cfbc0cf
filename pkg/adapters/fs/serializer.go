package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/quill/pkg/core"
	"github.com/aretw0/quill/pkg/frontmatter"
)

// ContentKey holds the document body in JSON and YAML renditions.
const ContentKey = "content"

// Serializer defines how to read and write a specific file format.
type Serializer interface {
	// Parse reads from r and returns a Document.
	Parse(r io.Reader) (*core.Document, error)
	// Serialize converts the Document to bytes.
	Serialize(doc core.Document) ([]byte, error)
}

// DefaultSerializers returns the standard set of serializers, keyed by extension.
func DefaultSerializers() map[string]Serializer {
	md := NewMarkdownSerializer()
	y := NewYAMLSerializer()
	return map[string]Serializer{
		".md":       md,
		".markdown": md,
		".json":     NewJSONSerializer(),
		".yaml":     y,
		".yml":      y,
	}
}

// SerializerFor returns the serializer for a format name or extension
// ("md", ".json", "yaml").
func SerializerFor(format string) (Serializer, error) {
	if format == "" {
		format = ".md"
	}
	if format[0] != '.' {
		format = "." + format
	}
	s, ok := DefaultSerializers()[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return s, nil
}

// --- Markdown Serializer ---

// MarkdownSerializer reads and writes documents with a frontmatter header.
type MarkdownSerializer struct{}

// NewMarkdownSerializer creates a new Markdown serializer.
func NewMarkdownSerializer() *MarkdownSerializer {
	return &MarkdownSerializer{}
}

func (s *MarkdownSerializer) Parse(r io.Reader) (*core.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc := frontmatter.Parse(string(data))
	return &doc, nil
}

// Serialize writes the header only when there is metadata to put in it.
func (s *MarkdownSerializer) Serialize(doc core.Document) ([]byte, error) {
	if doc.Metadata.Len() == 0 {
		return []byte(doc.Content), nil
	}
	return []byte(frontmatter.Compose(doc)), nil
}

// --- JSON Serializer ---

// JSONSerializer writes a flat object: metadata keys in order, then "content".
type JSONSerializer struct{}

// NewJSONSerializer creates a new JSON serializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

func (s *JSONSerializer) Parse(r io.Reader) (*core.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	payload := core.NewMetadata()
	if err := payload.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return splitContent(payload), nil
}

func (s *JSONSerializer) Serialize(doc core.Document) ([]byte, error) {
	data, err := withContent(doc).MarshalJSON()
	if err != nil {
		return nil, err
	}
	return indentJSON(data)
}

// --- YAML Serializer ---

// YAMLSerializer writes a flat mapping: metadata keys in order, then "content".
type YAMLSerializer struct{}

// NewYAMLSerializer creates a new YAML serializer.
func NewYAMLSerializer() *YAMLSerializer {
	return &YAMLSerializer{}
}

func (s *YAMLSerializer) Parse(r io.Reader) (*core.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	payload := core.NewMetadata()
	if err := yaml.Unmarshal(data, payload); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	return splitContent(payload), nil
}

func (s *YAMLSerializer) Serialize(doc core.Document) ([]byte, error) {
	return yaml.Marshal(withContent(doc))
}

// --- Helpers ---

func withContent(doc core.Document) *core.Metadata {
	payload := doc.Metadata.Clone()
	payload.Delete(ContentKey)
	payload.Set(ContentKey, doc.Content)
	return payload
}

func splitContent(payload *core.Metadata) *core.Document {
	content := payload.GetString(ContentKey)
	payload.Delete(ContentKey)
	return &core.Document{Metadata: payload, Content: content}
}

func indentJSON(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
