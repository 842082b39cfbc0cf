package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultTitle is used when neither the request nor the document names a title.
const DefaultTitle = "Untitled"

// dateLayouts are tried in order when reading dateCreated from metadata.
var dateLayouts = []string{
	"20060102T15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// PublishRequest overrides the values read from the document header.
// Nil fields keep the document's values.
type PublishRequest struct {
	Title      *string
	Slug       *string
	Tags       []string
	Categories []string
	Draft      *bool
	Date       *time.Time

	// KeepDate prefers the document's dateCreated over the current time.
	KeepDate bool
}

// PublishResult describes a completed publish.
type PublishResult struct {
	Document Document
	RemoteID string
	Created  bool
}

// Service handles publishing documents to the remote blog.
type Service struct {
	repo      Repository
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time

	useCurrentTime bool
	timeOffset     time.Duration

	mu        sync.RWMutex
	published map[string]string // document ID -> fingerprint after last publish
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithPublisher sets the remote endpoint.
func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithServiceLogger sets the logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithUseCurrentTime stamps posts with the current time unless the request
// gives a date. When disabled, the document's dateCreated is used.
func WithUseCurrentTime(enabled bool) ServiceOption {
	return func(s *Service) {
		s.useCurrentTime = enabled
	}
}

// WithTimeOffset shifts every publish date by d.
func WithTimeOffset(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.timeOffset = d
	}
}

// NewService creates a new Service.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:           repo,
		now:            time.Now,
		useCurrentTime: true,
		published:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// GetDocument retrieves a document.
func (s *Service) GetDocument(ctx context.Context, id string) (Document, error) {
	if id == "" {
		return Document{}, ErrEmptyID
	}
	return s.repo.Get(ctx, id)
}

// ListDocuments retrieves the documents matching pattern.
func (s *Service) ListDocuments(ctx context.Context, pattern string) ([]Document, error) {
	return s.repo.List(ctx, pattern)
}

// Ping asks the endpoint for its method list.
func (s *Service) Ping(ctx context.Context) ([]string, error) {
	if s.publisher == nil {
		return nil, ErrNotConfigured
	}
	return s.publisher.ListMethods(ctx)
}

// Watch observes changes in the repository if supported.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, ErrNotWatchable
	}
	return w.Watch(ctx, pattern)
}

// Publish sends the document to the endpoint and records the outcome in its
// header.
//
// Workflow:
//  1. Read the document and derive defaults from its header.
//  2. Apply the request overrides and validate.
//  3. Call editPost when the header carries a cid, newPost otherwise.
//  4. Write title, tags, categories, draft, dateCreated, cid and slug back,
//     leaving every other header key and the body untouched.
func (s *Service) Publish(ctx context.Context, id string, req PublishRequest) (PublishResult, error) {
	if s.publisher == nil {
		return PublishResult{}, ErrNotConfigured
	}

	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return PublishResult{}, fmt.Errorf("failed to read document %s: %w", id, err)
	}
	if doc.Metadata == nil {
		doc.Metadata = NewMetadata()
	}

	post, err := s.buildPost(doc, req)
	if err != nil {
		return PublishResult{}, err
	}

	remoteID := doc.Metadata.GetString(KeyCID)
	created := remoteID == ""

	if created {
		s.logger.Debug("creating post", "id", id, "title", post.Title)
		remoteID, err = s.publisher.NewPost(ctx, post)
	} else {
		s.logger.Debug("updating post", "id", id, "cid", remoteID, "title", post.Title)
		err = s.publisher.EditPost(ctx, remoteID, post)
	}
	if err != nil {
		return PublishResult{}, fmt.Errorf("failed to publish %s: %w", id, err)
	}

	updated := doc.Metadata.Clone()
	updated.Set(KeyTitle, post.Title)
	updated.Set(KeyTags, post.Tags)
	updated.Set(KeyCategories, post.Categories)
	updated.Set(KeyDraft, post.Draft)
	updated.Set(KeyDateCreated, post.DateCreated.Format(dateLayouts[0]))
	if created {
		updated.Set(KeyCID, remoteID)
	}
	slug := post.Slug
	if slug == "" && created {
		slug = remoteID
	}
	updated.Set(KeySlug, slug)
	doc.Metadata = updated

	if err := s.repo.Save(ctx, doc); err != nil {
		return PublishResult{}, fmt.Errorf("published %s as %s but failed to update the document: %w", id, remoteID, err)
	}

	// Fingerprint what a later read returns, not what was written.
	fp := fingerprint(doc)
	if saved, err := s.repo.Get(ctx, id); err == nil {
		fp = fingerprint(saved)
	}
	s.mu.Lock()
	s.published[id] = fp
	s.mu.Unlock()

	s.logger.Info("published", "id", id, "cid", remoteID, "created", created, "draft", post.Draft)

	return PublishResult{Document: doc, RemoteID: remoteID, Created: created}, nil
}

// AutoUpdate republishes documents that change on disk and already carry a
// cid. It returns when ctx is done or the event stream ends.
func (s *Service) AutoUpdate(ctx context.Context, pattern string) error {
	events, err := s.Watch(ctx, pattern)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if e.Type == EventDelete {
				continue
			}
			s.republish(ctx, e.ID)
		}
	}
}

func (s *Service) republish(ctx context.Context, id string) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		s.logger.Warn("skipping changed document", "id", id, "error", err)
		return
	}
	if doc.Metadata.GetString(KeyCID) == "" {
		s.logger.Debug("skipping unpublished document", "id", id)
		return
	}

	s.mu.RLock()
	last := s.published[id]
	s.mu.RUnlock()
	if last == fingerprint(doc) {
		return
	}

	if _, err := s.Publish(ctx, id, PublishRequest{KeepDate: true}); err != nil {
		s.logger.Error("republish failed", "id", id, "error", err)
	}
}

func (s *Service) buildPost(doc Document, req PublishRequest) (Post, error) {
	meta := doc.Metadata

	post := Post{
		Title:      strings.TrimSpace(meta.GetString(KeyTitle)),
		Body:       doc.Content,
		Slug:       strings.TrimSpace(meta.GetString(KeySlug)),
		Tags:       meta.GetStrings(KeyTags),
		Categories: meta.GetStrings(KeyCategories),
		Draft:      meta.GetBool(KeyDraft),
	}

	if req.Title != nil {
		post.Title = strings.TrimSpace(*req.Title)
	}
	if post.Title == "" {
		post.Title = DefaultTitle
	}
	if req.Slug != nil {
		post.Slug = strings.TrimSpace(*req.Slug)
	}
	if req.Tags != nil {
		post.Tags = req.Tags
	}
	if req.Categories != nil {
		post.Categories = req.Categories
	}
	if req.Draft != nil {
		post.Draft = *req.Draft
	}
	post.Tags = normalizeList(post.Tags)
	post.Categories = normalizeList(post.Categories)

	if len(post.Categories) == 0 {
		return Post{}, ErrNoCategories
	}

	post.DateCreated = s.publishDate(meta, req)
	return post, nil
}

// publishDate picks the post date. The configured offset applies to every
// date except one kept verbatim from the document, which already has it.
func (s *Service) publishDate(meta *Metadata, req PublishRequest) time.Time {
	if req.Date != nil {
		return req.Date.Add(s.timeOffset)
	}
	preset, ok := ParseDate(meta.GetString(KeyDateCreated))
	if req.KeepDate && ok {
		return preset
	}
	if !s.useCurrentTime && ok {
		return preset.Add(s.timeOffset)
	}
	return s.now().Add(s.timeOffset)
}

// ParseDate reads a date in any of the layouts accepted in a document
// header, in local time.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// fingerprint identifies the publishable state of a document.
func fingerprint(doc Document) string {
	h := sha256.New()
	meta, _ := json.Marshal(doc.Metadata)
	h.Write(meta)
	h.Write([]byte{0})
	h.Write([]byte(doc.Content))
	return hex.EncodeToString(h.Sum(nil))
}
