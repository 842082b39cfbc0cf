package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/quill/pkg/core"
	"github.com/aretw0/quill/pkg/git"
)

const (
	// DefaultSystemDir holds the index cache, relative to the repository root.
	DefaultSystemDir = ".quill"
	// DefaultPattern selects the documents List and Watch consider.
	DefaultPattern = "**/*.md"
	// DefaultExt is appended to IDs that carry no extension.
	DefaultExt = ".md"
)

// ErrOutsideRoot is returned for IDs that resolve outside the repository.
var ErrOutsideRoot = errors.New("document path escapes the repository root")

// Repository implements core.Repository and core.Watchable on a directory
// of documents, optionally committing every save with Git.
type Repository struct {
	Path        string
	git         *git.Client
	cache       *cache
	config      Config
	serializers map[string]Serializer

	mu            sync.RWMutex
	watcherActive bool
	lastSave      *time.Time
	saves         int
	skipped       int
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path      string
	MustExist bool
	Logger    *slog.Logger
	SystemDir string // e.g. ".quill"

	// Versioning commits each saved document with git.
	Versioning bool
	// AutoInit runs git init when Versioning is on and Path is not a repository.
	AutoInit bool

	// EventBuffer sizes the channel returned by Watch.
	EventBuffer int
	// Debounce coalesces bursts of events for the same document.
	Debounce time.Duration
	// ErrorHandler receives watcher errors. Defaults to logging them.
	ErrorHandler func(error)
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Debounce <= 0 {
		config.Debounce = 100 * time.Millisecond
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 100
	}
	return &Repository{
		Path:        config.Path,
		git:         git.NewClient(config.Path, config.SystemDir+".lock", config.Logger),
		config:      config,
		cache:       newCache(config.Path, config.SystemDir),
		serializers: DefaultSerializers(),
	}
}

// Initialize performs the necessary setup for the repository (mkdir, git init).
func (r *Repository) Initialize(ctx context.Context) error {
	// 1. Directory Initialization
	if r.config.MustExist {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("repository path does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("repository path is not a directory: %s", r.Path)
		}
	} else {
		if err := os.MkdirAll(r.Path, 0755); err != nil {
			return fmt.Errorf("failed to create repository directory: %w", err)
		}
	}

	if !r.config.Versioning {
		return nil
	}

	// 2. Git Initialization
	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !r.git.IsRepo() {
		if !r.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", r.Path)
		}
		if err := r.git.Init(); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	// Ensure .gitignore has the system directory
	mod, err := r.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}

	if mod && wasNewRepo {
		// If we just created the repo, commit the .gitignore to start clean
		if err := r.git.Add(".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := r.git.Commit(fmt.Sprintf("chore: configure %s ignore", r.config.SystemDir)); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}

	return nil
}

func (r *Repository) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(r.Path, ".gitignore")
	entries := []string{r.config.SystemDir + "/", r.config.SystemDir + ".lock"}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, e := range entries {
		if !present[e] {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	// Ensure newline if needed
	if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}

	return true, nil
}

// resolve maps an ID to its file path relative to the root and its extension.
func (r *Repository) resolve(id string) (rel, ext string, err error) {
	if id == "" {
		return "", "", core.ErrEmptyID
	}
	rel = filepath.Clean(filepath.FromSlash(id))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%w: %s", ErrOutsideRoot, id)
	}
	ext = strings.ToLower(filepath.Ext(rel))
	if ext == "" {
		ext = DefaultExt
		rel += ext
	}
	return rel, ext, nil
}

func (r *Repository) serializerFor(ext string) Serializer {
	if s, ok := r.serializers[ext]; ok {
		return s
	}
	return r.serializers[DefaultExt]
}

// Get retrieves a document from the filesystem.
// IDs without an extension refer to Markdown files.
func (r *Repository) Get(ctx context.Context, id string) (core.Document, error) {
	rel, ext, err := r.resolve(id)
	if err != nil {
		return core.Document{}, err
	}

	f, err := os.Open(filepath.Join(r.Path, rel))
	if err != nil {
		return core.Document{}, err
	}
	defer f.Close()

	doc, err := r.serializerFor(ext).Parse(f)
	if err != nil {
		return core.Document{}, fmt.Errorf("failed to parse document %s: %w", id, err)
	}
	doc.ID = id

	return *doc, nil
}

// Save persists a document to the filesystem and commits it to Git.
//
// Workflow:
//  1. Resolve the file and serialize the document for its extension.
//  2. Skip the write when the file already holds exactly these bytes.
//  3. Create parent directories and write atomically to disk.
//  4. (If Versioning) 'git add' and 'git commit' with context metadata.
func (r *Repository) Save(ctx context.Context, doc core.Document) error {
	rel, ext, err := r.resolve(doc.ID)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(r.Path, rel)

	data, err := r.serializerFor(ext).Serialize(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}

	perm := os.FileMode(0644)
	if existing, err := os.ReadFile(fullPath); err == nil {
		if bytes.Equal(existing, data) {
			r.config.Logger.Debug("document unchanged, skipping write", "id", doc.ID)
			r.recordSave(false)
			return nil
		}
		if info, err := os.Stat(fullPath); err == nil {
			perm = info.Mode().Perm()
		}
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	if err := writeFileAtomic(fullPath, data, perm); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	r.recordSave(true)

	if !r.config.Versioning {
		return nil
	}

	unlock, err := r.git.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := r.git.Add(filepath.ToSlash(rel)); err != nil {
		return fmt.Errorf("failed to git add: %w", err)
	}

	msg := "update " + doc.ID
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}

	if err := r.git.Commit(msg); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}

	return nil
}

// List returns the documents whose relative path matches pattern
// (doublestar syntax, default "**/*.md"). Listed documents carry their
// metadata but no content; use Get for the body.
//
// Strategy:
//  1. Load existing Cache (metadata index) from disk.
//  2. Walk the tree, skipping .git and the system directory, and match
//     relative paths against pattern.
//  3. For each match:
//     a. Check Cache Hit (based on mtime). If hit, use cached metadata.
//     b. Cache Miss: Full Parse (Get). Update Cache.
//  4. Prune entries for files that are gone and save the Cache.
func (r *Repository) List(ctx context.Context, pattern string) ([]core.Document, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	if err := r.cache.Load(); err != nil {
		r.config.Logger.Warn("failed to load index, rebuilding", "error", err)
	}

	seen := make(map[string]bool)
	var docs []core.Document

	err := filepath.WalkDir(r.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			// Skip system directories
			if path != r.Path && r.isSystemName(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isTempFile(d.Name()) {
			return nil
		}

		relPath, err := filepath.Rel(r.Path, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if ok, _ := doublestar.Match(pattern, relPath); !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		mtime := info.ModTime()
		seen[relPath] = true

		if entry, hit := r.cache.Get(relPath, mtime); hit {
			docs = append(docs, core.Document{ID: entry.ID, Metadata: entry.Metadata.Clone()})
			return nil
		}

		doc, err := r.Get(ctx, relPath)
		if err != nil {
			r.config.Logger.Debug("skipping unreadable document", "id", relPath, "error", err)
			return nil
		}

		r.cache.Set(relPath, &indexEntry{
			ID:           relPath,
			Metadata:     doc.Metadata.Clone(),
			LastModified: mtime,
		})

		docs = append(docs, core.Document{ID: doc.ID, Metadata: doc.Metadata})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	r.cache.Prune(seen)
	if err := r.cache.Save(); err != nil {
		r.config.Logger.Warn("failed to save index", "error", err)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

func (r *Repository) isSystemName(name string) bool {
	return name == ".git" || name == r.config.SystemDir
}

func (r *Repository) recordSave(written bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !written {
		r.skipped++
		return
	}
	now := time.Now()
	r.saves++
	r.lastSave = &now
}

// IsGitInstalled checks if git is available in the system path.
func IsGitInstalled() bool {
	return git.IsInstalled()
}

var (
	_ core.Repository = (*Repository)(nil)
	_ core.Watchable  = (*Repository)(nil)
)
