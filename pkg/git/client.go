package git

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultLockTimeout bounds how long Lock waits for another process.
const DefaultLockTimeout = 10 * time.Second

// ErrLockTimeout is returned when the lock file stays held past the timeout.
var ErrLockTimeout = errors.New("timed out waiting for git lock")

// Client wraps git command execution with a global file-based lock for process safety.
type Client struct {
	WorkDir     string
	Logger      *slog.Logger
	LockTimeout time.Duration
	lockPath    string
}

// NewClient creates a new git client for the given working directory.
// lockName is the lock file created inside workDir (e.g. ".quill.lock").
func NewClient(workDir, lockName string, logger *slog.Logger) *Client {
	if lockName == "" {
		lockName = ".quill.lock"
	}
	return &Client{
		WorkDir:     workDir,
		Logger:      logger,
		LockTimeout: DefaultLockTimeout,
		lockPath:    lockName,
	}
}

// IsInstalled checks if git is available in the system path.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Lock acquires a file-based lock. It blocks until the lock is acquired or
// LockTimeout passes.
func (c *Client) Lock() (func(), error) {
	fullLockPath := filepath.Join(c.WorkDir, c.lockPath)
	deadline := time.Now().Add(c.LockTimeout)

	for {
		// Try to create lock file atomically
		f, err := os.OpenFile(fullLockPath, os.O_CREATE|os.O_EXCL, 0666)
		if err == nil {
			f.Close()
			return func() {
				os.Remove(fullLockPath)
			}, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if c.LockTimeout > 0 && time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, fullLockPath)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Run executes a raw git command in the working directory.
// NOTE: It does NOT acquire the lock automatically. The caller must manage safety via Client.Lock().
func (c *Client) Run(args ...string) (string, error) {
	if c.Logger != nil {
		c.Logger.Debug("executing git", "args", args, "dir", c.WorkDir)
	}

	cmd := exec.Command("git", args...)
	cmd.Dir = c.WorkDir

	out, err := cmd.CombinedOutput()
	output := string(out)

	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, output)
	}

	return strings.TrimSpace(output), nil
}

// IsRepo reports whether WorkDir is inside a git work tree.
func (c *Client) IsRepo() bool {
	out, err := c.Run("rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Init initializes a new git repository if one doesn't exist.
func (c *Client) Init() error {
	_, err := c.Run("init")
	return err
}

// Add adds files to the stage.
func (c *Client) Add(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, files...)
	_, err := c.Run(args...)
	return err
}

// Commit records staged changes. A commit with nothing staged is not an error.
func (c *Client) Commit(msg string) error {
	clean, err := c.nothingStaged()
	if err != nil {
		return err
	}
	if clean {
		if c.Logger != nil {
			c.Logger.Debug("nothing to commit", "dir", c.WorkDir)
		}
		return nil
	}
	_, err = c.Run("commit", "-m", msg)
	return err
}

func (c *Client) nothingStaged() (bool, error) {
	_, err := c.Run("diff", "--cached", "--quiet")
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, err
}

// Status returns the porcelain status of the repo.
func (c *Client) Status() (string, error) {
	return c.Run("status", "--porcelain")
}

// LastMessage returns the subject of the latest commit.
func (c *Client) LastMessage() (string, error) {
	return c.Run("log", "-1", "--format=%s")
}
