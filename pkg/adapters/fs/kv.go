// Package fs stores slots as JSON files in a directory, optionally versioned with git.
package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/itt/pkg/core"
	"github.com/aretw0/itt/pkg/git"
)

const (
	// DefaultSystemDir holds lock files. It is git-ignored when versioning is on.
	DefaultSystemDir = ".itt"

	// SlotExt is the extension of slot files.
	SlotExt = ".json"

	// DefaultLockTimeout bounds how long Lock waits for a held lock.
	DefaultLockTimeout = 10 * time.Second

	// DefaultStaleLockAge is the age after which a lock file is considered
	// abandoned by a crashed process and broken.
	DefaultStaleLockAge = 30 * time.Second
)

// ErrInvalidKey is returned for keys that cannot be used as a file name.
var ErrInvalidKey = errors.New("invalid slot key")

// Config holds the configuration for the filesystem KV.
type Config struct {
	Path         string
	MustExist    bool
	ReadOnly     bool
	Versioning   bool // commit every write with git
	AutoInit     bool // run git init when Versioning is on and Path is not a repository
	SystemDir    string
	LockTimeout  time.Duration // zero means DefaultLockTimeout
	StaleLockAge time.Duration // zero means DefaultStaleLockAge
	Logger       *slog.Logger
	ErrorHandler func(error) // receives watcher failures
}

// KV implements core.KV, core.Locker, core.Initializer and core.Watchable
// with one file per key: <Path>/<key>.json.
type KV struct {
	Path   string
	git    *git.Client
	config Config

	mu            sync.RWMutex
	watcherActive bool
	lastWrite     *time.Time
}

// NewKV creates a new filesystem-backed KV.
func NewKV(config Config) *KV {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.LockTimeout <= 0 {
		config.LockTimeout = DefaultLockTimeout
	}
	if config.StaleLockAge <= 0 {
		config.StaleLockAge = DefaultStaleLockAge
	}
	return &KV{
		Path:   config.Path,
		git:    git.NewClient(config.Path, config.Logger),
		config: config,
	}
}

// Initialize creates the directory (unless MustExist) and prepares git versioning.
func (k *KV) Initialize(ctx context.Context) error {
	if k.config.MustExist || k.config.ReadOnly {
		info, err := os.Stat(k.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("storage path does not exist: %s", k.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat storage path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("storage path is not a directory: %s", k.Path)
		}
	} else {
		if err := os.MkdirAll(k.Path, 0755); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	if k.config.ReadOnly {
		return nil
	}
	if err := os.MkdirAll(filepath.Join(k.Path, k.config.SystemDir), 0755); err != nil {
		return fmt.Errorf("failed to create system directory: %w", err)
	}
	if !k.config.Versioning {
		return nil
	}

	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !k.git.IsRepo() {
		if !k.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", k.Path)
		}
		if err := k.git.Init(ctx); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := k.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}

	if mod && wasNewRepo {
		if err := k.git.Add(ctx, ".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		msg := git.FormatCommitMessage(git.CommitTypeChore, "", fmt.Sprintf("ignore %s", k.config.SystemDir), "")
		if err := k.git.Commit(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}

	return nil
}

func (k *KV) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(k.Path, ".gitignore")
	ignoreEntry := k.config.SystemDir + "/"

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == ignoreEntry {
			return false, nil
		}
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}

	if _, err := f.WriteString(ignoreEntry + "\n"); err != nil {
		return false, err
	}

	return true, nil
}

// Get reads the slot file of key.
func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	filename, err := k.filename(key)
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(filepath.Join(k.Path, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return string(data), true, nil
}

// Set atomically replaces the slot file of key and, with versioning on, commits it.
// Writing the value the file already holds is a no-op.
func (k *KV) Set(ctx context.Context, key, value string) error {
	if k.config.ReadOnly {
		return core.ErrReadOnly
	}

	filename, err := k.filename(key)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(k.Path, filename)

	if current, err := os.ReadFile(fullPath); err == nil && bytes.Equal(current, []byte(value)) {
		if k.config.Logger != nil {
			k.config.Logger.Debug("slot unchanged, skipping write", "key", key)
		}
		return nil
	}

	if err := os.MkdirAll(k.Path, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	if err := writeFileAtomic(fullPath, []byte(value), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	k.recordWrite()

	if !k.config.Versioning {
		return nil
	}

	if err := k.git.Add(ctx, filename); err != nil {
		return fmt.Errorf("failed to git add: %w", err)
	}

	subject := "update " + key
	if reason, ok := core.ChangeReason(ctx); ok {
		subject = reason
	}
	if err := k.git.Commit(ctx, git.FormatCommitMessage(git.CommitTypeData, key, subject, "")); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}

	return nil
}

// filename maps key to its file name, relative to Path.
func (k *KV) filename(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, TempFilePrefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return key + SlotExt, nil
}

// IsGitInstalled checks if git is available in the system path.
func IsGitInstalled() bool {
	return git.IsInstalled()
}

var (
	_ core.KV          = (*KV)(nil)
	_ core.Locker      = (*KV)(nil)
	_ core.Initializer = (*KV)(nil)
	_ core.Watchable   = (*KV)(nil)
)
