package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"task-app/task"
)

// Store abstracts persistence for task lists. Update applies a mutation
// as one atomic read-modify-write; implementations must not let another
// mutation interleave between the read and the write.
type Store interface {
	Ensure(ctx context.Context) error
	Load(ctx context.Context) ([]task.Task, error)
	Save(ctx context.Context, list []task.Task) error
	Update(ctx context.Context, mutate func([]task.Task) ([]task.Task, error)) error
}

// lockRetryDelay is the polling interval while waiting for the file lock.
const lockRetryDelay = 50 * time.Millisecond

// FileStore implements Store backed by a JSON file on disk. An advisory
// file lock guards each operation against other processes sharing the
// storage file; Update holds it across the whole read-modify-write.
// flock is reentrant per instance, so goroutines sharing one FileStore
// are serialized by an in-process mutex instead of the file lock.
type FileStore struct {
	// Path is the JSON file path.
	Path string

	mu  sync.Mutex
	flk *flock.Flock
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = filepath.Join("out", "tasks.json")
	}
	return &FileStore{
		Path: path,
		flk:  flock.New(path + ".lock"),
	}
}

// lock acquires the in-process mutex and the file lock, creating the
// parent directory first so the lock file can exist before the storage
// file does.
func (f *FileStore) lock(ctx context.Context) error {
	f.mu.Lock()
	if dir := filepath.Dir(f.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			f.mu.Unlock()
			return fmt.Errorf("create storage dir: %w", err)
		}
	}
	ok, err := f.flk.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		f.mu.Unlock()
		return fmt.Errorf("acquire file lock: %w", err)
	}
	if !ok {
		f.mu.Unlock()
		return fmt.Errorf("acquire file lock: not granted")
	}
	return nil
}

func (f *FileStore) unlock(ctx context.Context) {
	if err := f.flk.Unlock(); err != nil {
		slog.WarnContext(ctx, "failed to release file lock", "error", err, "path", f.Path)
	}
	f.mu.Unlock()
}

// Ensure initializes the storage file to an empty collection if absent.
func (f *FileStore) Ensure(ctx context.Context) error {
	if err := f.lock(ctx); err != nil {
		return err
	}
	defer f.unlock(ctx)
	return task.EnsureStorage(ctx, f.Path)
}

func (f *FileStore) Load(ctx context.Context) ([]task.Task, error) {
	if err := f.lock(ctx); err != nil {
		return nil, err
	}
	defer f.unlock(ctx)

	list, err := task.Load(ctx, f.Path)
	if err != nil {
		slog.ErrorContext(ctx, "load failed", "error", err, "path", f.Path)
		return nil, err
	}
	return list, nil
}

func (f *FileStore) Save(ctx context.Context, list []task.Task) error {
	if err := f.lock(ctx); err != nil {
		return err
	}
	defer f.unlock(ctx)

	if err := task.Save(ctx, list, f.Path); err != nil {
		slog.ErrorContext(ctx, "save failed", "error", err, "path", f.Path)
		return err
	}
	return nil
}

// Update loads the list, applies mutate and saves the result, holding
// the lock for the whole cycle. Nothing is written when mutate fails.
func (f *FileStore) Update(ctx context.Context, mutate func([]task.Task) ([]task.Task, error)) error {
	if err := f.lock(ctx); err != nil {
		return err
	}
	defer f.unlock(ctx)

	list, err := task.Load(ctx, f.Path)
	if err != nil {
		slog.ErrorContext(ctx, "load failed", "error", err, "path", f.Path)
		return err
	}
	list, err = mutate(list)
	if err != nil {
		return err
	}
	if err := task.Save(ctx, list, f.Path); err != nil {
		slog.ErrorContext(ctx, "save failed", "error", err, "path", f.Path)
		return err
	}
	return nil
}
