package task

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Save writes the full list to disk, pretty-printed, overwriting the
// previous contents. Parent directories are created as needed.
func Save(ctx context.Context, list []Task, path string) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.ErrorContext(ctx, "failed to create storage dir", "error", err, "dir", dir)
			return err
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.ErrorContext(ctx, "failed to save tasks", "error", err, "path", path)
		return err
	}
	slog.InfoContext(ctx, "tasks saved", "path", path, "count", len(list))
	return nil
}

// Load reads tasks from a JSON file. A missing or empty file yields an
// empty list. Malformed JSON also yields an empty list: the file is the
// sole source of truth and unparsable content is discarded on the next
// save. Use CheckFile to detect corruption explicitly.
func Load(ctx context.Context, path string) ([]Task, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Task{}, nil
		}
		slog.ErrorContext(ctx, "failed to read storage file", "error", err, "path", path)
		return nil, err
	}
	if len(b) == 0 {
		return []Task{}, nil
	}
	var list []Task
	if err := json.Unmarshal(b, &list); err != nil {
		slog.WarnContext(ctx, "storage file is not valid JSON; treating as empty", "error", err, "path", path)
		return []Task{}, nil
	}
	return list, nil
}

// EnsureStorage initializes the storage file to an empty collection if
// it does not exist yet. Idempotent.
func EnsureStorage(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.ErrorContext(ctx, "failed to create storage dir", "error", err, "dir", dir)
			return err
		}
	}
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		slog.ErrorContext(ctx, "failed to initialize storage file", "error", err, "path", path)
		return err
	}
	slog.InfoContext(ctx, "storage initialized", "path", path)
	return nil
}
