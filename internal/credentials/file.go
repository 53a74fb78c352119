package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
)

// FileStore keeps credentials in a dotenv file shared by every client
// process of the same user profile.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: filepath.Clean(path)}
}

// Lookup returns the value stored under key.
func (s *FileStore) Lookup(ctx context.Context, key string) (string, bool) {
	values, err := s.read()
	if err != nil {
		logger.Log.Debugw("credentials file unreadable", "path", s.path, "error", err)
		return "", false
	}
	v, ok := values[key]
	return v, ok
}

// Set stores value under key.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	return s.update(func(values map[string]string) {
		values[key] = value
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	return s.update(func(values map[string]string) {
		delete(values, key)
	})
}

// Watch reports keys whose values changed on disk.
func (s *FileStore) Watch(ctx context.Context, onChange func(key string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory: writers replace the file by rename.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	last, _ := s.read()
	logger.Log.Infow("credentials watcher started", "path", s.path)

	for {
		select {
		case <-ctx.Done():
			logger.Log.Infow("credentials watcher stopped", "path", s.path)
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			current, err := s.read()
			if err != nil {
				current = map[string]string{}
			}
			for _, key := range changedKeys(last, current) {
				onChange(key)
			}
			last = current

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Log.Errorw("credentials watcher error", "path", s.path, "error", err)
		}
	}
}

func (s *FileStore) read() (map[string]string, error) {
	values, err := godotenv.Read(s.path)
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (s *FileStore) update(fn func(values map[string]string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read credentials: %w", err)
		}
		values = map[string]string{}
	}
	fn(values)

	content, err := godotenv.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credentials: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("chmod credentials: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// changedKeys returns the keys whose presence or value differs.
func changedKeys(before, after map[string]string) []string {
	var keys []string
	for k, v := range before {
		if nv, ok := after[k]; !ok || nv != v {
			keys = append(keys, k)
		}
	}
	for k := range after {
		if _, ok := before[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys
}
