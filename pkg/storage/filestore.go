package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const fileExt = ".json"

// FileStore - Store backed by one JSON file per key under a directory
type FileStore struct {
	dir string
}

// NewFileStore - creates a file-backed store rooted at dir, creating the
// directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Clean(dir), 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &FileStore{dir: filepath.Clean(dir)}, nil
}

// pathFor - maps key to its file, refusing keys that would resolve outside
// the store directory
func (f *FileStore) pathFor(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(f.dir, key+fileExt), nil
}

// Get - returns the value for key
func (f *FileStore) Get(key string) ([]byte, error) {
	path, err := f.pathFor(key)
	if err != nil {
		return nil, err
	}
	value, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, nil
}

// Set - stores value under key. The write goes to a temp file first and is
// renamed into place so a crash mid-write never leaves a torn value behind.
func (f *FileStore) Set(key string, value []byte) error {
	target, err := f.pathFor(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, filepath.Base(target)+".tmp")
	if err != nil {
		return f.classify(err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return f.classify(err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return f.classify(err)
	}
	if err = os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return f.classify(err)
	}
	return nil
}

// Remove - deletes key, absent keys are not an error
func (f *FileStore) Remove(key string) error {
	path, err := f.pathFor(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Keys - enumerates stored keys with the given prefix
func (f *FileStore) Keys(prefix string) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	keys := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key := strings.TrimSuffix(name, fileExt)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (f *FileStore) classify(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && strings.Contains(pathErr.Err.Error(), "no space") {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
