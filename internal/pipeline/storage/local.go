package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	cfg "github.com/yakuphankucukkesim/resonora-ai/internal/config"
)

// LocalStorage keeps objects on the filesystem under a root path. Used for
// development and tests; presigned URLs degrade to file:// paths.
type LocalStorage struct {
	rootPath string
}

func NewLocalStorage(localCfg cfg.LocalConfig) (*LocalStorage, error) {
	if localCfg.BasePath == "" {
		return nil, fmt.Errorf("base_path required for local storage")
	}
	if err := os.MkdirAll(localCfg.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root path: %w", err)
	}
	return &LocalStorage{rootPath: localCfg.BasePath}, nil
}

func (l *LocalStorage) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	err := filepath.WalkDir(l.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.rootPath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects under %q: %w", prefix, err)
	}

	return keys, nil
}

func (l *LocalStorage) Upload(ctx context.Context, key string, body io.Reader) error {
	fullPath := filepath.Join(l.rootPath, key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	out, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, body); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (l *LocalStorage) Download(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.rootPath, key))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (l *LocalStorage) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return l.fileURL(key), nil
}

func (l *LocalStorage) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return l.fileURL(key), nil
}

func (l *LocalStorage) fileURL(key string) string {
	abs, err := filepath.Abs(filepath.Join(l.rootPath, key))
	if err != nil {
		abs = filepath.Join(l.rootPath, key)
	}
	return "file://" + filepath.ToSlash(abs)
}
