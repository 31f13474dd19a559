package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type fileStorage struct {
	config FileConfig
}

type FileConfig struct {
	Directory string
	// Folder is the sub directory List reads from.
	Folder string
	// BaseURL is prepended to asset ids to build their URL. Empty means the
	// local file path is used.
	BaseURL string
}

// NewFileStorage creates a new file storage backend
func NewFileStorage(ctx context.Context, f FileConfig) (Storage, error) {
	if f.Directory == "" {
		f.Directory = "."
	}

	return &fileStorage{
		config: f,
	}, nil
}

func (a *fileStorage) Upload(ctx context.Context, input UploadInput) (*Asset, error) {
	id := path.Join(input.Folder, input.Name)
	filePath := filepath.Join(a.config.Directory, filepath.FromSlash(id))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	src, err := os.Open(input.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", input.Path, err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &Asset{
		ID:        id,
		URL:       a.url(id, filePath),
		Folder:    input.Folder,
		Format:    strings.TrimPrefix(path.Ext(id), "."),
		Bytes:     n,
		CreatedAt: info.ModTime().UTC(),
	}, nil
}

func (a *fileStorage) List(ctx context.Context) ([]Asset, error) {
	root := filepath.Join(a.config.Directory, filepath.FromSlash(a.config.Folder))

	assets := []Asset{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(a.config.Directory, p)
		if err != nil {
			return err
		}
		id := filepath.ToSlash(rel)

		assets = append(assets, Asset{
			ID:        id,
			URL:       a.url(id, p),
			Folder:    a.config.Folder,
			Format:    strings.TrimPrefix(path.Ext(id), "."),
			Bytes:     info.Size(),
			CreatedAt: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return assets, nil
}

func (a *fileStorage) url(id string, filePath string) string {
	if a.config.BaseURL == "" {
		return filePath
	}
	return strings.TrimRight(a.config.BaseURL, "/") + "/" + id
}
