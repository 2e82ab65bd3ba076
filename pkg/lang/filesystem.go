package lang

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoFileSystem is returned by the empty file system.
var ErrNoFileSystem = errors.New("no file system available")

// FileSystemProvider gives languages read access to documents.
type FileSystemProvider interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	ReadDirectory(ctx context.Context, path string) ([]string, error)
}

type emptyFileSystem struct{}

func (emptyFileSystem) ReadFile(context.Context, string) ([]byte, error) {
	return nil, ErrNoFileSystem
}

func (emptyFileSystem) ReadDirectory(context.Context, string) ([]string, error) {
	return nil, ErrNoFileSystem
}

// OSFileSystem reads from the local disk. Relative paths resolve against
// Root when it is set.
type OSFileSystem struct {
	Root string
}

// NodeFileSystem is a context backed by the local disk.
func NodeFileSystem(root string) SharedModuleContext {
	return SharedModuleContext{
		FileSystemProvider: func() FileSystemProvider { return OSFileSystem{Root: root} },
	}
}

func (fs OSFileSystem) resolve(path string) string {
	if fs.Root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(fs.Root, path)
}

// ReadFile implements FileSystemProvider.
func (fs OSFileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fs.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// ReadDirectory implements FileSystemProvider. It returns the paths of the
// directory's entries.
func (fs OSFileSystem) ReadDirectory(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(fs.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, filepath.Join(path, e.Name()))
	}
	return out, nil
}
