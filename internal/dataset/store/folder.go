package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/usecase"
)

// Folder writes exported files into a local directory, creating it on
// demand. Each file is written to a temporary name first and renamed, so a
// reader never sees a half written export.
type Folder struct {
	dir string
}

func NewFolder(dir string) (*Folder, error) {
	if dir == "" {
		return nil, errors.New("export folder is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &Folder{dir: abs}, nil
}

func (f *Folder) Dir() string {
	return f.dir
}

func (f *Folder) Write(ctx context.Context, files []usecase.ExportFile) ([]string, error) {
	seen := make(map[string]struct{}, len(files))
	for _, file := range files {
		name := filepath.Base(file.Name)
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %s", usecase.ErrDuplicateFileName, name)
		}
		seen[name] = struct{}{}
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export folder: %w", err)
	}

	paths := make([]string, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := f.writeFile(file)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return paths, nil
}

func (f *Folder) writeFile(file usecase.ExportFile) (string, error) {
	name := filepath.Base(file.Name)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid export file name %q", file.Name)
	}

	tmp, err := os.CreateTemp(f.dir, "."+name+"-*")
	if err != nil {
		return "", err
	}

	if _, err := tmp.Write(file.Data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}

	path := filepath.Join(f.dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}

	return path, nil
}
