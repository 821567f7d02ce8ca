package output

import (
	"fmt"
	"os"
	"path/filepath"
)

const DefaultPageFile = "index.html"

type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Writer persists rendered artifacts under a root directory. Every write is
// a full overwrite that goes through a temporary file and a rename, so a
// failed write never leaves a truncated file behind.
type Writer struct {
	root     string
	pageFile string
}

func NewWriter(root, pageFile string) *Writer {
	if pageFile == "" {
		pageFile = DefaultPageFile
	}
	return &Writer{root: root, pageFile: pageFile}
}

func (w *Writer) Root() string {
	return w.root
}

// PagePath is the page location for a post identity, relative to the root.
func (w *Writer) PagePath(slug string) string {
	return filepath.Join(slug, w.pageFile)
}

// Write stores content at rel (relative to the root, or absolute).
func (w *Writer) Write(rel string, content []byte) error {
	path := rel
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.root, rel)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}

	return nil
}
