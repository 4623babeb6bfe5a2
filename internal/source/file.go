package source

import (
	"context"
	"os"

	"wanlens/internal/config"
)

// File reads a document from the local filesystem
type File struct {
	path string
}

// NewFile creates a file source
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Kind() string     { return config.SourceFile }
func (f *File) Describe() string { return f.path }

// Path returns the file path
func (f *File) Path() string { return f.path }

// Fetch reads the whole file
func (f *File) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(f.path)
}
