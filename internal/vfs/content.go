package vfs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// Content is the payload of a create or update. It is a sealed interface:
// use Text, Bytes, or LocalFile.
type Content interface {
	doNotImplement(Content)
}

// Text is textual content; it defaults to text/plain.
func Text(s string) Content {
	return ContentText{Text: s}
}

// Bytes is binary content; it defaults to application/octet-stream.
func Bytes(b []byte) Content {
	return ContentBytes{Data: b}
}

// LocalFile uploads the file at path on the local filesystem.
func LocalFile(path string) Content {
	return ContentFile{Path: path}
}

type ContentText struct {
	Text string
}

func (ContentText) doNotImplement(Content) {}

type ContentBytes struct {
	Data []byte
}

func (ContentBytes) doNotImplement(Content) {}

type ContentFile struct {
	Path string
}

func (ContentFile) doNotImplement(Content) {}

// openContent returns a reader over the payload and its size. Local files
// are opened here, before any network call, so a bad path fails early.
func openContent(c Content) (io.ReadCloser, int64, error) {
	switch c := c.(type) {
	case ContentText:
		return io.NopCloser(strings.NewReader(c.Text)), int64(len(c.Text)), nil
	case ContentBytes:
		return io.NopCloser(bytes.NewReader(c.Data)), int64(len(c.Data)), nil
	case ContentFile:
		f, err := os.Open(c.Path)
		if err != nil {
			return nil, 0, fmt.Errorf("vfs: opening local file: %w: %w", ErrInvalidArgument, err)
		}

		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, 0, fmt.Errorf("vfs: stat local file: %w: %w", ErrInvalidArgument, err)
		}

		if info.IsDir() {
			f.Close()
			return nil, 0, fmt.Errorf("vfs: local source %s is a directory: %w", c.Path, ErrInvalidArgument)
		}

		return f, info.Size(), nil
	default:
		return nil, 0, fmt.Errorf("vfs: no content or local source given: %w", ErrInvalidArgument)
	}
}
