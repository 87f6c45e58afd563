// Package asset uploads challenge images and videos to an asset host and
// returns the public URLs. A batch succeeds or fails as a unit.
package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// maxParallel bounds concurrent transfers within one batch.
const maxParallel = 4

// File is a local attachment waiting to be uploaded.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Ext returns the lowercased extension of the file name, including the dot.
func (f File) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// IsImage reports whether the file looks like an image by MIME type or extension.
func (f File) IsImage() bool {
	if strings.HasPrefix(f.ContentType, "image/") {
		return true
	}
	switch f.Ext() {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}

// FromMultipart wraps an uploaded form file.
func FromMultipart(fh *multipart.FileHeader) File {
	return File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// FromBytes wraps an in-memory attachment.
func FromBytes(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Uploader sends a batch of files to an asset host. When single is set only
// the first file is uploaded. Zero files yield an empty URL list.
type Uploader interface {
	Upload(ctx context.Context, files []File, single bool) ([]string, error)
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, files []File, single bool) ([]string, error)

// Upload calls f.
func (f UploaderFunc) Upload(ctx context.Context, files []File, single bool) ([]string, error) {
	return f(ctx, files, single)
}

// Remover is implemented by hosts that can delete assets they returned
// from Upload.
type Remover interface {
	Remove(ctx context.Context, urls []string) error
}

// Discard deletes urls from up when it is a Remover. Other hosts keep the
// files and Discard returns nil.
func Discard(ctx context.Context, up Uploader, urls []string) error {
	r, ok := up.(Remover)
	if !ok || len(urls) == 0 {
		return nil
	}
	return r.Remove(ctx, urls)
}

// ErrUnsupportedType is returned for files a host refuses to store.
var ErrUnsupportedType = errors.New("unsupported file type")

// Batch runs put for every file concurrently and returns the URLs in input
// order. The first failure cancels the rest and fails the whole batch.
func Batch(ctx context.Context, files []File, single bool, put func(context.Context, File) (string, error)) ([]string, error) {
	if single && len(files) > 1 {
		files = files[:1]
	}
	urls := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, f := range files {
		g.Go(func() error {
			u, err := put(gctx, f)
			if err != nil {
				return fmt.Errorf("upload %s: %w", f.Name, err)
			}
			urls[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}
