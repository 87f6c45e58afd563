package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	defaultMaxImageWidth  = 1200
	defaultMaxImageBytes  = 10 << 20 // 10MB
	defaultMaxImagePixels = 40_000_000
	jpegQuality           = 82
)

// ErrImageTooLarge is returned for an image over MaxImageBytes or
// MaxImagePixels.
var ErrImageTooLarge = errors.New("image too large")

// videoExts maps the video media types LocalHost stores to the extension
// written to disk. Nothing outside this list and JPEG is ever written.
var videoExts = map[string]string{
	"video/mp4":        ".mp4",
	"video/mkv":        ".mkv",
	"video/x-matroska": ".mkv",
}

// LocalHost stores uploads under Dir and serves them from BaseURL.
// Images are normalized to JPEG no wider than MaxImageWidth; mp4 and mkv
// videos are copied verbatim. Any other file is refused.
type LocalHost struct {
	Dir            string
	BaseURL        string
	MaxImageWidth  int
	MaxImageBytes  int64 // 0 means unlimited
	MaxImagePixels int   // 0 means unlimited

	mu       sync.Mutex
	reserved map[string]struct{}
}

// NewLocalHost creates a LocalHost writing to dir and linking under baseURL.
func NewLocalHost(dir, baseURL string) *LocalHost {
	return &LocalHost{
		Dir:            dir,
		BaseURL:        strings.TrimSuffix(baseURL, "/"),
		MaxImageWidth:  defaultMaxImageWidth,
		MaxImageBytes:  defaultMaxImageBytes,
		MaxImagePixels: defaultMaxImagePixels,
		reserved:       make(map[string]struct{}),
	}
}

// Upload writes the batch to disk. If any file fails, files already written
// by this batch are removed.
func (h *LocalHost) Upload(ctx context.Context, files []File, single bool) ([]string, error) {
	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}

	var (
		mu      sync.Mutex
		written []string
	)
	urls, err := Batch(ctx, files, single, func(ctx context.Context, f File) (string, error) {
		name, err := h.store(ctx, f)
		if name != "" {
			mu.Lock()
			written = append(written, name)
			mu.Unlock()
		}
		if err != nil {
			return "", err
		}
		return h.BaseURL + "/" + path.Base(name), nil
	})
	for _, name := range written {
		h.release(name)
	}
	if err != nil {
		for _, name := range written {
			_ = os.Remove(filepath.Join(h.Dir, name))
		}
		return nil, err
	}
	return urls, nil
}

// store writes f and returns the filename it used, even on a failed write,
// so the caller can clean up.
func (h *LocalHost) store(ctx context.Context, f File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	isImage := f.IsImage()
	var ext string
	if !isImage {
		var err error
		if ext, err = videoExt(f); err != nil {
			return "", err
		}
	}
	src, err := f.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if isImage {
		if h.MaxImageBytes > 0 && f.Size > h.MaxImageBytes {
			return "", fmt.Errorf("%w: %d bytes", ErrImageTooLarge, f.Size)
		}
		data, err := h.processImage(src)
		if err != nil {
			return "", err
		}
		name := h.reserve(f.Name, ".jpg")
		if err := os.WriteFile(filepath.Join(h.Dir, name), data, 0o644); err != nil {
			return name, fmt.Errorf("write image: %w", err)
		}
		return name, nil
	}

	name := h.reserve(f.Name, ext)
	dst, err := os.OpenFile(filepath.Join(h.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return name, fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return name, fmt.Errorf("copy file: %w", err)
	}
	return name, dst.Close()
}

// videoExt returns the on-disk extension for a video, taken from the allow
// list by file extension or, when the name has none, by media type.
func videoExt(f File) (string, error) {
	if ext := f.Ext(); ext != "" {
		for _, allowed := range videoExts {
			if ext == allowed {
				return ext, nil
			}
		}
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	mediaType, _, err := mime.ParseMediaType(f.ContentType)
	if err == nil {
		if ext, ok := videoExts[strings.ToLower(mediaType)]; ok {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedType, f.ContentType)
}

// processImage decodes an image, scales it down to MaxImageWidth when wider,
// and encodes it as JPEG. The header is checked against MaxImagePixels
// before the pixels are decoded.
func (h *LocalHost) processImage(src io.Reader) ([]byte, error) {
	if h.MaxImageBytes > 0 {
		src = io.LimitReader(src, h.MaxImageBytes+1)
	}
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if h.MaxImageBytes > 0 && int64(len(raw)) > h.MaxImageBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrImageTooLarge, h.MaxImageBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("decode image: empty %dx%d", cfg.Width, cfg.Height)
	}
	if limit := h.MaxImagePixels; limit > 0 && cfg.Width > limit/cfg.Height {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, hgt := bounds.Dx(), bounds.Dy()
	if limit := h.MaxImageWidth; limit > 0 && w > limit {
		newH := hgt * limit / w
		dst := image.NewRGBA(image.Rect(0, 0, limit, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Remove deletes files previously returned by Upload. URLs that do not
// point directly under BaseURL are ignored.
func (h *LocalHost) Remove(_ context.Context, urls []string) error {
	var errs []error
	for _, u := range urls {
		name, ok := strings.CutPrefix(u, h.BaseURL+"/")
		if !ok || name == "" || name != path.Base(name) || name == ".." {
			continue
		}
		if err := os.Remove(filepath.Join(h.Dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// reserve picks a filename that is neither on disk nor claimed by an
// in-flight upload, appending a counter on collision.
func (h *LocalHost) reserve(original, ext string) string {
	base := slug.Make(strings.TrimSuffix(original, filepath.Ext(original)))
	if base == "" {
		base = uuid.NewString()[:8]
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.reserved == nil {
		h.reserved = make(map[string]struct{})
	}
	candidate := base + ext
	for counter := 2; ; counter++ {
		_, taken := h.reserved[candidate]
		if !taken {
			if _, err := os.Stat(filepath.Join(h.Dir, candidate)); err != nil {
				break
			}
		}
		candidate = fmt.Sprintf("%s-%d%s", base, counter, ext)
	}
	h.reserved[candidate] = struct{}{}
	return candidate
}

func (h *LocalHost) release(name string) {
	h.mu.Lock()
	delete(h.reserved, name)
	h.mu.Unlock()
}
