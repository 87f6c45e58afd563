// Package submission implements the create-challenge workflow: field and
// attachment validation, the parallel asset upload and the single create call.
package submission

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/codecrafters/asset"
	"github.com/eringen/codecrafters/markdown"
)

var (
	// ErrMissingFields is returned when title, type or difficulty is unset.
	ErrMissingFields = errors.New("please fill all the fields")
	// ErrNoImages is returned when no image is attached.
	ErrNoImages = errors.New("please upload at least one image")
	// ErrSubmitting is returned when Submit is called while a submission is in flight.
	ErrSubmitting = errors.New("submission already in progress")
)

// SuccessRedirect is where the user lands after a successful create.
const SuccessRedirect = "/challenges/"

// Request is the create-challenge call issued after uploads finish.
type Request struct {
	Title      string
	Type       string
	Difficulty string
	ImagesURL  []string
	BriefDesc  string
	VideoURL   *string
}

// Creator persists a challenge.
type Creator interface {
	CreateChallenge(ctx context.Context, req Request) error
}

// CreatorFunc adapts a function to Creator.
type CreatorFunc func(ctx context.Context, req Request) error

// CreateChallenge calls f.
func (f CreatorFunc) CreateChallenge(ctx context.Context, req Request) error {
	return f(ctx, req)
}

// Options are the allowed enumeration values for the select fields.
type Options struct {
	Types        []string
	Difficulties []string
}

// Form is the state of one challenge submission form.
type Form struct {
	Title       string
	Type        string
	Difficulty  string
	Description string

	// ImageError is shown next to the image picker. It is set by a submit
	// with no images and cleared by SetImages once an image is present.
	ImageError bool

	images []asset.File
	video  []asset.File

	mu      sync.Mutex
	loading bool
}

// NewForm returns an empty form whose description is seeded with the
// starter template for challengeType.
func NewForm(challengeType string) *Form {
	return &Form{
		Type:        challengeType,
		Description: markdown.StarterTemplate(challengeType),
	}
}

// SetImages replaces the image attachments and re-evaluates ImageError.
func (f *Form) SetImages(files []asset.File) {
	f.images = files
	if len(f.images) > 0 {
		f.ImageError = false
	}
}

// SetVideo replaces the video attachments.
func (f *Form) SetVideo(files []asset.File) {
	f.video = files
}

// Images returns the current image attachments.
func (f *Form) Images() []asset.File { return f.images }

// Video returns the current video attachments.
func (f *Form) Video() []asset.File { return f.video }

// Loading reports whether a submission is in flight.
func (f *Form) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Validate checks the required fields and attachments without side effects
// other than raising ImageError.
func (f *Form) Validate(opts Options) error {
	if strings.TrimSpace(f.Title) == "" || f.Type == "" || f.Difficulty == "" {
		return ErrMissingFields
	}
	if len(opts.Types) > 0 && !slices.Contains(opts.Types, f.Type) {
		return ErrMissingFields
	}
	if len(opts.Difficulties) > 0 && !slices.Contains(opts.Difficulties, f.Difficulty) {
		return ErrMissingFields
	}
	if len(f.images) == 0 {
		f.ImageError = true
		return ErrNoImages
	}
	return nil
}

// Submit validates the form, uploads images and video concurrently, then
// issues exactly one create call. It returns the redirect target on success.
// Nothing is created if either upload fails, and assets uploaded for a
// submission that fails are removed from hosts implementing asset.Remover.
func (f *Form) Submit(ctx context.Context, opts Options, up asset.Uploader, cr Creator) (string, error) {
	if err := f.Validate(opts); err != nil {
		return "", err
	}

	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return "", ErrSubmitting
	}
	f.loading = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.loading = false
		f.mu.Unlock()
	}()

	var imageURLs, videoURLs []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		urls, err := up.Upload(gctx, f.images, false)
		if err != nil {
			return fmt.Errorf("upload images: %w", err)
		}
		imageURLs = urls
		return nil
	})
	g.Go(func() error {
		urls, err := up.Upload(gctx, f.video, true)
		if err != nil {
			return fmt.Errorf("upload video: %w", err)
		}
		videoURLs = urls
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", discard(ctx, up, err, imageURLs, videoURLs)
	}

	req := Request{
		Title:      strings.TrimSpace(f.Title),
		Type:       f.Type,
		Difficulty: f.Difficulty,
		ImagesURL:  imageURLs,
		BriefDesc:  f.Description,
	}
	if len(videoURLs) > 0 {
		v := videoURLs[0]
		req.VideoURL = &v
	}
	if err := cr.CreateChallenge(ctx, req); err != nil {
		return "", discard(ctx, up, fmt.Errorf("create challenge: %w", err), imageURLs, videoURLs)
	}
	return SuccessRedirect, nil
}

// discard removes orphaned uploads and returns cause, joined with any
// removal failure.
func discard(ctx context.Context, up asset.Uploader, cause error, batches ...[]string) error {
	urls := slices.Concat(batches...)
	if err := asset.Discard(context.WithoutCancel(ctx), up, urls); err != nil {
		return errors.Join(cause, fmt.Errorf("discard uploads: %w", err))
	}
	return cause
}
