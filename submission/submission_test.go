package submission

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/codecrafters/asset"
)

var testOpts = Options{
	Types:        []string{"Frontend", "Backend", "Fullstack"},
	Difficulties: []string{"Beginner", "Intermediate", "Advanced"},
}

type fakeUploader struct {
	mu       sync.Mutex
	calls    int
	removed  []string
	failWhen func(files []asset.File, single bool) error
}

func (u *fakeUploader) Remove(_ context.Context, urls []string) error {
	u.mu.Lock()
	u.removed = append(u.removed, urls...)
	u.mu.Unlock()
	return nil
}

func (u *fakeUploader) Upload(_ context.Context, files []asset.File, single bool) ([]string, error) {
	u.mu.Lock()
	u.calls++
	u.mu.Unlock()
	if u.failWhen != nil {
		if err := u.failWhen(files, single); err != nil {
			return nil, err
		}
	}
	return asset.Batch(context.Background(), files, single, func(_ context.Context, f asset.File) (string, error) {
		return "https://cdn.example/" + f.Name, nil
	})
}

type fakeCreator struct {
	reqs []Request
	err  error
}

func (c *fakeCreator) CreateChallenge(_ context.Context, req Request) error {
	c.reqs = append(c.reqs, req)
	return c.err
}

func image(name string) asset.File {
	return asset.FromBytes(name, "image/png", []byte("png"))
}

func video(name string, size int64) asset.File {
	f := asset.FromBytes(name, "video/mp4", nil)
	f.Size = size
	return f
}

func filledForm() *Form {
	f := NewForm("Frontend")
	f.Title = "Build a Todo App"
	f.Difficulty = "Beginner"
	return f
}

func TestSubmitTodoAppScenario(t *testing.T) {
	f := filledForm()
	f.SetImages([]asset.File{image("todo.png")})

	up := &fakeUploader{}
	cr := &fakeCreator{}
	redirect, err := f.Submit(context.Background(), testOpts, up, cr)
	require.NoError(t, err)

	assert.Equal(t, "/challenges/", redirect)
	require.Len(t, cr.reqs, 1)
	req := cr.reqs[0]
	assert.Equal(t, "Build a Todo App", req.Title)
	assert.Equal(t, "Frontend", req.Type)
	assert.Equal(t, "Beginner", req.Difficulty)
	assert.Len(t, req.ImagesURL, 1)
	assert.Nil(t, req.VideoURL)
	assert.Contains(t, req.BriefDesc, "## Brief")
	assert.Equal(t, 2, up.calls)
	assert.False(t, f.Loading())
}

func TestSubmitWithVideoUsesFirstURL(t *testing.T) {
	f := filledForm()
	f.SetImages([]asset.File{image("a.png"), image("b.png")})
	f.SetVideo([]asset.File{video("demo.mp4", 1024)})

	cr := &fakeCreator{}
	_, err := f.Submit(context.Background(), testOpts, &fakeUploader{}, cr)
	require.NoError(t, err)

	require.Len(t, cr.reqs, 1)
	require.NotNil(t, cr.reqs[0].VideoURL)
	assert.Equal(t, "https://cdn.example/demo.mp4", *cr.reqs[0].VideoURL)
	assert.Equal(t, []string{"https://cdn.example/a.png", "https://cdn.example/b.png"}, cr.reqs[0].ImagesURL)
}

func TestSubmitMissingFieldsMakesNoCalls(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Form)
	}{
		{"empty title", func(f *Form) { f.Title = "" }},
		{"blank title", func(f *Form) { f.Title = "   " }},
		{"no type", func(f *Form) { f.Type = "" }},
		{"unknown type", func(f *Form) { f.Type = "Mobile" }},
		{"no difficulty", func(f *Form) { f.Difficulty = "" }},
		{"unknown difficulty", func(f *Form) { f.Difficulty = "Impossible" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := filledForm()
			f.SetImages([]asset.File{image("a.png")})
			tt.edit(f)

			up := &fakeUploader{}
			cr := &fakeCreator{}
			_, err := f.Submit(context.Background(), testOpts, up, cr)
			require.ErrorIs(t, err, ErrMissingFields)
			assert.Zero(t, up.calls)
			assert.Empty(t, cr.reqs)
			assert.False(t, f.ImageError)
		})
	}
}

func TestSubmitWithoutImagesRaisesFlag(t *testing.T) {
	f := filledForm()
	up := &fakeUploader{}
	cr := &fakeCreator{}

	_, err := f.Submit(context.Background(), testOpts, up, cr)
	require.ErrorIs(t, err, ErrNoImages)
	assert.True(t, f.ImageError)
	assert.Zero(t, up.calls)
	assert.Empty(t, cr.reqs)

	f.SetImages(nil)
	assert.True(t, f.ImageError, "empty set keeps the error")

	f.SetImages([]asset.File{image("a.png")})
	assert.False(t, f.ImageError, "adding an image clears the error without a submit")
}

func TestSubmitUploadFailureSkipsCreate(t *testing.T) {
	boom := errors.New("host unavailable")
	tests := []struct {
		name     string
		failWhen func([]asset.File, bool) error
	}{
		{"images fail", func(_ []asset.File, single bool) error {
			if !single {
				return boom
			}
			return nil
		}},
		{"video fails", func(_ []asset.File, single bool) error {
			if single {
				return boom
			}
			return nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := filledForm()
			f.SetImages([]asset.File{image("a.png")})
			cr := &fakeCreator{}

			_, err := f.Submit(context.Background(), testOpts, &fakeUploader{failWhen: tt.failWhen}, cr)
			require.ErrorIs(t, err, boom)
			assert.Empty(t, cr.reqs)
			assert.False(t, f.Loading())
			assert.Equal(t, "Build a Todo App", f.Title, "form keeps its values for retry")
		})
	}
}

func TestSubmitCreateFailureClearsLoading(t *testing.T) {
	f := filledForm()
	f.SetImages([]asset.File{image("a.png")})
	cr := &fakeCreator{err: errors.New("db locked")}

	_, err := f.Submit(context.Background(), testOpts, &fakeUploader{}, cr)
	require.Error(t, err)
	assert.Len(t, cr.reqs, 1)
	assert.False(t, f.Loading())
}

func TestSubmitVideoFailureRemovesUploadedImages(t *testing.T) {
	f := filledForm()
	f.SetImages([]asset.File{image("a.png"), image("b.png")})
	f.SetVideo([]asset.File{video("demo.mp4", 10)})

	// The video fails only after the image batch has finished.
	imagesDone := make(chan struct{})
	up := &fakeUploader{}
	fails := asset.UploaderFunc(func(ctx context.Context, files []asset.File, single bool) ([]string, error) {
		if single {
			<-imagesDone
			return nil, errors.New("video host down")
		}
		defer close(imagesDone)
		return up.Upload(ctx, files, single)
	})
	host := struct {
		asset.Uploader
		asset.Remover
	}{fails, up}

	cr := &fakeCreator{}
	_, err := f.Submit(context.Background(), testOpts, host, cr)
	require.Error(t, err)
	assert.Empty(t, cr.reqs)
	assert.ElementsMatch(t, []string{"https://cdn.example/a.png", "https://cdn.example/b.png"}, up.removed)
}

func TestSubmitCreateFailureRemovesUploads(t *testing.T) {
	f := filledForm()
	f.SetImages([]asset.File{image("a.png")})
	f.SetVideo([]asset.File{video("demo.mp4", 10)})

	up := &fakeUploader{}
	_, err := f.Submit(context.Background(), testOpts, up, &fakeCreator{err: errors.New("db locked")})
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"https://cdn.example/a.png", "https://cdn.example/demo.mp4"}, up.removed)
}

func TestSubmitSuccessKeepsUploads(t *testing.T) {
	f := filledForm()
	f.SetImages([]asset.File{image("a.png")})

	up := &fakeUploader{}
	_, err := f.Submit(context.Background(), testOpts, up, &fakeCreator{})
	require.NoError(t, err)
	assert.Empty(t, up.removed)
}

func TestSubmitRejectsReentry(t *testing.T) {
	f := filledForm()
	f.SetImages([]asset.File{image("a.png")})

	started := make(chan struct{})
	release := make(chan struct{})
	up := asset.UploaderFunc(func(ctx context.Context, files []asset.File, single bool) ([]string, error) {
		if !single {
			close(started)
			<-release
		}
		return nil, nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background(), testOpts, up, &fakeCreator{})
		done <- err
	}()

	<-started
	assert.True(t, f.Loading())
	_, err := f.Submit(context.Background(), testOpts, up, &fakeCreator{})
	assert.ErrorIs(t, err, ErrSubmitting)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, f.Loading())
}

func TestVideoPickerSizeCeiling(t *testing.T) {
	p := VideoPicker()

	accepted, rejected := p.Pick([]asset.File{video("ok.mp4", VideoMaxSize)})
	assert.Len(t, accepted, 1)
	assert.Empty(t, rejected)

	accepted, rejected = p.Pick([]asset.File{video("big.mp4", VideoMaxSize+1)})
	assert.Empty(t, accepted)
	require.Len(t, rejected, 1)
	assert.Equal(t, ReasonTooLarge, rejected[0].Reason)
}

func TestVideoPickerSingleFile(t *testing.T) {
	accepted, rejected := VideoPicker().Pick([]asset.File{video("a.mp4", 10), video("b.mkv", 10)})
	assert.Empty(t, accepted)
	assert.Len(t, rejected, 2)
	for _, r := range rejected {
		assert.Equal(t, ReasonTooMany, r.Reason)
	}
}

func TestImagePickerTypes(t *testing.T) {
	files := []asset.File{
		asset.FromBytes("a.jpg", "", nil),
		asset.FromBytes("b.JPEG", "", nil),
		asset.FromBytes("c", "image/png", nil),
		asset.FromBytes("d.webp", "application/octet-stream", nil),
		asset.FromBytes("e.gif", "image/gif", nil),
		asset.FromBytes("f.mp4", "video/mp4", nil),
	}
	accepted, rejected := ImagePicker().Pick(files)

	var names []string
	for _, f := range accepted {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"a.jpg", "b.JPEG", "c", "d.webp"}, names)
	assert.Len(t, rejected, 2)
}

func TestVideoPickerRequiresAllowedExtension(t *testing.T) {
	files := []asset.File{
		asset.FromBytes("pwn.html", "video/mp4", []byte("<script>alert(document.cookie)</script>")),
		asset.FromBytes("clip.mp4", "text/html", nil),
		asset.FromBytes("clip", "", nil),
	}
	accepted, rejected := VideoPicker().Pick(files)
	assert.Empty(t, accepted)
	require.Len(t, rejected, 3)
	for _, r := range rejected {
		assert.Equal(t, ReasonType, r.Reason)
	}

	accepted, _ = VideoPicker().Pick([]asset.File{asset.FromBytes("clip.mkv", "video/x-matroska", nil)})
	assert.Len(t, accepted, 1)
}

func TestNewFormSeedsTemplate(t *testing.T) {
	f := NewForm("Backend")
	assert.Equal(t, "Backend", f.Type)
	assert.Contains(t, f.Description, "## Requirements")
	assert.False(t, f.Loading())
}
