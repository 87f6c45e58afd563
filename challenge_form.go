package codecrafters

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"

	"github.com/eringen/codecrafters/asset"
	"github.com/eringen/codecrafters/submission"
)

const submitFailedAlert = "Something went wrong while submitting the challenge. Please try again."

func (a *App) submitOptions() submission.Options {
	return submission.Options{
		Types:        ChallengeTypeNames(),
		Difficulties: DifficultyNames(),
	}
}

func (a *App) formView(c echo.Context, f *submission.Form) FormView {
	opts := a.submitOptions()
	return FormView{
		Title:        f.Title,
		Type:         f.Type,
		Difficulty:   f.Difficulty,
		Description:  f.Description,
		Types:        opts.Types,
		Difficulties: opts.Difficulties,
		ImageError:   f.ImageError,
		Session:      CurrentSession(c),
	}
}

func (a *App) handleChallengeForm(c echo.Context) error {
	f := submission.NewForm(string(TypeFrontend))
	return Render(c, a.Views.ChallengeForm(a.formView(c, f)))
}

func (a *App) handleChallengeSubmit(c echo.Context) error {
	sess := CurrentSession(c)

	f := submission.NewForm(c.FormValue("type"))
	f.Title = c.FormValue("title")
	f.Difficulty = c.FormValue("difficulty")
	f.Description = a.editor.Edit(c.FormValue("description"))

	var images, video []asset.File
	var rejected []submission.Rejected
	mf, err := c.MultipartForm()
	switch {
	case err == nil:
		var r []submission.Rejected
		images, r = submission.ImagePicker().Pick(multipartFiles(mf, "images"))
		rejected = append(rejected, r...)
		video, r = submission.VideoPicker().Pick(multipartFiles(mf, "video"))
		rejected = append(rejected, r...)
	case !errors.Is(err, http.ErrNotMultipart):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid upload").SetInternal(err)
	}
	f.SetImages(images)
	f.SetVideo(video)

	creator := submission.CreatorFunc(func(ctx context.Context, req submission.Request) error {
		_, err := a.createChallenge(ctx, sess.User.ID, NewChallenge{
			Title:      req.Title,
			Type:       ChallengeType(req.Type),
			Difficulty: Difficulty(req.Difficulty),
			ImagesURL:  req.ImagesURL,
			BriefDesc:  req.BriefDesc,
			VideoURL:   req.VideoURL,
		})
		return err
	})

	redirect, err := f.Submit(c.Request().Context(), a.submitOptions(), a.Uploader, creator)
	if err != nil {
		view := a.formView(c, f)
		view.Rejected = rejectionMessages(rejected)
		code := http.StatusUnprocessableEntity
		switch {
		case errors.Is(err, submission.ErrMissingFields):
			view.Alert = err.Error()
		case errors.Is(err, submission.ErrNoImages):
		default:
			c.Logger().Errorf("submit challenge %q: %v", f.Title, err)
			view.Alert = submitFailedAlert
			code = http.StatusBadGateway
		}
		return RenderStatus(c, code, a.Views.ChallengeForm(view))
	}

	if c.Request().Header.Get("HX-Request") == "true" {
		c.Response().Header().Set("HX-Redirect", redirect)
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, redirect)
}

// createChallenge persists a challenge and generates its page so the first
// visitor is served from the cache.
func (a *App) createChallenge(ctx context.Context, authorID string, nc NewChallenge) (Challenge, error) {
	ch, err := a.Store.CreateChallenge(ctx, authorID, nc)
	if err != nil {
		return Challenge{}, err
	}
	if err := a.Pages.Refresh(ctx, ch.Slug); err != nil {
		a.Echo.Logger.Warnf("generate page %s: %v", ch.Slug, err)
	}
	return ch, nil
}

func multipartFiles(mf *multipart.Form, field string) []asset.File {
	headers := mf.File[field]
	files := make([]asset.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, asset.FromMultipart(fh))
	}
	return files
}

func rejectionMessages(rejected []submission.Rejected) []string {
	out := make([]string, 0, len(rejected))
	for _, r := range rejected {
		var why string
		switch r.Reason {
		case submission.ReasonTooLarge:
			why = "larger than " + humanize.Bytes(submission.VideoMaxSize)
		case submission.ReasonTooMany:
			why = "only one video can be attached"
		default:
			why = "file type not accepted"
		}
		out = append(out, fmt.Sprintf("%s: %s", r.File.Name, why))
	}
	return out
}
