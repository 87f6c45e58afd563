package codecrafters

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type apiError struct {
	Error string `json:"error"`
}

type slugItem struct {
	Slug string `json:"slug"`
}

// apiChallengeSlugs lists every challenge path, newest first.
func (a *App) apiChallengeSlugs(c echo.Context) error {
	slugs, err := a.Store.ListChallengeSlugs(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]slugItem, 0, len(slugs))
	for _, s := range slugs {
		out = append(out, slugItem{Slug: s})
	}
	return c.JSON(http.StatusOK, out)
}

func (a *App) apiChallenge(c echo.Context) error {
	ch, err := a.Store.GetChallengeBySlug(c.Request().Context(), c.Param("slug"))
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, apiError{Error: challengeNotFound})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ch)
}

func (a *App) apiCreateChallenge(c echo.Context) error {
	var nc NewChallenge
	if err := c.Bind(&nc); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Error: "invalid request body"})
	}
	ch, err := a.createChallenge(c.Request().Context(), CurrentSession(c).User.ID, nc)
	switch {
	case errors.Is(err, ErrNoImages), errors.Is(err, ErrInvalidChallenge):
		return c.JSON(http.StatusUnprocessableEntity, apiError{Error: err.Error()})
	case err != nil:
		return err
	}
	return c.JSON(http.StatusCreated, ch)
}
