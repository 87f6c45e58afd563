package codecrafters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const challengeNotFound = "Challenge not found"

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	challenges, err := a.Store.ListChallenges(ctx)
	if err != nil {
		return err
	}
	solutions, err := a.Store.ListSolutions(ctx)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(firstN(challenges, 6), firstN(solutions, 6), CurrentSession(c)))
}

func (a *App) handleChallengeList(c echo.Context) error {
	challenges, err := a.Store.ListChallenges(c.Request().Context())
	if err != nil {
		return err
	}
	if t := ChallengeType(c.QueryParam("type")); t.Valid() {
		challenges = filterByType(challenges, t)
	}
	return Render(c, a.Views.ChallengeList(challenges, CurrentSession(c)))
}

// handleChallenge serves the generated page for a slug. Slugs outside the
// generated set are rendered on this request and kept for the next one.
func (a *App) handleChallenge(c echo.Context) error {
	slug := c.Param("slug")
	if slug == "" {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(challengeNotFound))
	}
	body, err := a.Pages.Get(c.Request().Context(), slug)
	if errors.Is(err, ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(challengeNotFound))
	}
	if err != nil {
		return err
	}
	if ttl := a.Config.PageCacheTTL; ttl > 0 {
		c.Response().Header().Set("Cache-Control",
			"public, s-maxage="+strconv.Itoa(int(ttl.Seconds()))+", stale-while-revalidate")
	}
	return c.HTMLBlob(http.StatusOK, body)
}

// renderChallengePage is the PageCache generator for challenge pages.
func (a *App) renderChallengePage(ctx context.Context, slug string) ([]byte, error) {
	ch, err := a.Store.GetChallengeBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	var author *User
	if ch.AuthorID != "" {
		u, err := a.Store.GetUserByID(ctx, ch.AuthorID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("load author of %s: %w", slug, err)
		}
		if err == nil {
			author = &u
		}
	}
	meta := PageMeta{
		Title:       ch.Title + " | " + a.Config.Name,
		Description: ch.ShortDesc,
		URL:         BuildURL(a.Config.URL, "challenges", ch.Slug),
		OGType:      "article",
	}
	body, err := RenderBytes(ctx, a.Views.ChallengeDetail(ch, author, meta))
	if err != nil {
		return nil, fmt.Errorf("render challenge %s: %w", slug, err)
	}
	return body, nil
}

func (a *App) handleSolutionList(c echo.Context) error {
	solutions, err := a.Store.ListSolutions(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.SolutionList(solutions, CurrentSession(c)))
}

func (a *App) handleSolution(c echo.Context) error {
	s, err := a.Store.GetSolution(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound("Solution not found"))
	}
	if err != nil {
		return err
	}
	return Render(c, a.Views.Solution(s, CurrentSession(c)))
}

func (a *App) handleProfile(c echo.Context) error {
	ctx := c.Request().Context()
	u, err := a.Store.GetUserByUsername(ctx, c.Param("username"))
	if errors.Is(err, ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound("User not found"))
	}
	if err != nil {
		return err
	}
	solutions, err := a.Store.ListSolutionsByUser(ctx, u.ID)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Profile(u, solutions, CurrentSession(c)))
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	challenges, err := a.Store.ListChallenges(ctx)
	if err != nil {
		return err
	}
	solutions, err := a.Store.ListSolutions(ctx)
	if err != nil {
		return err
	}
	return a.renderSitemap(c, challenges, solutions)
}

func (a *App) handleFeed(c echo.Context) error {
	challenges, err := a.Store.ListChallenges(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, challenges)
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nDisallow: /challenges/new/\nDisallow: /api/\nSitemap: " + a.Config.URL + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound("Page not found"))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

func filterByType(challenges []Challenge, t ChallengeType) []Challenge {
	var out []Challenge
	for _, ch := range challenges {
		if ch.Type == t {
			out = append(out, ch)
		}
	}
	return out
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
