// Package codecrafters is a coding challenge site built with Go, Echo, and templ.
// It serves challenge pages, a challenge submission form with image and video
// uploads, solutions, profiles, a small JSON API, RSS, and a sitemap.
//
// Views are provided through the ViewFuncs struct; codecrafters owns the
// handler logic, middleware, page cache, and database operations.
package codecrafters

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/codecrafters/asset"
	"github.com/eringen/codecrafters/markdown"
)

// ViewFuncs holds the templ components the app calls when rendering pages.
type ViewFuncs struct {
	Home          func(challenges []Challenge, solutions []Solution, sess Session) templ.Component
	ChallengeList func(challenges []Challenge, sess Session) templ.Component
	// ChallengeDetail is prerendered into the page cache, so it must not
	// depend on the viewer.
	ChallengeDetail func(ch Challenge, author *User, meta PageMeta) templ.Component
	ChallengeForm   func(form FormView) templ.Component
	SolutionList    func(solutions []Solution, sess Session) templ.Component
	Solution        func(s Solution, sess Session) templ.Component
	Profile         func(u User, solutions []Solution, sess Session) templ.Component
	Login           func(showError bool, csrfToken string) templ.Component
	NotFound        func(message string) templ.Component
	ServerError     func() templ.Component
}

// FormView is everything the submission form template needs to redraw
// itself after a failed submit.
type FormView struct {
	Title        string
	Type         string
	Difficulty   string
	Description  string
	Types        []string
	Difficulties []string

	Alert      string   // blocking message shown above the form
	ImageError bool     // inline message under the image picker
	Rejected   []string // files the pickers refused, with reasons

	Session Session
}

// App is the central application. It wires together the store, page cache,
// asset host, handlers, middleware, and views.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Uploader asset.Uploader
	Pages    *PageCache
	Views    ViewFuncs

	editor       markdown.Editor
	loginLimiter *LoginLimiter
	pageStore    PageStore
	customRoutes []func(*App)
	closers      []func() error
}

// New creates an App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  views,
		editor: markdown.TextareaEditor{},
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup opens the backing services, generates the known challenge pages,
// and registers middleware and routes. Start calls it; tests call it
// directly and drive a.Echo with httptest.
func (a *App) Setup(ctx context.Context) error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("codecrafters: SessionSecret is required")
	}

	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("codecrafters: init store: %w", err)
		}
		a.Store = store
		a.closers = append(a.closers, store.Close)
	}

	if a.Uploader == nil {
		up, err := a.newUploader()
		if err != nil {
			return fmt.Errorf("codecrafters: init asset host: %w", err)
		}
		a.Uploader = up
	}

	if a.pageStore == nil {
		ps, err := a.newPageStore(ctx)
		if err != nil {
			return fmt.Errorf("codecrafters: init page store: %w", err)
		}
		a.pageStore = ps
	}

	a.Pages = NewPageCache(a.pageStore, a.renderChallengePage, a.Config.PageCacheTTL)
	a.Pages.logf = a.Echo.Logger.Warnf
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}

	slugs, err := a.Store.ListChallengeSlugs(ctx)
	if err != nil {
		return fmt.Errorf("codecrafters: list challenge paths: %w", err)
	}
	if err := a.Pages.Prime(ctx, slugs); err != nil {
		return fmt.Errorf("codecrafters: generate challenge pages: %w", err)
	}
	a.Echo.Logger.Infof("generated %d challenge pages", len(a.Pages.Paths()))
	return nil
}

// Start sets the app up and serves until the server is closed.
func (a *App) Start(ctx context.Context) error {
	if err := a.Setup(ctx); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) newUploader() (asset.Uploader, error) {
	switch a.Config.AssetHost {
	case "local":
		return asset.NewLocalHost(a.uploadDir(), "/uploads"), nil
	case "cloudinary":
		return asset.NewCloudinary(a.Config.CloudinaryURL, "codecrafters")
	default:
		return nil, fmt.Errorf("unknown asset host %q", a.Config.AssetHost)
	}
}

func (a *App) newPageStore(ctx context.Context) (PageStore, error) {
	if a.Config.RedisAddr == "" {
		return NewMemoryPageStore(), nil
	}
	rs, err := NewRedisPageStore(ctx, a.Config.RedisAddr, a.Config.RedisPassword, a.Config.RedisDB)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, rs.Close)
	return rs, nil
}

func (a *App) uploadDir() string {
	return filepath.Join(a.Config.StaticDir, "uploads")
}

func (a *App) setupRoutes() {
	e := a.Echo

	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/public/style.css", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS)))))
	e.Static("/public", a.Config.StaticDir)
	if a.Config.AssetHost == "local" {
		e.Static("/uploads", a.uploadDir())
	}
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/challenges/", a.handleChallengeList)
	e.GET("/challenges/new/", a.handleChallengeForm, a.requireSession)
	e.POST("/challenges/new/", a.handleChallengeSubmit, a.requireSession)
	e.GET("/challenges/:slug/", a.handleChallenge)
	e.GET("/solutions/", a.handleSolutionList)
	e.GET("/solutions/:id/", a.handleSolution)
	e.GET("/profile/:username/", a.handleProfile)

	e.GET("/login/", a.handleLoginPage)
	e.POST("/login/", a.handleLogin)
	e.POST("/logout/", handleLogout)

	api := e.Group("/api")
	api.GET("/challenges/slugs", a.apiChallengeSlugs)
	api.GET("/challenges/:slug", a.apiChallenge)
	api.POST("/challenges", a.apiCreateChallenge, a.requireSessionJSON)
}

// Close releases the resources Setup opened.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
