package codecrafters

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	sessionName       = "cc_session"
	sessionUserKey    = "user_id"
	sessionContextKey = "codecrafters.session"
)

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.NonWWWRedirect())

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	// Room for a full submission: several images plus one video.
	e.Use(middleware.BodyLimit("64M"))

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return isAssetPath(c.Request().URL.Path)
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; font-src 'self'; connect-src 'self'; media-src 'self' https:",
		HSTSMaxAge:            31536000,
		HSTSExcludeSubdomains: false,
	}))

	e.Use(session.Middleware(a.newSessionStore()))

	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		ContextKey:     middleware.DefaultCSRFConfig.ContextKey,
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
		CookieSecure:   a.Config.CookieSecure,
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	}))

	e.Use(a.resolveSession)

	e.Use(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return isAssetPath(path) ||
				strings.HasPrefix(path, "/api/") ||
				isDiscoveryPath(path)
		},
	}))

	e.Use(cacheControlMiddleware)
	e.Use(uploadHeadersMiddleware)
}

func isAssetPath(path string) bool {
	return strings.HasPrefix(path, "/public/") || strings.HasPrefix(path, "/uploads/")
}

func isDiscoveryPath(path string) bool {
	return path == "/sitemap.xml" || path == "/feed.xml" || path == "/robots.txt"
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		h := c.Response().Header()
		switch {
		case isAssetPath(path):
			h.Set("Cache-Control", "public, max-age=31536000, immutable")
		case isDiscoveryPath(path):
			h.Set("Cache-Control", "public, max-age=86400")
		case strings.HasPrefix(path, "/api/"),
			strings.HasPrefix(path, "/challenges/new"),
			strings.HasPrefix(path, "/login"),
			strings.HasPrefix(path, "/logout"):
			h.Set("Cache-Control", "no-store")
		default:
			// Pages carry the viewer's navigation.
			h.Set("Cache-Control", "private, no-cache")
		}
		return next(c)
	}
}

// uploadPolicy stops a user upload from running script on the site origin,
// whatever its bytes turn out to be.
const uploadPolicy = "default-src 'none'; img-src 'self'; media-src 'self'; sandbox"

// uploadHeadersMiddleware locks down files served from /uploads/. Only the
// formats the asset host writes are served inline.
func uploadHeadersMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		if strings.HasPrefix(path, "/uploads/") {
			h := c.Response().Header()
			h.Set("Content-Security-Policy", uploadPolicy)
			h.Set("X-Content-Type-Options", "nosniff")
			switch strings.ToLower(filepath.Ext(path)) {
			case ".jpg", ".mp4", ".mkv":
			default:
				h.Set("Content-Disposition", "attachment")
			}
		}
		return next(c)
	}
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 24 * 7,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// Session is the viewer of the current request. The zero value is an
// anonymous visitor.
type Session struct {
	User      *User
	CSRFToken string
}

// Authenticated reports whether the request belongs to a signed-in user.
func (s Session) Authenticated() bool {
	return s.User != nil
}

// resolveSession loads the signed-in user once per request and stores the
// result on the context for CurrentSession.
func (a *App) resolveSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if isAssetPath(c.Request().URL.Path) {
			return next(c)
		}
		s := Session{CSRFToken: CsrfToken(c)}
		if cs, err := session.Get(sessionName, c); err == nil {
			if id, ok := cs.Values[sessionUserKey].(string); ok && id != "" {
				u, err := a.Store.GetUserByID(c.Request().Context(), id)
				switch {
				case err == nil:
					s.User = &u
				case !errors.Is(err, ErrNotFound):
					c.Logger().Warnf("resolve session user %s: %v", id, err)
				}
			}
		}
		c.Set(sessionContextKey, s)
		return next(c)
	}
}

// CurrentSession returns the session resolved for this request.
func CurrentSession(c echo.Context) Session {
	s, _ := c.Get(sessionContextKey).(Session)
	return s
}

// requireSession sends anonymous visitors back to the landing page.
func (a *App) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !CurrentSession(c).Authenticated() {
			return c.Redirect(http.StatusSeeOther, "/")
		}
		return next(c)
	}
}

func (a *App) requireSessionJSON(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !CurrentSession(c).Authenticated() {
			return c.JSON(http.StatusUnauthorized, apiError{Error: "authentication required"})
		}
		return next(c)
	}
}

func setUserSession(c echo.Context, userID string) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values[sessionUserKey] = userID
	return sess.Save(c.Request(), c.Response())
}

func clearUserSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
