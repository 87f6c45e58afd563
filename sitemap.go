package codecrafters

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

const sitemapDate = "2006-01-02"

func (a *App) renderSitemap(c echo.Context, challenges []Challenge, solutions []Solution) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
		{Loc: BuildURL(base, "challenges")},
		{Loc: BuildURL(base, "solutions")},
	}
	for _, ch := range challenges {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "challenges", ch.Slug),
			LastMod: ch.CreatedAt.Format(sitemapDate),
		})
	}
	profiles := make(map[string]struct{})
	for _, s := range solutions {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "solutions", s.ID),
			LastMod: s.CreatedAt.Format(sitemapDate),
		})
		if _, seen := profiles[s.User.Username]; !seen {
			profiles[s.User.Username] = struct{}{}
			urls = append(urls, sitemapURL{Loc: BuildURL(base, "profile", s.User.Username)})
		}
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
