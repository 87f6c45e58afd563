package codecrafters

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      BuildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ChallengeJsonLD returns a JSON-LD string describing a challenge as a
// LearningResource.
func ChallengeJsonLD(ch Challenge, author *User, cfg SiteConfig) string {
	pageURL := BuildURL(cfg.URL, "challenges", ch.Slug)
	data := map[string]interface{}{
		"@context":             "https://schema.org",
		"@type":                "LearningResource",
		"name":                 ch.Title,
		"description":          ch.ShortDesc,
		"learningResourceType": "Coding challenge",
		"educationalLevel":     string(ch.Difficulty),
		"keywords":             string(ch.Type),
		"dateCreated":          ch.CreatedAt.Format("2006-01-02"),
		"url":                  pageURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   pageURL,
		},
	}
	if len(ch.ImagesURL) > 0 {
		data["image"] = ch.ImagesURL
	}
	if author != nil {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  author.Name,
		}
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
