package views

import (
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/eringen/codecrafters"
	"github.com/eringen/codecrafters/markdown"
)

// TimeAgo formats t relative to now, e.g. "3 days ago".
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

// HashTags prefixes each tag with '#'.
func HashTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, "#"+t)
		}
	}
	return out
}

// Initials is the avatar fallback for users without an image.
func Initials(name string) string {
	var b strings.Builder
	for _, f := range strings.Fields(name) {
		for _, r := range f {
			b.WriteRune(r)
			break
		}
		if b.Len() >= 2 {
			break
		}
	}
	return strings.ToUpper(b.String())
}

func renderMarkdown(content string) (template.HTML, error) {
	b, err := markdown.Render(content)
	if err != nil {
		return "", err
	}
	// markdown.Render output is sanitized.
	return template.HTML(b), nil
}

var funcs = template.FuncMap{
	"timeAgo":  TimeAgo,
	"hashTags": HashTags,
	"initials": Initials,
	"markdown": renderMarkdown,
	"slides":   Slides,
	"humanBytes": func(n int64) string {
		return humanize.Bytes(uint64(n))
	},
	"year": func() int { return time.Now().Year() },
	"websiteJsonLD": func(cfg codecrafters.SiteConfig) template.JS {
		return template.JS(codecrafters.WebsiteJsonLD(cfg))
	},
	"challengeJsonLD": func(ch codecrafters.Challenge, author *codecrafters.User, cfg codecrafters.SiteConfig) template.JS {
		return template.JS(codecrafters.ChallengeJsonLD(ch, author, cfg))
	},
}
