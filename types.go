package codecrafters

import (
	"strings"
	"time"
)

// ChallengeType is the category a challenge belongs to.
type ChallengeType string

const (
	TypeFrontend  ChallengeType = "Frontend"
	TypeBackend   ChallengeType = "Backend"
	TypeFullstack ChallengeType = "Fullstack"
)

// ChallengeTypes lists every ChallengeType in display order.
var ChallengeTypes = []ChallengeType{TypeFrontend, TypeBackend, TypeFullstack}

// Difficulty is the level a challenge targets.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Difficulties lists every Difficulty in display order.
var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

// Valid reports whether t is one of ChallengeTypes.
func (t ChallengeType) Valid() bool {
	for _, v := range ChallengeTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Valid reports whether d is one of Difficulties.
func (d Difficulty) Valid() bool {
	for _, v := range Difficulties {
		if v == d {
			return true
		}
	}
	return false
}

// ChallengeTypeNames returns the enumeration as plain strings for form options.
func ChallengeTypeNames() []string {
	out := make([]string, len(ChallengeTypes))
	for i, t := range ChallengeTypes {
		out[i] = string(t)
	}
	return out
}

// DifficultyNames returns the enumeration as plain strings for form options.
func DifficultyNames() []string {
	out := make([]string, len(Difficulties))
	for i, d := range Difficulties {
		out[i] = string(d)
	}
	return out
}

// Challenge is a task definition with metadata, images, optional video and a
// markdown brief. It is immutable once created.
type Challenge struct {
	ID         string        `json:"id"`
	Slug       string        `json:"slug"`
	Title      string        `json:"title"`
	ShortDesc  string        `json:"shortDesc"`
	BriefDesc  string        `json:"briefDesc"`
	Type       ChallengeType `json:"type"`
	Difficulty Difficulty    `json:"difficulty"`
	ImagesURL  []string      `json:"imagesURL"`
	VideoURL   *string       `json:"videoURL,omitempty"`
	AuthorID   string        `json:"authorId,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// Link returns the site-relative URL of the challenge page.
func (c Challenge) Link() string {
	return "/challenges/" + c.Slug + "/"
}

// NewChallenge carries the fields of a create-challenge request.
type NewChallenge struct {
	Title      string        `json:"title"`
	Type       ChallengeType `json:"type"`
	Difficulty Difficulty    `json:"difficulty"`
	ImagesURL  []string      `json:"imagesURL"`
	BriefDesc  string        `json:"briefDesc"`
	VideoURL   *string       `json:"videoURL,omitempty"`
}

// User is a site member. PasswordHash never leaves the server.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	Image        string `json:"image"`
	PasswordHash string `json:"-"`
}

// ChallengeRef is the slice of a challenge a solution card needs.
type ChallengeRef struct {
	Slug  string        `json:"slug"`
	Title string        `json:"title"`
	Type  ChallengeType `json:"type"`
}

// Solution is a user's response to a challenge. Read-only on the web surface.
type Solution struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Tags        []string     `json:"tags"`
	CreatedAt   time.Time    `json:"createdAt"`
	Challenge   ChallengeRef `json:"challenge"`
	User        User         `json:"user"`
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

const shortDescMax = 160

// DeriveShortDesc picks the first prose line of a markdown brief, skipping
// headings, placeholders in brackets and list markers, capped at 160 runes.
func DeriveShortDesc(brief string) string {
	for _, raw := range strings.Split(brief, "\n") {
		line := strings.TrimSpace(strings.TrimRight(raw, "\r"))
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "```") {
			continue
		}
		line = strings.TrimLeft(line, "-*> ")
		line = strings.TrimSpace(strings.Trim(line, "[]"))
		if line == "" {
			continue
		}
		r := []rune(line)
		if len(r) > shortDescMax {
			return strings.TrimSpace(string(r[:shortDescMax-1])) + "…"
		}
		return line
	}
	return ""
}
