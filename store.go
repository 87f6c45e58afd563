package codecrafters

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = sql.ErrNoRows

// ErrNoImages is returned when a challenge is created without images.
var ErrNoImages = errors.New("challenge requires at least one image")

// ErrInvalidChallenge is returned when a challenge has no title or an
// unknown type or difficulty.
var ErrInvalidChallenge = errors.New("invalid challenge")

// Store wraps a SQLite database holding users, challenges and solutions.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	// foreign_keys and busy_timeout are per connection, so they go in the
	// DSN and apply to every pooled connection. Transactions take the write
	// lock at BEGIN so concurrent writers queue on busy_timeout instead of
	// failing on upgrade.
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    image TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS challenges (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    short_desc TEXT NOT NULL,
    brief_desc TEXT NOT NULL,
    type TEXT NOT NULL,
    difficulty TEXT NOT NULL,
    images_url TEXT NOT NULL,
    video_url TEXT,
    author_id TEXT REFERENCES users(id),
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS solutions (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    tags TEXT NOT NULL,
    created_at TEXT NOT NULL,
    challenge_id TEXT NOT NULL REFERENCES challenges(id),
    user_id TEXT NOT NULL REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_challenges_created ON challenges(created_at);
CREATE INDEX IF NOT EXISTS idx_solutions_user ON solutions(user_id);
CREATE INDEX IF NOT EXISTS idx_solutions_created ON solutions(created_at);
`)
	return err
}

const challengeColumns = `id, slug, title, short_desc, brief_desc, type, difficulty, images_url, video_url, COALESCE(author_id, ''), created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChallenge(r rowScanner) (Challenge, error) {
	var (
		c                 Challenge
		typ, diff, images string
		video             sql.NullString
		createdAt         string
	)
	if err := r.Scan(&c.ID, &c.Slug, &c.Title, &c.ShortDesc, &c.BriefDesc, &typ, &diff, &images, &video, &c.AuthorID, &createdAt); err != nil {
		return Challenge{}, err
	}
	c.Type = ChallengeType(typ)
	c.Difficulty = Difficulty(diff)
	if err := json.Unmarshal([]byte(images), &c.ImagesURL); err != nil {
		return Challenge{}, fmt.Errorf("decode images_url: %w", err)
	}
	if video.Valid && video.String != "" {
		v := video.String
		c.VideoURL = &v
	}
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

// GetChallengeBySlug returns one challenge or ErrNotFound.
func (s *Store) GetChallengeBySlug(ctx context.Context, challengeSlug string) (Challenge, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE slug = ?`, challengeSlug)
	return scanChallenge(row)
}

// ListChallengeSlugs returns every challenge slug, newest first.
func (s *Store) ListChallengeSlugs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slug FROM challenges ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var sl string
		if err := rows.Scan(&sl); err != nil {
			return nil, err
		}
		slugs = append(slugs, sl)
	}
	return slugs, rows.Err()
}

// ListChallenges returns every challenge, newest first.
func (s *Store) ListChallenges(ctx context.Context) ([]Challenge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+challengeColumns+` FROM challenges ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateChallenge inserts a challenge authored by authorID (may be empty).
// The slug is derived from the title and made unique.
func (s *Store) CreateChallenge(ctx context.Context, authorID string, nc NewChallenge) (Challenge, error) {
	if len(nc.ImagesURL) == 0 {
		return Challenge{}, ErrNoImages
	}
	if !nc.Type.Valid() || !nc.Difficulty.Valid() || strings.TrimSpace(nc.Title) == "" {
		return Challenge{}, fmt.Errorf("%w: title %q type %q difficulty %q", ErrInvalidChallenge, nc.Title, nc.Type, nc.Difficulty)
	}
	images, err := json.Marshal(nc.ImagesURL)
	if err != nil {
		return Challenge{}, err
	}

	for attempt := 1; ; attempt++ {
		c, err := s.insertChallenge(ctx, authorID, nc, string(images))
		if err == nil || attempt == slugAttempts || !isSlugConflict(err) {
			return c, err
		}
	}
}

// slugAttempts bounds retries when a concurrent create claims the same slug
// between the lookup and the insert.
const slugAttempts = 3

func isSlugConflict(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed: challenges.slug")
}

func (s *Store) insertChallenge(ctx context.Context, authorID string, nc NewChallenge, images string) (Challenge, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Challenge{}, err
	}
	defer tx.Rollback()

	sl, err := uniqueSlug(ctx, tx, strings.TrimSpace(nc.Title))
	if err != nil {
		return Challenge{}, err
	}
	c := Challenge{
		ID:         uuid.NewString(),
		Slug:       sl,
		Title:      strings.TrimSpace(nc.Title),
		ShortDesc:  DeriveShortDesc(nc.BriefDesc),
		BriefDesc:  nc.BriefDesc,
		Type:       nc.Type,
		Difficulty: nc.Difficulty,
		ImagesURL:  nc.ImagesURL,
		VideoURL:   nc.VideoURL,
		AuthorID:   authorID,
		CreatedAt:  time.Now().UTC(),
	}
	var video, author sql.NullString
	if c.VideoURL != nil {
		video = sql.NullString{String: *c.VideoURL, Valid: true}
	}
	if authorID != "" {
		author = sql.NullString{String: authorID, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO challenges (id, slug, title, short_desc, brief_desc, type, difficulty, images_url, video_url, author_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Slug, c.Title, c.ShortDesc, c.BriefDesc, string(c.Type), string(c.Difficulty), images, video, author, formatTime(c.CreatedAt))
	if err != nil {
		return Challenge{}, fmt.Errorf("insert challenge: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Challenge{}, err
	}
	return c, nil
}

// uniqueSlug slugs title and appends -2, -3, ... until no challenge uses it.
func uniqueSlug(ctx context.Context, tx *sql.Tx, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "challenge"
	}
	candidate := base
	for counter := 2; ; counter++ {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM challenges WHERE slug = ?`, candidate).Scan(&n); err != nil {
			return "", err
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}
}

// CreateUser inserts a user. ID is generated when empty.
func (s *Store) CreateUser(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, username, name, image, password_hash) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Name, u.Image, u.PasswordHash)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns a user or ErrNotFound.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `SELECT id, username, name, image, password_hash FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.Name, &u.Image, &u.PasswordHash)
	return u, err
}

// GetUserByID returns a user or ErrNotFound.
func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `SELECT id, username, name, image, password_hash FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.Name, &u.Image, &u.PasswordHash)
	return u, err
}

// CreateSolution inserts a solution. The referenced challenge and user must exist.
func (s *Store) CreateSolution(ctx context.Context, challengeID, userID, title, description string, tags []string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `INSERT INTO solutions (id, title, description, tags, created_at, challenge_id, user_id) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, title, description, JoinTagString(tags), formatTime(time.Now().UTC()), challengeID, userID)
	if err != nil {
		return "", fmt.Errorf("insert solution: %w", err)
	}
	return id, nil
}

const solutionQuery = `
SELECT s.id, s.title, s.description, s.tags, s.created_at,
       c.slug, c.title, c.type,
       u.id, u.username, u.name, u.image
FROM solutions s
JOIN challenges c ON c.id = s.challenge_id
JOIN users u ON u.id = s.user_id`

func scanSolution(r rowScanner) (Solution, error) {
	var (
		sol             Solution
		tags, createdAt string
		typ             string
	)
	err := r.Scan(&sol.ID, &sol.Title, &sol.Description, &tags, &createdAt,
		&sol.Challenge.Slug, &sol.Challenge.Title, &typ,
		&sol.User.ID, &sol.User.Username, &sol.User.Name, &sol.User.Image)
	if err != nil {
		return Solution{}, err
	}
	sol.Tags = ParseTags(tags)
	sol.CreatedAt = parseTime(createdAt)
	sol.Challenge.Type = ChallengeType(typ)
	return sol, nil
}

func (s *Store) querySolutions(ctx context.Context, query string, args ...any) ([]Solution, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Solution
	for rows.Next() {
		sol, err := scanSolution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sol)
	}
	return out, rows.Err()
}

// ListSolutions returns every solution with its challenge and author, newest first.
func (s *Store) ListSolutions(ctx context.Context) ([]Solution, error) {
	return s.querySolutions(ctx, solutionQuery+` ORDER BY s.created_at DESC`)
}

// ListSolutionsByUser returns the solutions authored by userID, newest first.
func (s *Store) ListSolutionsByUser(ctx context.Context, userID string) ([]Solution, error) {
	return s.querySolutions(ctx, solutionQuery+` WHERE s.user_id = ? ORDER BY s.created_at DESC`, userID)
}

// GetSolution returns one solution or ErrNotFound.
func (s *Store) GetSolution(ctx context.Context, id string) (Solution, error) {
	return scanSolution(s.db.QueryRowContext(ctx, solutionQuery+` WHERE s.id = ?`, id))
}

// JoinTagString stores tags in the delimited ",a,b," form.
func JoinTagString(tags []string) string {
	clean := FilterEmpty(tags)
	if len(clean) == 0 {
		return ""
	}
	return "," + strings.Join(clean, ",") + ","
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// timeLayout has fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
