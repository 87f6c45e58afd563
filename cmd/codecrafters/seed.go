package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/eringen/codecrafters"
	"github.com/eringen/codecrafters/markdown"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty database with demo users, challenges and solutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			return seed(cmd.Context(), store)
		},
	}
}

type demoChallenge struct {
	title      string
	typ        codecrafters.ChallengeType
	difficulty codecrafters.Difficulty
	image      string
	solution   string
	tags       []string
}

var demoChallenges = []demoChallenge{
	{"Build a Todo App", codecrafters.TypeFrontend, codecrafters.DifficultyBeginner,
		"https://picsum.photos/seed/todo/1200/700", "Todo app with React hooks", []string{"react", "css"}},
	{"URL Shortener API", codecrafters.TypeBackend, codecrafters.DifficultyIntermediate,
		"https://picsum.photos/seed/short/1200/700", "Shortener in Go with SQLite", []string{"go", "sqlite"}},
	{"Realtime Chat", codecrafters.TypeFullstack, codecrafters.DifficultyAdvanced,
		"https://picsum.photos/seed/chat/1200/700", "Chat with websockets and Svelte", []string{"svelte", "websockets"}},
}

func seed(ctx context.Context, store *codecrafters.Store) error {
	existing, err := store.ListChallengeSlugs(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Printf("database already has %d challenges, skipping seed", len(existing))
		return nil
	}

	author, err := ensureUser(ctx, store, "crafter", "Code Crafter")
	if err != nil {
		return err
	}
	solver, err := ensureUser(ctx, store, "ada", "Ada Lovelace")
	if err != nil {
		return err
	}

	for _, d := range demoChallenges {
		brief := markdown.StarterTemplate(string(d.typ))
		ch, err := store.CreateChallenge(ctx, author.ID, codecrafters.NewChallenge{
			Title:      d.title,
			Type:       d.typ,
			Difficulty: d.difficulty,
			ImagesURL:  []string{d.image},
			BriefDesc:  brief,
		})
		if err != nil {
			return fmt.Errorf("seed challenge %q: %w", d.title, err)
		}
		if _, err := store.CreateSolution(ctx, ch.ID, solver.ID, d.solution, "A walkthrough of my approach to "+d.title+".", d.tags); err != nil {
			return fmt.Errorf("seed solution for %q: %w", d.title, err)
		}
		log.Printf("seeded /challenges/%s/", ch.Slug)
	}
	return nil
}

func ensureUser(ctx context.Context, store *codecrafters.Store, username, name string) (codecrafters.User, error) {
	u, err := store.GetUserByUsername(ctx, username)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, codecrafters.ErrNotFound) {
		return codecrafters.User{}, err
	}
	hash, err := codecrafters.HashPassword(password(os.Stderr))
	if err != nil {
		return codecrafters.User{}, err
	}
	return store.CreateUser(ctx, codecrafters.User{Username: username, Name: name, PasswordHash: hash})
}
