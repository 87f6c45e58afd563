package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eringen/codecrafters"
)

func userAddCmd() *cobra.Command {
	var name, image string
	cmd := &cobra.Command{
		Use:   "useradd <username>",
		Short: "Create a user who can log in and submit challenges",
		Long: `Create a user. The password is read from CODECRAFTERS_PASSWORD,
falling back to "changeme" for local development.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			if name == "" {
				name = username
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			hash, err := codecrafters.HashPassword(password(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			u, err := store.CreateUser(context.Background(), codecrafters.User{
				Username:     username,
				Name:         name,
				Image:        image,
				PasswordHash: hash,
			})
			if err != nil {
				return fmt.Errorf("create user %s: %w", username, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user @%s (%s)\n", u.Username, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the username)")
	cmd.Flags().StringVar(&image, "image", "", "Avatar URL")
	return cmd
}

const defaultPassword = "changeme"

// password reads CODECRAFTERS_PASSWORD and warns on w when it falls back to
// the development default.
func password(w io.Writer) string {
	if pw := os.Getenv("CODECRAFTERS_PASSWORD"); pw != "" {
		return pw
	}
	fmt.Fprintf(w, "warning: CODECRAFTERS_PASSWORD is not set; using the default password %q\n", defaultPassword)
	return defaultPassword
}
