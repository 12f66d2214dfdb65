package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/booklibrary/backend/internal/auth/service"
	"github.com/booklibrary/backend/internal/repositories"
	"github.com/booklibrary/backend/internal/services"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newCreateAdminCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account if the username is free",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				password, err = readPassword(cmd.OutOrStdout(), "Password: ")
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
			}

			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			tokens := service.NewTokenService(e.cfg.JWT.Secret, e.cfg.JWT.Expiry)
			authService := services.NewAuthService(repositories.NewUserRepository(e.db, e.logger), tokens, e.logger)

			created, err := authService.EnsureAdmin(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Admin %q created\n", strings.TrimSpace(username))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "User %q already exists, nothing changed\n", strings.TrimSpace(username))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password (prompted when omitted)")
	cmd.MarkFlagRequired("username")

	return cmd
}

// readPassword reads a password from the terminal without echo
func readPassword(out io.Writer, prompt string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", errors.New("stdin is not a terminal, pass --password")
	}

	fmt.Fprint(out, prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(bytePassword)), nil
}
