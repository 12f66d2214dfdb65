package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/booklibrary/backend/internal/auth/service"
	"github.com/booklibrary/backend/internal/models"
	"github.com/booklibrary/backend/internal/repositories"
	"github.com/booklibrary/backend/internal/services"
	"github.com/spf13/cobra"
)

// importPrincipal is the identity batch imports run as
var importPrincipal = &service.Principal{UserID: "bookctl", Username: "bookctl", Role: models.RoleAdmin}

func newImportBooksCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import-books",
		Short: "Import books from a JSON array of {title, author, genre, rating}",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", file, err)
			}
			defer f.Close()

			books, err := readBookFile(f)
			if err != nil {
				return err
			}

			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			bookService := services.NewBookService(repositories.NewBookRepository(e.db, e.logger), e.logger)
			n, err := bookService.ImportBooks(cmd.Context(), importPrincipal, books)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d books\n", n, len(books))
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the JSON file")
	cmd.MarkFlagRequired("file")

	return cmd
}

// readBookFile decodes a JSON array of book requests
func readBookFile(r io.Reader) ([]models.CreateBookRequest, error) {
	var books []models.CreateBookRequest
	if err := json.NewDecoder(r).Decode(&books); err != nil {
		return nil, fmt.Errorf("failed to parse book file: %w", err)
	}
	return books, nil
}
