package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/librarians"
	"github.com/mrlokans/librarian/internal/validation"
)

// CreateLibrarianCommand bootstraps a librarian account from the terminal.
type CreateLibrarianCommand struct {
	Email     string
	FirstName string
	LastName  string
	Surname   string
	Password  string

	cfg *config.Config
	out io.Writer
}

func NewCreateLibrarianCommand(cfg *config.Config) *CreateLibrarianCommand {
	return &CreateLibrarianCommand{cfg: cfg, out: os.Stdout}
}

func (cmd *CreateLibrarianCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-librarian", flag.ContinueOnError)

	fs.StringVar(&cmd.Email, "email", "", "Login email of the new librarian (required)")
	fs.StringVar(&cmd.FirstName, "first-name", "", "First name (required)")
	fs.StringVar(&cmd.LastName, "last-name", "", "Last name (required)")
	fs.StringVar(&cmd.Surname, "surname", "", "Optional middle name")
	fs.StringVar(&cmd.Password, "password", "", "Password, 8 to 72 characters (required)")
	fs.StringVar(&cmd.cfg.Database.Path, "db", cmd.cfg.Database.Path, "Path to the SQLite database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-librarian -email <email> -first-name <name> -last-name <name> -password <password>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a librarian account, typically the first one after installation.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	required := []struct{ name, value string }{
		{"email", cmd.Email},
		{"first-name", cmd.FirstName},
		{"last-name", cmd.LastName},
		{"password", cmd.Password},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("required flag -%s not provided", f.name)
		}
	}

	return nil
}

func (cmd *CreateLibrarianCommand) Run(ctx context.Context) error {
	db, err := database.Open(cmd.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	service := catalog.NewLibrarianService(
		librarians.NewRepository(db.DB),
		auth.NewService(nil, nil, cmd.cfg.Auth),
		validation.New(),
	)

	input := catalog.LibrarianInput{
		Person: catalog.PersonInput{
			FirstName: cmd.FirstName,
			LastName:  cmd.LastName,
			Email:     cmd.Email,
		},
		Password: cmd.Password,
	}
	if cmd.Surname != "" {
		input.Person.Surname = &cmd.Surname
	}

	librarian, err := service.Create(ctx, input)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.out, "Created librarian %d (%s)\n", librarian.ID, librarian.Email())
	return nil
}
