package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mrlokans/librarian/internal/circulation"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/ledger"
	"github.com/mrlokans/librarian/internal/entities"
)

// LoansCommand prints the loans that are currently open.
type LoansCommand struct {
	ReaderID uint

	cfg *config.Config
	out io.Writer
}

func NewLoansCommand(cfg *config.Config) *LoansCommand {
	return &LoansCommand{cfg: cfg, out: os.Stdout}
}

func (cmd *LoansCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("loans", flag.ContinueOnError)

	var readerID uint64
	fs.Uint64Var(&readerID, "reader", 0, "Only show loans of this reader")
	fs.StringVar(&cmd.cfg.Database.Path, "db", cmd.cfg.Database.Path, "Path to the SQLite database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s loans [-reader <id>]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List books that are currently borrowed, oldest loan first.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd.ReaderID = uint(readerID)
	return nil
}

func (cmd *LoansCommand) Run(ctx context.Context) error {
	db, err := database.Open(cmd.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	service := circulation.NewService(ledger.NewStore(db), cmd.cfg.Loans.MaxOpenPerReader)

	var loans []entities.Loan
	if cmd.ReaderID != 0 {
		loans, err = service.ActiveLoans(ctx, cmd.ReaderID)
	} else {
		loans, err = service.AllActiveLoans(ctx)
	}
	if err != nil {
		return err
	}

	if len(loans) == 0 {
		fmt.Fprintln(cmd.out, "No open loans")
		return nil
	}

	w := tabwriter.NewWriter(cmd.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LOAN\tBOOK\tREADER\tLIBRARIAN\tBORROWED AT")
	for _, loan := range loans {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\n",
			loan.ID, loan.BookID, loan.ReaderID, loan.LibrarianID, loan.BorrowedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
