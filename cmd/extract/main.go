package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/pdftext"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/reference"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/report"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/service"
	"github.com/FACorreiaa/invoice-ledger/pkg/config"
	"github.com/FACorreiaa/invoice-ledger/pkg/db"
	"github.com/FACorreiaa/invoice-ledger/pkg/money"
)

var version = "0.1.0"

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "extract",
		Short: "Vodafone invoice extraction",
		Long: `Extract turns a Vodafone (Hungary) PDF invoice into an Excel workbook with
the invoice summary, the enriched service charges and a ledger pivot.

Reference data (phone book and TESZOR mappings) is read from CSV files, or
loaded into Postgres with the seed command for use by the API server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func parseComma(s string) (rune, error) {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("--comma must be a single character, got %q", s)
	}
	return r, nil
}

func runCmd() *cobra.Command {
	var (
		phoneBook string
		mappings  string
		comma     string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "run <invoice.pdf>",
		Short: "Extract an invoice into a workbook",
		Long: `Extract an invoice offline, enriching charges from CSV reference files.

Without reference files every owner is N/A and every ledger field Ismeretlen.

Example:
  extract run szamla.pdf --phonebook phonebook.csv --mappings teszor.csv -o szamla.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sep, err := parseComma(comma)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read invoice: %w", err)
			}

			logger := newLogger()
			refs := &reference.CSVSource{PhoneBookPath: phoneBook, MappingsPath: mappings, Comma: sep}
			svc := service.NewInvoiceService(pdftext.NewLedongthucSource(), refs, logger)

			start := time.Now()
			ext, err := svc.Extract(cmd.Context(), data)
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			if err := svc.ExportXLSX(cmd.Context(), f, ext); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}

			net, vat := ext.Report.Totals()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s in %s\n", output, time.Since(start).Round(time.Millisecond))
			fmt.Fprintf(out, "  Summary rows:   %d\n", len(ext.Result.InvoiceSummary))
			fmt.Fprintf(out, "  Charge rows:    %d\n", len(ext.Result.ServiceCharges))
			fmt.Fprintf(out, "  Pivot rows:     %d\n", len(ext.Report.Pivot))
			fmt.Fprintf(out, "  Dropped lines:  %d\n", ext.Result.Stats.DroppedLines)
			fmt.Fprintf(out, "  Unknown owners: %d\n", ext.Misses.Owner)
			fmt.Fprintf(out, "  Unmapped pairs: %d\n", ext.Misses.Ledger)
			fmt.Fprintf(out, "  Net total:      %s\n", money.FormatHUF(net))
			fmt.Fprintf(out, "  VAT total:      %s\n", money.FormatHUF(vat))
			return nil
		},
	}

	cmd.Flags().StringVar(&phoneBook, "phonebook", "", "Phone book CSV (phone_number, owner)")
	cmd.Flags().StringVar(&mappings, "mappings", "", "TESZOR mapping CSV (teszor_code, vat_rate, ledger_title, vat_code, ledger_account_number)")
	cmd.Flags().StringVar(&comma, "comma", ",", "CSV field separator")
	cmd.Flags().StringVarP(&output, "output", "o", report.FileName, "Output workbook path")

	return cmd
}

func seedCmd() *cobra.Command {
	var (
		phoneBook string
		mappings  string
		comma     string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load CSV reference data into Postgres",
		Long: `Upsert the phone book and TESZOR mappings into the database configured
by the POSTGRES_* environment variables. Migrations are applied first.

Example:
  extract seed --phonebook phonebook.csv --mappings teszor.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if phoneBook == "" && mappings == "" {
				return fmt.Errorf("nothing to seed: pass --phonebook and/or --mappings")
			}
			sep, err := parseComma(comma)
			if err != nil {
				return err
			}

			logger := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			database, err := db.New(db.Config{
				DSN:             cfg.Database.DSN(),
				MaxConns:        2,
				MinConns:        1,
				MaxConnLifetime: 5 * time.Minute,
				MaxConnIdleTime: time.Minute,
			}, logger)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.RunMigrations(); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			src := &reference.CSVSource{PhoneBookPath: phoneBook, MappingsPath: mappings, Comma: sep}
			return seed(cmd.Context(), cmd, src, reference.NewRepository(database.Pool))
		},
	}

	cmd.Flags().StringVar(&phoneBook, "phonebook", "", "Phone book CSV (phone_number, owner)")
	cmd.Flags().StringVar(&mappings, "mappings", "", "TESZOR mapping CSV")
	cmd.Flags().StringVar(&comma, "comma", ",", "CSV field separator")

	return cmd
}

func seed(ctx context.Context, cmd *cobra.Command, src reference.Source, repo *reference.Repository) error {
	entries, err := src.PhoneBook(ctx)
	if err != nil {
		return err
	}
	mappings, err := src.TeszorMappings(ctx)
	if err != nil {
		return err
	}

	n, err := repo.UpsertPhoneBook(ctx, entries)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Phone book entries upserted: %d\n", n)

	n, err = repo.UpsertTeszorMappings(ctx, mappings)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "TESZOR mappings upserted:    %d\n", n)
	return nil
}
