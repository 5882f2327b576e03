package reference

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool the repository needs.
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles database operations for the reference tables
type Repository struct {
	db DBTX
}

// NewRepository creates a new reference repository
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

var _ Source = (*Repository)(nil)

// PhoneBook fetches every phone book entry
func (r *Repository) PhoneBook(ctx context.Context) ([]PhoneBookEntry, error) {
	query := `
		SELECT id, phone_number, owner
		FROM phone_book
		ORDER BY phone_number
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query phone book: %w", err)
	}
	defer rows.Close()

	var entries []PhoneBookEntry
	for rows.Next() {
		var e PhoneBookEntry
		if err := rows.Scan(&e.ID, &e.PhoneNumber, &e.Owner); err != nil {
			return nil, fmt.Errorf("failed to scan phone book entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// TeszorMappings fetches the mappings joined with their code, VAT setting and ledger account
func (r *Repository) TeszorMappings(ctx context.Context) ([]TeszorMapping, error) {
	query := `
		SELECT tc.teszor_code, vs.rate, la.title, vs.code, la.account_number
		FROM teszor_mappings tm
		JOIN teszor_codes tc ON tc.id = tm.teszor_code_id
		JOIN vat_settings vs ON vs.id = tm.vat_setting_id
		JOIN ledger_accounts la ON la.id = tm.ledger_account_id
		ORDER BY tc.teszor_code, vs.rate
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query teszor mappings: %w", err)
	}
	defer rows.Close()

	var mappings []TeszorMapping
	for rows.Next() {
		var m TeszorMapping
		if err := rows.Scan(
			&m.TeszorCode,
			&m.VatRate,
			&m.LedgerTitle,
			&m.VatCode,
			&m.LedgerAccountNumber,
		); err != nil {
			return nil, fmt.Errorf("failed to scan teszor mapping: %w", err)
		}
		mappings = append(mappings, m)
	}

	return mappings, rows.Err()
}

// LedgerAccounts fetches all ledger accounts
func (r *Repository) LedgerAccounts(ctx context.Context) ([]LedgerAccount, error) {
	rows, err := r.db.Query(ctx, `SELECT id, account_number, title FROM ledger_accounts ORDER BY account_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger accounts: %w", err)
	}
	defer rows.Close()

	var accounts []LedgerAccount
	for rows.Next() {
		var a LedgerAccount
		if err := rows.Scan(&a.ID, &a.AccountNumber, &a.Title); err != nil {
			return nil, fmt.Errorf("failed to scan ledger account: %w", err)
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

// VatSettings fetches all VAT settings
func (r *Repository) VatSettings(ctx context.Context) ([]VatSetting, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, rate FROM vat_settings ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vat settings: %w", err)
	}
	defer rows.Close()

	var settings []VatSetting
	for rows.Next() {
		var s VatSetting
		if err := rows.Scan(&s.ID, &s.Code, &s.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan vat setting: %w", err)
		}
		settings = append(settings, s)
	}

	return settings, rows.Err()
}

// TeszorCodes fetches all known TESZOR codes
func (r *Repository) TeszorCodes(ctx context.Context) ([]TeszorCode, error) {
	rows, err := r.db.Query(ctx, `SELECT id, teszor_code, description FROM teszor_codes ORDER BY teszor_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teszor codes: %w", err)
	}
	defer rows.Close()

	var codes []TeszorCode
	for rows.Next() {
		var c TeszorCode
		if err := rows.Scan(&c.ID, &c.Code, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan teszor code: %w", err)
		}
		codes = append(codes, c)
	}

	return codes, rows.Err()
}

// ExtractionSupport loads every reference table for review.
func (r *Repository) ExtractionSupport(ctx context.Context) (*ExtractionSupport, error) {
	phoneBook, err := r.PhoneBook(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := r.LedgerAccounts(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := r.VatSettings(ctx)
	if err != nil {
		return nil, err
	}
	codes, err := r.TeszorCodes(ctx)
	if err != nil {
		return nil, err
	}

	return &ExtractionSupport{
		PhoneBook:      phoneBook,
		LedgerAccounts: accounts,
		VatSettings:    settings,
		TeszorCodes:    codes,
	}, nil
}

// UpsertPhoneBook inserts or updates phone book entries in one transaction.
func (r *Repository) UpsertPhoneBook(ctx context.Context, entries []PhoneBookEntry) (int, error) {
	query := `
		INSERT INTO phone_book (phone_number, owner)
		VALUES ($1, $2)
		ON CONFLICT (phone_number) DO UPDATE SET
			owner = EXCLUDED.owner,
			updated_at = now()
	`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, e := range entries {
		if _, err := tx.Exec(ctx, query, e.PhoneNumber, e.Owner); err != nil {
			return 0, fmt.Errorf("failed to upsert phone number %s: %w", e.PhoneNumber, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit phone book: %w", err)
	}
	return len(entries), nil
}

// UpsertTeszorMappings inserts or updates mappings together with the codes,
// VAT settings and ledger accounts they reference, in one transaction.
func (r *Repository) UpsertTeszorMappings(ctx context.Context, mappings []TeszorMapping) (int, error) {
	query := `
		WITH tc AS (
			INSERT INTO teszor_codes (teszor_code)
			VALUES ($1)
			ON CONFLICT (teszor_code) DO UPDATE SET teszor_code = EXCLUDED.teszor_code
			RETURNING id
		), vs AS (
			INSERT INTO vat_settings (code, rate)
			VALUES ($2, $3)
			ON CONFLICT (code) DO UPDATE SET rate = EXCLUDED.rate
			RETURNING id
		), la AS (
			INSERT INTO ledger_accounts (account_number, title)
			VALUES ($4, $5)
			ON CONFLICT (account_number) DO UPDATE SET title = EXCLUDED.title
			RETURNING id
		)
		INSERT INTO teszor_mappings (teszor_code_id, vat_setting_id, ledger_account_id)
		SELECT tc.id, vs.id, la.id FROM tc, vs, la
		ON CONFLICT (teszor_code_id, vat_setting_id) DO UPDATE SET
			ledger_account_id = EXCLUDED.ledger_account_id
	`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, m := range mappings {
		if _, err := tx.Exec(ctx, query,
			m.TeszorCode,
			m.VatCode,
			m.VatRate,
			m.LedgerAccountNumber,
			m.LedgerTitle,
		); err != nil {
			return 0, fmt.Errorf("failed to upsert mapping %s/%s: %w", m.TeszorCode, m.VatRate, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit teszor mappings: %w", err)
	}
	return len(mappings), nil
}
