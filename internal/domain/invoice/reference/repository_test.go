package reference

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_PhoneBook(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, phone_number, owner`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "phone_number", "owner"}).
			AddRow(int64(1), "36301234567", "Kiss Péter").
			AddRow(int64(2), "36209876543", "Nagy Anna"))

	repo := NewRepository(mock)
	entries, err := repo.PhoneBook(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, PhoneBookEntry{ID: 1, PhoneNumber: "36301234567", Owner: "Kiss Péter"}, entries[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_TeszorMappings(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT tc.teszor_code, vs.rate, la.title, vs.code, la.account_number`).
		WillReturnRows(pgxmock.NewRows([]string{"teszor_code", "rate", "title", "code", "account_number"}).
			AddRow("61.20.1", "27%", "Telefonköltség", "A27", "52210"))

	repo := NewRepository(mock)
	mappings, err := repo.TeszorMappings(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []TeszorMapping{{
		TeszorCode:          "61.20.1",
		VatRate:             "27%",
		LedgerTitle:         "Telefonköltség",
		VatCode:             "A27",
		LedgerAccountNumber: "52210",
	}}, mappings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	dbErr := errors.New("connection refused")
	mock.ExpectQuery(`SELECT id, phone_number, owner`).WillReturnError(dbErr)

	_, err = NewRepository(mock).PhoneBook(context.Background())
	assert.ErrorIs(t, err, dbErr)
}

func TestRepository_ExtractionSupport(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	desc := "Vezeték nélküli távközlési szolgáltatás"
	mock.ExpectQuery(`FROM phone_book`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "phone_number", "owner"}).
			AddRow(int64(1), "36301234567", "Kiss Péter"))
	mock.ExpectQuery(`FROM ledger_accounts`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "account_number", "title"}).
			AddRow(int64(1), "52210", "Telefonköltség"))
	mock.ExpectQuery(`FROM vat_settings`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "code", "rate"}).
			AddRow(int64(1), "A27", "27%"))
	mock.ExpectQuery(`FROM teszor_codes`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "teszor_code", "description"}).
			AddRow(int64(1), "61.20.1", &desc))

	support, err := NewRepository(mock).ExtractionSupport(context.Background())
	require.NoError(t, err)

	assert.Len(t, support.PhoneBook, 1)
	assert.Equal(t, "52210", support.LedgerAccounts[0].AccountNumber)
	assert.Equal(t, "27%", support.VatSettings[0].Rate)
	require.NotNil(t, support.TeszorCodes[0].Description)
	assert.Equal(t, desc, *support.TeszorCodes[0].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpsertPhoneBook(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	entries := fakePhoneBook(1, 2)

	mock.ExpectBegin()
	for _, e := range entries {
		mock.ExpectExec(`INSERT INTO phone_book`).
			WithArgs(e.PhoneNumber, e.Owner).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	n, err := NewRepository(mock).UpsertPhoneBook(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpsertTeszorMappingsRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mappings := fakeMappings(1, "61.20.1", "61.20.11")
	dbErr := errors.New("foreign key violation")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO teszor_mappings`).
		WithArgs(mappings[0].TeszorCode, mappings[0].VatCode, mappings[0].VatRate,
			mappings[0].LedgerAccountNumber, mappings[0].LedgerTitle).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO teszor_mappings`).
		WithArgs(mappings[1].TeszorCode, mappings[1].VatCode, mappings[1].VatRate,
			mappings[1].LedgerAccountNumber, mappings[1].LedgerTitle).
		WillReturnError(dbErr)
	mock.ExpectRollback()

	n, err := NewRepository(mock).UpsertTeszorMappings(context.Background(), mappings)
	assert.ErrorIs(t, err, dbErr)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpsertTeszorMappingsCommits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mappings := fakeMappings(2, "61.20.1", "61.20.11")

	mock.ExpectBegin()
	for _, m := range mappings {
		mock.ExpectExec(`INSERT INTO teszor_mappings`).
			WithArgs(m.TeszorCode, m.VatCode, m.VatRate, m.LedgerAccountNumber, m.LedgerTitle).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	n, err := NewRepository(mock).UpsertTeszorMappings(context.Background(), mappings)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
