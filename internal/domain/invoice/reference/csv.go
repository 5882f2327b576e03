package reference

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

// CSVSource reads the reference tables from CSV files with a header row.
// Phone book columns: phone_number, owner. Mapping columns: teszor_code,
// vat_rate, ledger_title, vat_code, ledger_account_number.
type CSVSource struct {
	PhoneBookPath string
	MappingsPath  string
	// Comma is the field delimiter; zero means ','.
	Comma rune
}

var _ Source = (*CSVSource)(nil)

// PhoneBook reads the phone book file. An empty path yields no entries.
func (s *CSVSource) PhoneBook(_ context.Context) ([]PhoneBookEntry, error) {
	var entries []PhoneBookEntry
	if err := s.load(s.PhoneBookPath, &entries); err != nil {
		return nil, fmt.Errorf("failed to read phone book: %w", err)
	}
	for i := range entries {
		entries[i].PhoneNumber = strings.TrimSpace(entries[i].PhoneNumber)
	}
	return entries, nil
}

// TeszorMappings reads the mapping file. An empty path yields no mappings.
func (s *CSVSource) TeszorMappings(_ context.Context) ([]TeszorMapping, error) {
	var mappings []TeszorMapping
	if err := s.load(s.MappingsPath, &mappings); err != nil {
		return nil, fmt.Errorf("failed to read teszor mappings: %w", err)
	}
	return mappings, nil
}

func (s *CSVSource) load(path string, out any) error {
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return DecodeCSV(f, s.Comma, out)
}

// DecodeCSV unmarshals CSV with a header row into out, a pointer to a slice.
func DecodeCSV(r io.Reader, comma rune, out any) error {
	reader := csv.NewReader(r)
	if comma != 0 {
		reader.Comma = comma
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	if err := gocsv.UnmarshalCSV(reader, out); err != nil {
		return fmt.Errorf("failed to parse CSV: %w", err)
	}
	return nil
}
