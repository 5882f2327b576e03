package reference

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
)

// fakePhoneBook generates n distinct entries with carrier-shaped numbers.
func fakePhoneBook(seed int64, n int) []PhoneBookEntry {
	faker := gofakeit.New(seed)
	seen := make(map[string]bool, n)

	entries := make([]PhoneBookEntry, 0, n)
	for len(entries) < n {
		number := faker.Numerify("3630#######")
		if seen[number] {
			continue
		}
		seen[number] = true
		entries = append(entries, PhoneBookEntry{
			PhoneNumber: number,
			Owner:       faker.Name(),
		})
	}
	return entries
}

// fakeMappings generates one mapping per code at the 27% rate.
func fakeMappings(seed int64, codes ...string) []TeszorMapping {
	faker := gofakeit.New(seed)

	mappings := make([]TeszorMapping, 0, len(codes))
	for i, code := range codes {
		mappings = append(mappings, TeszorMapping{
			TeszorCode:          code,
			VatRate:             "27%",
			LedgerTitle:         faker.JobTitle(),
			VatCode:             fmt.Sprintf("A%02d", i+1),
			LedgerAccountNumber: faker.Numerify("5######"),
		})
	}
	return mappings
}
