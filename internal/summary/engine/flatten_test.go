package engine

import (
	"testing"
	"time"

	"github.com/smallbiznis/backoffice/internal/summary/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenAttribution(t *testing.T) {
	tests := []struct {
		name      string
		reporting string
		owner     string
		payTo     string
		want      domain.Attribution
		included  bool
	}{
		{name: "own line", reporting: "BKK", owner: "BKK", payTo: "", want: domain.Attribution{}, included: true},
		{name: "own line explicit pay to", reporting: "BKK", owner: "BKK", payTo: "bkk", want: domain.Attribution{}, included: true},
		{name: "paid by other branch", reporting: "Y", owner: "X", payTo: "Y", want: domain.Attribution{OtherBranchPay: true}, included: true},
		{name: "paid for other branch", reporting: "X", owner: "X", payTo: "Y", want: domain.Attribution{PayToOtherBranch: true}, included: true},
		{name: "unrelated branch", reporting: "Z", owner: "X", payTo: "Y", included: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := line("office", "rent", 200)
			item.PayToBranch = tt.payTo
			docs := []domain.Document{expense("1", tt.owner, "2024-03-02", item)}

			entries, stats := Flatten(docs, testAxis(), expenseTaxonomy(), tt.reporting, DefaultOptions())
			assert.Equal(t, 1, stats.Documents)
			if !tt.included {
				assert.Empty(t, entries)
				return
			}
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].Attribution)
			assert.Equal(t, 1, entries[0].DateIndex)
			assert.True(t, dec(200).Equal(entries[0].Amount))
		})
	}
}

func TestFlattenCarriesPaymentType(t *testing.T) {
	doc := expense("1", "BKK", "2024-03-01", line("office", "rent", 10))
	doc.PaymentType = " cash "

	entries, _ := Flatten([]domain.Document{doc}, testAxis(), expenseTaxonomy(), "BKK", DefaultOptions())
	require.Len(t, entries, 1)
	assert.Equal(t, "cash", entries[0].Attribution.Type)
}

func TestFlattenSkipsMalformedAndDuplicates(t *testing.T) {
	deletedItem := line("office", "rent", 5)
	deletedItem.Deleted = true
	deletedDoc := expense("9", "BKK", "2024-03-01", line("office", "rent", 7))
	deletedDoc.Deleted = true

	docs := []domain.Document{
		expense("1", "BKK", "2024-03-01", line("office", "rent", 10), deletedItem),
		expense("1", "BKK", "2024-03-01", line("office", "rent", 10)),
		expense("2", "", "2024-03-01", line("office", "rent", 10)),
		expense("3", "BKK", "", line("office", "rent", 10)),
		expense("4", "BKK", "not-a-date", line("office", "rent", 10)),
		expense("5", "BKK", "2024-04-01", line("office", "rent", 10)),
		deletedDoc,
	}

	entries, stats := Flatten(docs, testAxis(), expenseTaxonomy(), "BKK", DefaultOptions())
	require.Len(t, entries, 1)
	assert.Equal(t, "1", entries[0].DocumentID)
	assert.Equal(t, 3, stats.Skipped)
	assert.Equal(t, 2, stats.Documents)
}

func TestFlattenResolvesTimestampInLocation(t *testing.T) {
	opts := DefaultOptions()
	loc := time.FixedZone("ICT", 7*60*60)
	opts.Location = loc
	axis := NewAxis("2024-03-01", "2024-03-03", loc)

	// 18:30 UTC on the 1st is already the 2nd in Bangkok.
	doc := expense("1", "BKK", "2024-03-01T18:30:00Z", line("office", "rent", 10))
	entries, _ := Flatten([]domain.Document{doc}, axis, expenseTaxonomy(), "BKK", opts)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].DateIndex)
}

func TestFlattenTitleChain(t *testing.T) {
	tests := []struct {
		name     string
		category string
		item     domain.LineItem
		title    string
		section  string
		itemKey  string
	}{
		{name: "item label", item: line("office", "rent", 1), title: "Rent", section: "office", itemKey: "rent"},
		{name: "section label", item: line("office", "unknown", 1), title: "Office expenses"},
		{name: "document category", category: "vehicle", item: line("", "", 1), title: "Vehicle"},
		{name: "document category item", category: "vehicle", item: line("", "fuel", 1), title: "Fuel", section: "vehicle", itemKey: "fuel"},
		{name: "line category wins over document", category: "office", item: line("vehicle", "fuel", 1), title: "Fuel", section: "vehicle", itemKey: "fuel"},
		{name: "unknown line category falls back to document", category: "vehicle", item: line("nope", "fuel", 1), title: "Vehicle"},
		{name: "unclassified", item: line("nope", "nada", 1), title: UnclassifiedTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := expense("1", "BKK", "2024-03-01", tt.item)
			doc.Category = tt.category

			entries, _ := Flatten([]domain.Document{doc}, testAxis(), expenseTaxonomy(), "BKK", DefaultOptions())
			require.Len(t, entries, 1)
			assert.Equal(t, tt.title, entries[0].Title)
			assert.Equal(t, tt.section, entries[0].SectionKey)
			assert.Equal(t, tt.itemKey, entries[0].ItemKey)
		})
	}
}

func TestFlattenComponentsByDocumentType(t *testing.T) {
	item := line("vehicle", "fuel", 100)
	item.Battery = domain.AmountFromInt(30)
	item.GPS = domain.AmountFromInt(5)

	titles := func(docType domain.DocumentType) []string {
		doc := expense("1", "BKK", "2024-03-01", item)
		doc.Type = docType
		entries, _ := Flatten([]domain.Document{doc}, testAxis(), expenseTaxonomy(), "BKK", DefaultOptions())
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Fuel"}, titles(domain.TypeGeneral))
	assert.Equal(t, []string{"Fuel"}, titles(""))
	assert.Equal(t, []string{"Fuel"}, titles("unknown"))
	assert.Equal(t, []string{"Fuel", TitleBattery, TitleGPS}, titles(domain.TypeOther))
	assert.Equal(t, []string{TitleBattery, TitleGPS}, titles(domain.TypeAccessories))
	assert.Equal(t, []string{TitleBattery, TitleGPS}, titles("ACCESSORIES"))
}

func TestFlattenNetAmount(t *testing.T) {
	item := line("office", "rent", 100)
	item.TaxTreatment = domain.TaxSeparateVAT
	item.Vat = domain.AmountFromInt(7)
	item.WithholdingTax = domain.AmountFromInt(3)

	entries, _ := Flatten([]domain.Document{expense("1", "BKK", "2024-03-01", item)}, testAxis(), expenseTaxonomy(), "BKK", DefaultOptions())
	require.Len(t, entries, 1)
	assert.True(t, dec(104).Equal(entries[0].Amount), entries[0].Amount.String())
}
