// Package categorize maps raw bank transaction text to the application's
// fixed category taxonomy by keyword matching.
package categorize

import "strings"

type Category string

const (
	RentalIncome   Category = "rental_income"
	Utilities      Category = "utilities"
	Insurance      Category = "insurance"
	PropertyTax    Category = "property_tax"
	Maintenance    Category = "maintenance"
	ManagementFees Category = "management_fees"
	OtherIncome    Category = "other_income"
	OtherExpense   Category = "other_expense"
)

type rule struct {
	category Category
	keywords []string
}

// Rules are checked in order; the first match wins. No scoring, no
// multi-category assignment.
var rules = []rule{
	{RentalIncome, []string{"loyer", "rent", "location", "bail", "caution", "depot de garantie", "dépôt de garantie"}},
	{Utilities, []string{"edf", "engie", "gdf", "veolia", "suez", "electricite", "électricité", "gaz", "eau ", "energie", "énergie", "electricity", "water bill"}},
	{Insurance, []string{"assurance", "axa", "maif", "macif", "matmut", "gmf", "allianz", "insurance", "pno"}},
	{PropertyTax, []string{"taxe fonciere", "taxe foncière", "impots fonciers", "impôts fonciers", "tresor public", "trésor public", "dgfip", "property tax"}},
	{Maintenance, []string{"plomberie", "plombier", "electricien", "électricien", "chauffagiste", "travaux", "reparation", "réparation", "bricolage", "leroy merlin", "castorama", "maintenance", "repair"}},
	{ManagementFees, []string{"syndic", "copropriete", "copropriété", "gestion locative", "honoraires", "agence immobiliere", "agence immobilière", "condo fee", "management fee"}},
}

// Categorize classifies by lower-cased description+counterparty. It is pure:
// same inputs, same category, no side effects.
func Categorize(description, counterparty string, amountMinor int64) Category {
	text := strings.ToLower(description + " " + counterparty)
	for _, r := range rules {
		for _, keyword := range r.keywords {
			if strings.Contains(text, keyword) {
				return r.category
			}
		}
	}
	if amountMinor > 0 {
		return OtherIncome
	}
	return OtherExpense
}

// IsPropertyRelated reports whether an imported transaction with this
// category should produce a financial-flow record.
func IsPropertyRelated(category Category) bool {
	switch category {
	case RentalIncome, Utilities, Insurance, PropertyTax, Maintenance, ManagementFees:
		return true
	}
	return false
}

// IsKnownCategory reports whether raw names a category in the taxonomy.
// Manual re-tagging is restricted to this closed set.
func IsKnownCategory(raw string) bool {
	switch Category(raw) {
	case RentalIncome, Utilities, Insurance, PropertyTax, Maintenance, ManagementFees, OtherIncome, OtherExpense:
		return true
	}
	return false
}

// FlowType maps a category to the ledger side it lands on.
func FlowType(category Category, amountMinor int64) string {
	switch category {
	case RentalIncome, OtherIncome:
		return "income"
	case Utilities, Insurance, PropertyTax, Maintenance, ManagementFees, OtherExpense:
		return "expense"
	}
	if amountMinor > 0 {
		return "income"
	}
	return "expense"
}
