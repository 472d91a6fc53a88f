package entities

// RatingAction classifies the movement between a previous and a current
// rating on the symbol scale.
type RatingAction string

const (
	RatingActionAssigned   RatingAction = "Assigned"
	RatingActionUpgraded   RatingAction = "Upgraded"
	RatingActionDowngraded RatingAction = "Downgraded"
	RatingActionReaffirmed RatingAction = "Reaffirmed"
)

// RatingSymbol is one bare symbol on a rating scale. Weightage totally orders
// symbols within a scale; equal weightage means equivalent rank.
type RatingSymbol struct {
	SymbolID  string
	Symbol    string
	Weightage float64
	ScaleID   string
	Active    bool
}

// SymbolMapping resolves a decorated symbol (its FinalRating key) to the
// prefix and suffix strings that must be stripped before a weightage lookup.
type SymbolMapping struct {
	MappingID   string
	Prefix      string
	Suffix      string
	FinalRating string
}
