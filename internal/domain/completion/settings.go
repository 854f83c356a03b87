package completion

// GiftNames are the gift products selected by payment types 1 to 5. The first
// one is the birthday gift.
var GiftNames = []string{
	"Birthday Gift",
	"General Gift",
	"Family Gift",
	"Project Gift",
	"Graduation Gift",
}

// GiftCategory is the product category of sponsor gifts
const GiftCategory = "Sponsor gifts"

// Settings parameterizes the strategies
type Settings struct {
	GiftNames           []string
	GiftCategory        string
	LSVDescriptors      []string // substrings identifying LSV/DD credits
	ClearingAccountCode string
}

// DefaultSettings returns the standard values
func DefaultSettings() Settings {
	return Settings{
		GiftNames:    append([]string(nil), GiftNames...),
		GiftCategory: GiftCategory,
		LSVDescriptors: []string{
			"BULLETIN DE VERSEMENT ORANGE",
			"ORDRE DEBIT DIRECT",
			"Crèdit LSV",
		},
		ClearingAccountCode: "1098",
	}
}

// GiftName returns the gift product name for a payment type
func (s Settings) GiftName(paymentType int) (string, bool) {
	if paymentType < 1 || paymentType > len(s.GiftNames) {
		return "", false
	}
	return s.GiftNames[paymentType-1], true
}

// IsBirthdayGift reports whether the product name is the birthday gift
func (s Settings) IsBirthdayGift(name string) bool {
	return len(s.GiftNames) > 0 && s.GiftNames[0] == name
}
