package completion

import (
	"strconv"
	"strings"

	"github.com/erp/billing/internal/domain/shared"
)

// ErrMalformedReference is returned when a window of the structured reference
// is missing or not numeric
var ErrMalformedReference = shared.NewDomainError("MALFORMED_REFERENCE", "Statement line reference is malformed")

// Reference is the fixed-width structured payment reference printed on payment
// slips. Offsets are byte positions.
type Reference string

// PartnerCode returns the partner code without leading zeros
func (r Reference) PartnerCode() (string, error) {
	n, err := r.number(9, 16)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(n), nil
}

// ContractNumber returns the contract number embedded in the reference
func (r Reference) ContractNumber() (int, error) {
	return r.number(16, 21)
}

// PaymentType returns the payment type digit
func (r Reference) PaymentType() (int, error) {
	return r.number(21, 22)
}

// FundCode returns the fund code of donation payments
func (r Reference) FundCode() (int, error) {
	return r.number(22, 26)
}

func (r Reference) number(from, to int) (int, error) {
	if len(r) < to {
		return 0, ErrMalformedReference.WithMessage("reference " + strconv.Quote(string(r)) + " is too short")
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(r[from:to])))
	if err != nil {
		return 0, ErrMalformedReference.WithMessage("reference " + strconv.Quote(string(r)) + " has a non-numeric field at " + strconv.Itoa(from))
	}
	return n, nil
}
