package completion

import (
	"context"
	"strconv"
	"strings"

	"github.com/erp/billing/internal/domain/partner"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Markers introducing the payer block in postal payment descriptions
var senderMarkers = []string{" EXPÉDITEUR: ", " DONNEUR D'ORDRE: "}

// NameFinder looks partners up by last name (exact, case-insensitive) and
// first name (substring, case-insensitive)
type NameFinder interface {
	ByName(ctx context.Context, lastName, firstNamePart string) ([]partner.Partner, error)
}

// SenderTokens extracts the payer block of a description and splits it into
// words. Nil when the description carries no payer marker.
func SenderTokens(label string) []string {
	text := strings.ReplaceAll(norm.NFC.String(label), "\n", " ")
	for _, marker := range senderMarkers {
		parts := strings.Split(text, marker)
		if len(parts) > 1 {
			return strings.Split(strings.ReplaceAll(parts[1], ",", ""), " ")
		}
	}
	return nil
}

// MatchSponsorName guesses the payer from the "EXPÉDITEUR:" or "DONNEUR
// D'ORDRE:" block of a description such as
// "... EXPÉDITEUR: DUPONT JEAN-MARC RUE DU LAC 1 1000 LAUSANNE".
//
// Every numeric word marks the end of a name candidate. Walking backwards from
// it, each adjacent word pair is tried as (last name, first name); when that
// finds nobody, each hyphen part of the second word is tried with the first
// word in both roles. The first query returning exactly one partner wins.
// Queries returning several partners are ambiguous and skipped.
func MatchSponsorName(ctx context.Context, label string, finder NameFinder) (*uuid.UUID, error) {
	tokens := SenderTokens(label)
	if tokens == nil {
		return nil, nil
	}

	for p, word := range tokens {
		if !isNumber(word) {
			continue
		}
		for i := p - 1; i >= 1; i-- {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			id, err := matchPair(ctx, finder, tokens[i-1], tokens[i])
			if err != nil {
				return nil, err
			}
			if id != nil {
				return id, nil
			}
		}
	}
	return nil, nil
}

func matchPair(ctx context.Context, finder NameFinder, first, second string) (*uuid.UUID, error) {
	if first == "" || second == "" {
		return nil, nil
	}
	found, err := finder.ByName(ctx, first, second)
	if err != nil {
		return nil, err
	}
	if len(found) > 0 {
		return single(found), nil
	}

	for _, part := range strings.Split(second, "-") {
		if part == "" {
			continue
		}
		found, err = finder.ByName(ctx, part, first)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			found, err = finder.ByName(ctx, first, part)
			if err != nil {
				return nil, err
			}
		}
		if id := single(found); id != nil {
			return id, nil
		}
	}
	return nil, nil
}

func single(found []partner.Partner) *uuid.UUID {
	if len(found) != 1 {
		return nil
	}
	id := found[0].ID
	return &id
}

func isNumber(word string) bool {
	if word == "" {
		return false
	}
	_, err := strconv.Atoi(word)
	return err == nil
}
