// Package completion reconciles imported bank statement lines with partners
// and accounts.
//
// Each journal carries an ordered list of CompletionRule values. The
// RuleEngine evaluates them by ascending sequence and keeps the first
// non-empty FieldUpdate. Strategies are a closed set (StrategyType) and look
// up partners through the PartnerResolver, which only exposes queries
// returning slices so every caller branches on zero, one or many matches.
package completion
