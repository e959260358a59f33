package rules

import (
	"github.com/rs/zerolog/log"

	"doudizhu-game/poker"
)

var engineLogger = log.With().Str("logger_name", "rules::engine").Logger()

// Strength values for combinations that beat across types. Bombs rank above
// every shape index, the rocket above every bomb.
const (
	BombValue   = 20000
	RocketValue = 22000
)

// Engine answers classification and legality questions against a RuleTable.
// All methods are pure; an Engine is safe for concurrent use.
type Engine struct {
	table *RuleTable
}

func NewEngine(table *RuleTable) *Engine {
	return &Engine{table: table}
}

func (e *Engine) Table() *RuleTable {
	return e.table
}

// Classify resolves a rank string into its combination type and strength.
// An unclassifiable shape yields ("", 0); that is a caller error (an illegal
// play), logged but never fatal.
func (e *Engine) Classify(ranks string) (string, int) {
	sorted := poker.SortRanks(ranks)
	if sorted == "wW" {
		return TypeRocket, RocketValue
	}
	if i := e.table.lookup(TypeBomb, sorted); i >= 0 {
		return TypeBomb, BombValue + i
	}
	for _, name := range e.table.TypesOfSize(len(sorted)) {
		if i := e.table.lookup(name, sorted); i >= 0 {
			return name, i
		}
	}
	engineLogger.Error().Str("cards", sorted).Msg("unknown card type")
	return "", 0
}

// ClassifyCards is Classify over concrete cards.
func (e *Engine) ClassifyCards(cards []poker.Card) (string, int) {
	return e.Classify(poker.ToRanks(cards))
}

// Compare orders two combinations. Positive means a wins, negative b wins,
// zero a draw or an incomparable cross-type pairing. A non-empty combination
// always beats an empty one. Cross-type, only bomb-level strength wins.
func (e *Engine) Compare(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		if len(a) == len(b) {
			return 0
		}
		if len(a) > 0 {
			return 1
		}
		return -1
	}

	aType, aValue := e.Classify(a)
	bType, bValue := e.Classify(b)
	if aType == bType {
		return aValue - bValue
	}
	if aValue >= BombValue && aValue > bValue {
		return 1
	}
	if bValue >= BombValue && bValue > aValue {
		return -1
	}
	return 0
}

// IsContains reports whether the hand covers the candidate as a multiset of
// ranks.
func (e *Engine) IsContains(hand, candidate string) bool {
	if len(candidate) > len(hand) {
		return false
	}
	var counts [128]int
	for i := 0; i < len(hand); i++ {
		counts[hand[i]]++
	}
	for i := 0; i < len(candidate); i++ {
		counts[candidate[i]]--
		if counts[candidate[i]] < 0 {
			return false
		}
	}
	return true
}

// CardsAbove finds the cheapest combination in hand legally beating the
// reference. With mustFollowType only a stronger combination of the same
// type qualifies; otherwise bombs and finally the rocket are tried as well.
// An empty result means nothing in this hand beats the reference — in
// follow contexts that is a pass. Callers decide lead-vs-follow before
// calling; emptiness is never overloaded to mean "must play something".
func (e *Engine) CardsAbove(hand, reference string, mustFollowType bool) string {
	refType, refValue := e.Classify(reference)
	if refType == "" || refType == TypeRocket {
		return ""
	}

	sortedHand := poker.SortRanks(hand)
	entries := e.table.Entries(refType)
	start := refValue
	if refType == TypeBomb {
		start -= BombValue
	}
	for i := start + 1; i < len(entries); i++ {
		if e.IsContains(sortedHand, entries[i]) {
			return entries[i]
		}
	}
	if mustFollowType {
		return ""
	}

	if refType != TypeBomb {
		for _, bomb := range e.table.Entries(TypeBomb) {
			if e.IsContains(sortedHand, bomb) {
				return bomb
			}
		}
	}
	if e.IsContains(sortedHand, "wW") {
		return "wW"
	}
	return ""
}

// CardsAboveCards is CardsAbove over concrete cards, resolving the result
// back to cards held in the hand.
func (e *Engine) CardsAboveCards(hand, reference []poker.Card, mustFollowType bool) []poker.Card {
	ranks := e.CardsAbove(poker.ToRanks(hand), poker.ToRanks(reference), mustFollowType)
	if ranks == "" {
		return nil
	}
	return poker.ToCards(hand, ranks)
}
