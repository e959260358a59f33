package poker

import (
	"sort"
	"strings"
)

// Card is an integer token in the 54-card encoding.
// 1..52 are the suited cards: rank char is "KA234567890JQ"[c%13] ('0' is the
// ten) and suit is (c-1)/13. 53 is the small joker 'w', 54 the big joker 'W'.
type Card int

const (
	MinCard    Card = 1
	SmallJoker Card = 53
	BigJoker   Card = 54
	MaxCard    Card = 54
)

// RankAlphabet orders the rank characters from weakest to strongest.
// All combination comparisons use the index into this string, never the
// numeric card value.
const RankAlphabet = "34567890JQKA2wW"

const suitedRanks = "KA234567890JQ"

func (c Card) IsValid() bool {
	return c >= MinCard && c <= MaxCard
}

func (c Card) IsJoker() bool {
	return c == SmallJoker || c == BigJoker
}

// Rank returns the rank character of the card.
func (c Card) Rank() byte {
	switch c {
	case SmallJoker:
		return 'w'
	case BigJoker:
		return 'W'
	}
	return suitedRanks[c%13]
}

// Suit returns 0..3 for suited cards and -1 for jokers.
func (c Card) Suit() int {
	if c.IsJoker() {
		return -1
	}
	return int(c-1) / 13
}

// RankIndex returns the strength order of a rank character, -1 if unknown.
func RankIndex(rank byte) int {
	return strings.IndexByte(RankAlphabet, rank)
}

// CardsOfRank returns every card carrying the given rank character, weakest
// suit first. The mapping is the inverse of Card.Rank and round-trips for
// every card in the deck.
func CardsOfRank(rank byte) []Card {
	if rank == 'w' {
		return []Card{SmallJoker}
	}
	if rank == 'W' {
		return []Card{BigJoker}
	}
	base := strings.IndexByte("?A234567890JQK", rank)
	if base < 1 {
		return nil
	}
	return []Card{Card(base), Card(base + 13), Card(base + 26), Card(base + 39)}
}

// SortRanks re-sorts a rank string into canonical alphabet order.
func SortRanks(ranks string) string {
	b := []byte(ranks)
	sort.Slice(b, func(i, j int) bool {
		return RankIndex(b[i]) < RankIndex(b[j])
	})
	return string(b)
}

// ToRanks converts cards to their canonical sorted rank string.
func ToRanks(cards []Card) string {
	b := make([]byte, len(cards))
	for i, c := range cards {
		b[i] = c.Rank()
	}
	return SortRanks(string(b))
}

// ToCards picks concrete cards out of hand matching the given rank string.
// Each hand card is used at most once. Returns nil if the hand cannot cover
// the ranks.
func ToCards(hand []Card, ranks string) []Card {
	used := make(map[Card]bool, len(ranks))
	picked := make([]Card, 0, len(ranks))
	for i := 0; i < len(ranks); i++ {
		found := false
		for _, candidate := range CardsOfRank(ranks[i]) {
			if used[candidate] {
				continue
			}
			for _, h := range hand {
				if h == candidate {
					used[candidate] = true
					picked = append(picked, candidate)
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return nil
		}
	}
	return picked
}

// SortHand orders a hand for display and stable play: 3 lowest, then up to
// 2, jokers last.
func SortHand(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		a, b := RankIndex(cards[i].Rank()), RankIndex(cards[j].Rank())
		if a != b {
			return a < b
		}
		return cards[i] < cards[j]
	})
}

// RemoveCards removes the played cards from the hand, once each.
// Returns the remaining hand and whether every played card was present.
func RemoveCards(hand []Card, played []Card) ([]Card, bool) {
	remaining := make([]Card, 0, len(hand))
	drop := make(map[Card]int, len(played))
	for _, c := range played {
		drop[c]++
	}
	for _, c := range hand {
		if drop[c] > 0 {
			drop[c]--
			continue
		}
		remaining = append(remaining, c)
	}
	return remaining, len(remaining) == len(hand)-len(played)
}

// CountJokers counts jokers among the cards.
func CountJokers(cards []Card) int {
	n := 0
	for _, c := range cards {
		if c.IsJoker() {
			n++
		}
	}
	return n
}

// IsSameSuit reports whether all cards share one suit. Jokers never share a
// suit with anything.
func IsSameSuit(cards []Card) bool {
	if len(cards) == 0 {
		return false
	}
	suit := cards[0].Suit()
	if suit < 0 {
		return false
	}
	for _, c := range cards[1:] {
		if c.Suit() != suit {
			return false
		}
	}
	return true
}

// IsShortSeq reports whether the cards form a small arithmetic run of
// distinct ranks with no 2s and no jokers. Used only for the kitty bonus.
func IsShortSeq(cards []Card) bool {
	values := make([]int, 0, len(cards))
	for _, c := range cards {
		if c.IsJoker() || c.Rank() == '2' {
			return false
		}
		v := int(c % 13)
		if v <= 1 {
			// K and A sort above the queen
			v += 13
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return false
	}
	sort.Ints(values)
	sum := 0
	for i, v := range values {
		if i > 0 && v == values[i-1] {
			return false
		}
		sum += v
	}
	return sum == (values[0]+values[len(values)-1])*len(values)/2
}
