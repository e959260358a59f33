package poker

import (
	"math/rand"
	"time"
)

// Deck holds the full 54-card deck in deal order.
type Deck struct {
	cards []Card
	rand  *rand.Rand
}

// NewDeck returns an unshuffled deck of all 54 cards.
func NewDeck() *Deck {
	return NewSeededDeck(time.Now().UnixNano())
}

// NewSeededDeck returns a deck whose shuffles are reproducible.
func NewSeededDeck(seed int64) *Deck {
	cards := make([]Card, 0, int(MaxCard))
	for c := MinCard; c <= MaxCard; c++ {
		cards = append(cards, c)
	}
	return &Deck{
		cards: cards,
		rand:  rand.New(rand.NewSource(seed)),
	}
}

// NewScriptedDeck builds a deck dealing exactly the given cards in order.
// Used by tests that need known hands. The caller is responsible for
// supplying all 54 cards exactly once.
func NewScriptedDeck(cards []Card) *Deck {
	copied := make([]Card, len(cards))
	copy(copied, cards)
	return &Deck{cards: copied}
}

func (d *Deck) Shuffle() *Deck {
	if d.rand == nil {
		return d
	}
	d.rand.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
	return d
}

// Deal splits the deck into three 17-card hands and the 3-card kitty.
// Hands are dealt round-robin the way a live dealer would.
func (d *Deck) Deal() (hands [3][]Card, kitty []Card) {
	for i := 0; i < 3; i++ {
		hands[i] = make([]Card, 0, 20)
	}
	for i := 0; i < 51; i++ {
		seat := i % 3
		hands[seat] = append(hands[seat], d.cards[i])
	}
	kitty = make([]Card, 3)
	copy(kitty, d.cards[51:54])
	for i := 0; i < 3; i++ {
		SortHand(hands[i])
	}
	return hands, kitty
}

// Cards exposes the deal order, mostly for tests.
func (d *Deck) Cards() []Card {
	return d.cards
}
