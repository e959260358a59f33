package poker

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRankRoundTrip(t *testing.T) {
	for c := MinCard; c <= MaxCard; c++ {
		rank := c.Rank()
		cards := CardsOfRank(rank)
		found := false
		for _, candidate := range cards {
			if candidate == c {
				found = true
			}
			if candidate.Rank() != rank {
				t.Errorf("CardsOfRank(%c) returned %d with rank %c", rank, candidate, candidate.Rank())
			}
		}
		if !found {
			t.Errorf("card %d missing from CardsOfRank(%c)", c, rank)
		}
	}
}

func TestRankIndexOrder(t *testing.T) {
	if RankIndex('3') != 0 {
		t.Errorf("RankIndex('3') = %d, want 0", RankIndex('3'))
	}
	if RankIndex('W') != 14 {
		t.Errorf("RankIndex('W') = %d, want 14", RankIndex('W'))
	}
	if RankIndex('2') <= RankIndex('A') {
		t.Error("2 must outrank A")
	}
	if RankIndex('x') != -1 {
		t.Error("unknown rank must map to -1")
	}
}

func TestToRanksSorted(t *testing.T) {
	cards := []Card{BigJoker, 1, 3, 11, SmallJoker}
	ranks := ToRanks(cards)
	if ranks != "3JAwW" {
		t.Errorf("ToRanks = %q, want %q", ranks, "3JAwW")
	}
}

func TestToCardsPicksFromHand(t *testing.T) {
	hand := []Card{2, 15, 3, 4, SmallJoker}
	picked := ToCards(hand, "223")
	if len(picked) != 3 {
		t.Fatalf("picked %d cards, want 3", len(picked))
	}
	seen := map[Card]bool{}
	for _, c := range picked {
		if seen[c] {
			t.Fatalf("card %d picked twice", c)
		}
		seen[c] = true
		inHand := false
		for _, h := range hand {
			if h == c {
				inHand = true
			}
		}
		if !inHand {
			t.Fatalf("card %d not in hand", c)
		}
	}
	if ToCards(hand, "2223") != nil {
		t.Error("expected nil for ranks the hand cannot cover")
	}
}

func TestRemoveCards(t *testing.T) {
	hand := []Card{3, 16, 29, 4}
	left, ok := RemoveCards(hand, []Card{16, 4})
	if !ok {
		t.Fatal("RemoveCards reported missing cards")
	}
	if !cmp.Equal(left, []Card{3, 29}) {
		t.Errorf("left = %v", left)
	}

	_, ok = RemoveCards(hand, []Card{SmallJoker})
	if ok {
		t.Error("expected failure removing a card not in hand")
	}
}

func TestIsSameSuit(t *testing.T) {
	if !IsSameSuit([]Card{2, 5, 9}) {
		t.Error("cards 2,5,9 share the first suit")
	}
	if IsSameSuit([]Card{2, 15}) {
		t.Error("cards 2,15 are different suits")
	}
	if IsSameSuit([]Card{2, 5, SmallJoker}) {
		t.Error("jokers never share a suit")
	}
	if IsSameSuit(nil) {
		t.Error("empty input has no suit")
	}
}

func TestIsShortSeq(t *testing.T) {
	// 6,7,8 of mixed suits
	if !IsShortSeq([]Card{6, 20, 34}) {
		t.Error("6-7-8 is a run")
	}
	// J,Q,K crosses the rank wrap
	if !IsShortSeq([]Card{11, 12, 13}) {
		t.Error("J-Q-K is a run")
	}
	// duplicates are not a run
	if IsShortSeq([]Card{6, 19, 34}) {
		t.Error("6-6-8 is not a run")
	}
	if IsShortSeq([]Card{2, 3, 4}) {
		t.Error("runs with a 2 do not count")
	}
	if IsShortSeq([]Card{6, 20, SmallJoker}) {
		t.Error("runs with a joker do not count")
	}
}

func TestCountJokers(t *testing.T) {
	if n := CountJokers([]Card{SmallJoker, BigJoker, 5}); n != 2 {
		t.Errorf("CountJokers = %d, want 2", n)
	}
}

func TestDeckDeal(t *testing.T) {
	hands, kitty := NewSeededDeck(42).Shuffle().Deal()
	seen := map[Card]bool{}
	for seat := 0; seat < 3; seat++ {
		if len(hands[seat]) != 17 {
			t.Fatalf("seat %d got %d cards", seat, len(hands[seat]))
		}
		for i, c := range hands[seat] {
			if !c.IsValid() {
				t.Fatalf("invalid card %d", c)
			}
			if seen[c] {
				t.Fatalf("card %d dealt twice", c)
			}
			seen[c] = true
			if i > 0 && RankIndex(c.Rank()) < RankIndex(hands[seat][i-1].Rank()) {
				t.Fatalf("seat %d hand not sorted", seat)
			}
		}
	}
	if len(kitty) != 3 {
		t.Fatalf("kitty has %d cards", len(kitty))
	}
	for _, c := range kitty {
		if seen[c] {
			t.Fatalf("kitty card %d dealt twice", c)
		}
		seen[c] = true
	}
	if len(seen) != 54 {
		t.Fatalf("dealt %d distinct cards, want 54", len(seen))
	}
}

func TestScriptedDeckDealOrder(t *testing.T) {
	cards := make([]Card, 0, 54)
	for c := MinCard; c <= MaxCard; c++ {
		cards = append(cards, c)
	}
	hands, kitty := NewScriptedDeck(cards).Shuffle().Deal()

	// seat 0 gets cards 1,4,7,...,49; its weakest rank is the 3 (card 16)
	if hands[0][0] != 16 {
		t.Errorf("seat 0 lowest card = %d", hands[0][0])
	}
	if !cmp.Equal(kitty, []Card{52, 53, 54}) {
		t.Errorf("kitty = %v", kitty)
	}
}
