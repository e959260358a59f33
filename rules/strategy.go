package rules

import (
	"strconv"
	"strings"

	"doudizhu-game/poker"
)

// Strategy decides plays for seats driven by the server itself (robots and
// timed-out humans). Implementations receive the same legal-move machinery
// the room uses for validation; alternate predictors can be swapped in
// without touching the room.
type Strategy interface {
	// FindBestShot picks an opening combination when leading a trick.
	FindBestShot(hand []poker.Card) []poker.Card
	// FindBestFollow picks a combination beating the reference, or nil to
	// pass. ally is true when the trick leader is on the follower's side.
	FindBestFollow(hand, reference []poker.Card, ally bool) []poker.Card
	// CallScore decides the rob-landlord answer (0 decline, 1 rob).
	CallScore(hand []poker.Card) int
}

// GreedyStrategy sheds cards by minimizing the count of isolated singles
// left behind. It is deliberately approximate; the tie-break order below is
// fixed so robot-vs-robot rounds stay deterministic.
type GreedyStrategy struct {
	engine *Engine
}

func NewGreedyStrategy(engine *Engine) *GreedyStrategy {
	return &GreedyStrategy{engine: engine}
}

func (g *GreedyStrategy) FindBestShot(hand []poker.Card) []poker.Card {
	ranks := g.findBestShot(poker.ToRanks(hand))
	return poker.ToCards(hand, ranks)
}

func (g *GreedyStrategy) FindBestFollow(hand, reference []poker.Card, ally bool) []poker.Card {
	ranks := g.findBestFollow(poker.ToRanks(hand), poker.ToRanks(reference), ally)
	if ranks == "" {
		return nil
	}
	return poker.ToCards(hand, ranks)
}

// CallScore robs when the hand carries enough trump weight: bombs, jokers
// and 2s each count toward a fixed threshold.
func (g *GreedyStrategy) CallScore(hand []poker.Card) int {
	ranks := poker.ToRanks(hand)
	rockets, left := g.findSpecType(ranks, TypeRocket)
	bombs, left := g.findSpecType(left, TypeBomb)
	weight := 2*len(rockets) + 2*len(bombs)
	weight += strings.Count(left, "2") + strings.Count(left, "w") + strings.Count(left, "W")
	if weight >= 3 {
		return 1
	}
	return 0
}

var shotOrder = []struct {
	specs        []string
	singleReduce int
}{
	{[]string{"trio_single", "single", "pair", "trio_single"}, -1},
	{[]string{"seq_trio_single4", "seq_trio_single3", "seq_trio_single2"}, -1},
	{[]string{"seq_trio_pair3", "seq_trio_pair2", "trio_pair"}, 0},
	{[]string{"seq_pair9", "seq_pair8", "seq_pair7", "seq_pair6", "seq_pair5", "seq_pair4", "seq_pair3"}, 0},
}

func (g *GreedyStrategy) findBestShot(hand string) string {
	if shot := g.findOneShot(hand); shot != "" {
		return shot
	}

	rockets, bombs, big, small := g.basicCards(hand)
	if len(small) > 0 || len(big) > 0 {
		target := small
		if target == "" {
			target = big
		}
		if shot := g.findOneShot(target); shot != "" {
			return shot
		}
	} else {
		if len(bombs) > 0 {
			return bombs[0]
		}
		return rockets[0]
	}

	totalSingle := singleCount(small)

	if best := g.findBestSeq(small); best != "" {
		return best
	}

	absSmall := keepRanks(small, "34567890")
	for _, cards := range []string{absSmall, small} {
		for _, order := range shotOrder {
			if shot := g.findSpecShot(cards, order.specs, totalSingle+order.singleReduce); shot != "" {
				return shot
			}
		}
	}

	if len(small) > 0 {
		if len(small) == 1 {
			return small
		}
		if small[0] == small[1] {
			return small[:2]
		}
		return small[:1]
	}

	for _, order := range shotOrder {
		if shot := g.findSpecShot(hand, order.specs, totalSingle+order.singleReduce); shot != "" {
			return shot
		}
	}
	for _, name := range []string{TypePair, TypeTrio, TypeSingle} {
		found, after := g.findSpecType(hand, name)
		if len(found) > 0 && singleCount(after) <= totalSingle {
			return found[0]
		}
	}
	return hand[:1]
}

func (g *GreedyStrategy) findBestFollow(hand, reference string, ally bool) string {
	refType, refValue := g.engine.Classify(reference)
	if refType == "" || refType == TypeRocket {
		return ""
	}

	rockets, bombs, big, small := g.basicCards(hand)
	totalSingle := singleCount(small)
	reduce := reduceSingleNumber(refType, ally)

	entries := g.engine.table.Entries(refType)
	start := refValue
	if refType == TypeBomb {
		start -= BombValue
	}

	for _, cards := range []string{small, hand} {
		for i := start + 1; i < len(entries); i++ {
			if !g.engine.IsContains(cards, entries[i]) {
				continue
			}
			left := minusRanks(cards, entries[i])
			if g.findOneShot(left) != "" {
				return entries[i]
			}
			if totalSingle-singleCount(left) >= reduce {
				return entries[i]
			}
		}
		// an ally sitting on a clearly bigger hand should not waste cards
		if ally && len(hand)-len(reference) >= 2 {
			break
		}
	}

	if ally {
		return ""
	}

	for _, cards := range []string{big, hand} {
		for i := start + 1; i < len(entries); i++ {
			if g.engine.IsContains(cards, entries[i]) {
				return entries[i]
			}
		}
	}

	if refType != TypeBomb && len(bombs) > 0 {
		return bombs[0]
	}
	if len(rockets) > 0 {
		return rockets[0]
	}
	return ""
}

// findOneShot reports a single combination covering the entire input, if one
// exists. Four-with-kickers shapes are excluded: shedding a bomb with extras
// when the bomb alone could be saved is never the cheap option.
func (g *GreedyStrategy) findOneShot(hand string) string {
	for _, name := range g.engine.table.TypesOfSize(len(hand)) {
		if name == "bomb_single" || name == "bomb_pair" {
			continue
		}
		results, left := g.findSpecType(hand, name)
		if len(results) > 0 && left == "" {
			return results[0]
		}
	}
	return ""
}

// basicCards peels rockets and bombs off the hand, then splits the rest
// into big cards (2 and jokers) and small cards (everything below).
func (g *GreedyStrategy) basicCards(hand string) (rockets, bombs []string, big, small string) {
	rockets, left := g.findSpecType(hand, TypeRocket)
	bombs, left = g.findSpecType(left, TypeBomb)
	return rockets, bombs, keepRanks(left, "2wW"), dropRanks(left, "2wW")
}

// findBestSeq looks for the straight run worth breaking the hand up for:
// the longest run is kept only when it strips more than two isolated
// singles from the remainder.
func (g *GreedyStrategy) findBestSeq(hand string) string {
	totalSingle := singleCount(hand)
	bestShot := ""
	bestSingle := totalSingle
	for n := 12; n >= 5; n-- {
		seqs, left := g.findSpecType(hand, seqName("seq_single", n))
		if len(seqs) == 0 {
			continue
		}
		reduced := totalSingle - singleCount(left)
		if reduced < bestSingle {
			bestShot = seqs[0]
			bestSingle = reduced
		}
	}
	if bestShot != "" && totalSingle-bestSingle > 2 {
		return bestShot
	}
	return ""
}

// findSpecShot returns the weakest combination of the first type whose
// removal leaves no more than maxSingle isolated singles.
func (g *GreedyStrategy) findSpecShot(hand string, specs []string, maxSingle int) string {
	for _, name := range specs {
		found, left := g.findSpecType(hand, name)
		if len(found) > 0 && singleCount(left) <= maxSingle {
			return found[0]
		}
	}
	return ""
}

// findSpecType greedily extracts every catalogue entry of the type from the
// hand, weakest first, returning the extracted entries and the leftover.
func (g *GreedyStrategy) findSpecType(hand, name string) ([]string, string) {
	left := hand
	var found []string
	for _, spec := range g.engine.table.Entries(name) {
		if g.engine.IsContains(left, spec) {
			left = minusRanks(left, spec)
			found = append(found, spec)
		}
	}
	return found, left
}

// reduceSingleNumber is the bar a follow must clear: how many isolated
// singles beating the reference should shed to be worth it.
func reduceSingleNumber(refType string, ally bool) int {
	n := 0
	if strings.Contains(refType, "seq_single") || strings.Contains(refType, "seq_trio_single") {
		if size, err := strconv.Atoi(strings.TrimLeft(refType, "abcdefghijklmnopqrstuvwxyz_")); err == nil {
			n = size / 2
		}
	} else if strings.Contains(refType, "single") {
		n = 1
	}
	if !ally {
		n = n / 2
	}
	if n < 0 {
		return 0
	}
	return n
}

// singleCount counts ranks appearing exactly once.
func singleCount(hand string) int {
	var counts [128]int
	for i := 0; i < len(hand); i++ {
		counts[hand[i]]++
	}
	n := 0
	for _, c := range counts {
		if c == 1 {
			n++
		}
	}
	return n
}

func keepRanks(hand, set string) string {
	var b strings.Builder
	for i := 0; i < len(hand); i++ {
		if strings.IndexByte(set, hand[i]) >= 0 {
			b.WriteByte(hand[i])
		}
	}
	return b.String()
}

func dropRanks(hand, set string) string {
	var b strings.Builder
	for i := 0; i < len(hand); i++ {
		if strings.IndexByte(set, hand[i]) < 0 {
			b.WriteByte(hand[i])
		}
	}
	return b.String()
}

// minusRanks removes each rank of spec from hand once.
func minusRanks(hand, spec string) string {
	out := []byte(hand)
	for i := 0; i < len(spec); i++ {
		for j := 0; j < len(out); j++ {
			if out[j] == spec[i] {
				out = append(out[:j], out[j+1:]...)
				break
			}
		}
	}
	return string(out)
}
