package rules

import (
	"strings"

	"github.com/pkg/errors"

	"doudizhu-game/poker"
)

// Combination type names. The order is the classification scan order: when
// two types share a cardinality the earlier name wins, which keeps the
// rocket and bombs ahead of shape lookups.
const (
	TypeRocket = "rocket"
	TypeBomb   = "bomb"
	TypeSingle = "single"
	TypePair   = "pair"
	TypeTrio   = "trio"
)

var typeOrder = buildTypeOrder()

func buildTypeOrder() []string {
	order := []string{
		TypeRocket, TypeBomb,
		TypeSingle, TypePair, TypeTrio, "trio_pair", "trio_single",
	}
	for n := 5; n <= 12; n++ {
		order = append(order, seqName("seq_single", n))
	}
	for n := 3; n <= 10; n++ {
		order = append(order, seqName("seq_pair", n))
	}
	for n := 2; n <= 6; n++ {
		order = append(order, seqName("seq_trio", n))
	}
	for n := 2; n <= 4; n++ {
		order = append(order, seqName("seq_trio_pair", n))
	}
	for n := 2; n <= 5; n++ {
		order = append(order, seqName("seq_trio_single", n))
	}
	return append(order, "bomb_pair", "bomb_single")
}

func seqName(prefix string, n int) string {
	return prefix + itoa(n)
}

func itoa(n int) string {
	if n >= 10 {
		return string([]byte{'1', byte('0' + n - 10)})
	}
	return string([]byte{byte('0' + n)})
}

// RuleTable is the precomputed catalogue of every legal combination shape.
// Each type maps to rank strings in ascending strength order; entries of a
// type all share one cardinality. Built once at startup, immutable after.
type RuleTable struct {
	types map[string][]string
	// rank string -> index within its type, for O(1) classification
	index map[string]map[string]int
	// cardinality -> type names with entries of that size, in scan order
	byCount map[int][]string
}

// NewRuleTable generates the full catalogue. A generation defect (mixed
// cardinality or duplicate entries within a type) is returned as an error
// and must abort process startup; it is never a per-request condition.
func NewRuleTable() (*RuleTable, error) {
	t := &RuleTable{
		types:   make(map[string][]string),
		index:   make(map[string]map[string]int),
		byCount: make(map[int][]string),
	}
	t.generate()
	if err := t.check(); err != nil {
		return nil, err
	}
	t.buildIndexes()
	return t, nil
}

// suited ranks eligible for pairs, trios, bombs and straights
const deckRanks = "34567890JQKA2"

func (t *RuleTable) generate() {
	singles := make([]string, 0, 15)
	pairs := make([]string, 0, 13)
	trios := make([]string, 0, 13)
	bombs := make([]string, 0, 13)
	for i := 0; i < len(deckRanks); i++ {
		r := deckRanks[i : i+1]
		singles = append(singles, r)
		pairs = append(pairs, strings.Repeat(r, 2))
		trios = append(trios, strings.Repeat(r, 3))
		bombs = append(bombs, strings.Repeat(r, 4))
	}

	// straights slide over 3..A only; the 2 and jokers never chain
	for n := 5; n <= 12; n++ {
		t.types[seqName("seq_single", n)] = windows(singles, n)
	}
	for n := 3; n <= 10; n++ {
		t.types[seqName("seq_pair", n)] = windows(pairs, n)
	}
	for n := 2; n <= 6; n++ {
		t.types[seqName("seq_trio", n)] = windows(trios, n)
	}

	singles = append(singles, "w", "W")
	t.types[TypeSingle] = singles
	t.types[TypePair] = pairs
	t.types[TypeTrio] = trios
	t.types[TypeBomb] = bombs
	t.types[TypeRocket] = []string{"wW"}

	trioSingle := make([]string, 0, len(trios)*14)
	trioPair := make([]string, 0, len(trios)*12)
	for _, trio := range trios {
		for _, s := range singles {
			if s[0] != trio[0] {
				trioSingle = append(trioSingle, poker.SortRanks(trio+s))
			}
		}
		for _, p := range pairs {
			if p[0] != trio[0] {
				trioPair = append(trioPair, poker.SortRanks(trio+p))
			}
		}
	}
	t.types["trio_single"] = trioSingle
	t.types["trio_pair"] = trioPair

	for n := 2; n <= 5; n++ {
		seqTrioSingle := make([]string, 0, 1024)
		seqTrioPair := make([]string, 0, 1024)
		for _, run := range t.types[seqName("seq_trio", n)] {
			kickers := excludeRanks(singles, run)
			for _, combo := range combinations(kickers, n) {
				if n == 2 && combo == "wW" {
					// two kickers may not both be jokers
					continue
				}
				seqTrioSingle = append(seqTrioSingle, poker.SortRanks(run+combo))
				if n <= 4 && !strings.ContainsAny(combo, "wW") {
					doubled := ""
					for i := 0; i < len(combo); i++ {
						doubled += combo[i:i+1] + combo[i:i+1]
					}
					seqTrioPair = append(seqTrioPair, poker.SortRanks(run+doubled))
				}
			}
		}
		t.types[seqName("seq_trio_single", n)] = seqTrioSingle
		if n <= 4 {
			t.types[seqName("seq_trio_pair", n)] = seqTrioPair
		}
	}

	bombSingle := make([]string, 0, len(bombs)*91)
	bombPair := make([]string, 0, len(bombs)*66)
	for _, bomb := range bombs {
		kickers := excludeRanks(singles, bomb)
		for _, combo := range combinations(kickers, 2) {
			bombSingle = append(bombSingle, poker.SortRanks(bomb+combo))
			if !strings.ContainsAny(combo, "wW") {
				doubled := combo[0:1] + combo[0:1] + combo[1:2] + combo[1:2]
				bombPair = append(bombPair, poker.SortRanks(bomb+doubled))
			}
		}
	}
	t.types["bomb_single"] = bombSingle
	t.types["bomb_pair"] = bombPair
}

// windows returns every run of n consecutive entries that stays below the 2.
func windows(base []string, n int) []string {
	out := make([]string, 0, 13-n)
	for i := 0; i+n <= 12; i++ {
		out = append(out, strings.Join(base[i:i+n], ""))
	}
	return out
}

// excludeRanks drops singles whose rank appears in used.
func excludeRanks(singles []string, used string) []string {
	out := make([]string, 0, len(singles))
	for _, s := range singles {
		if !strings.Contains(used, s) {
			out = append(out, s)
		}
	}
	return out
}

// combinations returns all k-subsets of the given rank singles, each joined
// into one string, in lexicographic position order.
func combinations(singles []string, k int) []string {
	if k <= 0 || k > len(singles) {
		return nil
	}
	var out []string
	pick := make([]string, 0, k)
	var walk func(start int)
	walk = func(start int) {
		if len(pick) == k {
			out = append(out, strings.Join(pick, ""))
			return
		}
		for i := start; i <= len(singles)-(k-len(pick)); i++ {
			pick = append(pick, singles[i])
			walk(i + 1)
			pick = pick[:len(pick)-1]
		}
	}
	walk(0)
	return out
}

func (t *RuleTable) check() error {
	for _, name := range typeOrder {
		entries, ok := t.types[name]
		if !ok || len(entries) == 0 {
			return errors.Errorf("rule table: type %s has no entries", name)
		}
		size := len(entries[0])
		seen := make(map[string]bool, len(entries))
		for _, e := range entries {
			if len(e) != size {
				return errors.Errorf("rule table: type %s mixes cardinalities %d and %d", name, size, len(e))
			}
			if seen[e] {
				return errors.Errorf("rule table: type %s has duplicate entry %s", name, e)
			}
			seen[e] = true
		}
	}
	if len(t.types) != len(typeOrder) {
		return errors.Errorf("rule table: generated %d types, want %d", len(t.types), len(typeOrder))
	}
	return nil
}

func (t *RuleTable) buildIndexes() {
	for _, name := range typeOrder {
		entries := t.types[name]
		idx := make(map[string]int, len(entries))
		for i, e := range entries {
			idx[e] = i
		}
		t.index[name] = idx
		size := len(entries[0])
		t.byCount[size] = append(t.byCount[size], name)
	}
}

// Entries returns the ordered catalogue entries for a type.
func (t *RuleTable) Entries(name string) []string {
	return t.types[name]
}

// TypeNames returns every type name in classification scan order.
func (t *RuleTable) TypeNames() []string {
	return typeOrder
}

// TypesOfSize returns the type names whose entries have the given
// cardinality, in scan order.
func (t *RuleTable) TypesOfSize(n int) []string {
	return t.byCount[n]
}

// lookup returns the strength index of the sorted rank string within the
// type, or -1.
func (t *RuleTable) lookup(name, sorted string) int {
	if i, ok := t.index[name][sorted]; ok {
		return i
	}
	return -1
}
