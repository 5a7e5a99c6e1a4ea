package club

import (
	"sort"
	"unicode/utf8"

	"github.com/albapepper/regatta-data/internal/normalize"
)

type pairKey struct {
	key  string
	name string
}

// Resolver accumulates observations and resolves them into variants.
// It is not safe for concurrent use.
type Resolver struct {
	groups *Groups
	pairs  map[pairKey]map[string]int // pair -> display form -> count
	forms  map[string]map[string]int  // key -> display form -> count
	names  map[string]map[string]int  // key -> non-empty name -> count
	totals map[string]int
}

// NewResolver creates a resolver. groups may be nil.
func NewResolver(groups *Groups) *Resolver {
	return &Resolver{
		groups: groups,
		pairs:  make(map[pairKey]map[string]int),
		forms:  make(map[string]map[string]int),
		names:  make(map[string]map[string]int),
		totals: make(map[string]int),
	}
}

// Observe records one raw pair. A missing abbreviation is synthesised from
// the name. It returns false when the row carries no club at all.
func (r *Resolver) Observe(obs Observation) bool {
	abbr := normalize.Display(obs.Abbreviation)
	name := normalize.Display(obs.Name)
	if abbr == "" && name == "" {
		return false
	}
	if abbr == "" {
		abbr = SynthesizeAbbreviation(name)
	}
	key := normalize.Key(abbr)

	pk := pairKey{key: key, name: name}
	if r.pairs[pk] == nil {
		r.pairs[pk] = make(map[string]int)
	}
	r.pairs[pk][abbr]++

	if r.forms[key] == nil {
		r.forms[key] = make(map[string]int)
	}
	r.forms[key][abbr]++
	r.totals[key]++

	if name != "" {
		if r.names[key] == nil {
			r.names[key] = make(map[string]int)
		}
		r.names[key][name]++
	}
	return true
}

// Resolution is the outcome of a resolver run.
type Resolution struct {
	Clubs     []Club
	Variants  []Variant
	Conflicts []Conflict

	representative map[string]Variant
	byID           map[string]Variant
}

// Lookup returns the representative variant of an abbreviation: the variant
// carrying the most frequent name of its key.
func (res *Resolution) Lookup(abbreviation string) (Variant, bool) {
	if res == nil {
		return Variant{}, false
	}
	v, ok := res.representative[normalize.Key(abbreviation)]
	return v, ok
}

// LookupPair returns the variant of an exact (abbreviation, name) pair,
// falling back to the representative variant of the abbreviation.
func (res *Resolution) LookupPair(abbreviation, name string) (Variant, bool) {
	if res == nil {
		return Variant{}, false
	}
	if v, ok := res.byID[VariantID(abbreviation, name)]; ok {
		return v, true
	}
	return res.Lookup(abbreviation)
}

// Resolve builds the variant set, the per-key club summary and the conflicts
// report. Output order is deterministic.
func (r *Resolver) Resolve() *Resolution {
	res := &Resolution{
		representative: make(map[string]Variant),
		byID:           make(map[string]Variant),
	}

	pairs := make([]pairKey, 0, len(r.pairs))
	for pk := range r.pairs {
		pairs = append(pairs, pk)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].name < pairs[j].name
	})

	for _, pk := range pairs {
		occurrences := 0
		for _, c := range r.pairs[pk] {
			occurrences += c
		}
		v := Variant{
			ID:           VariantID(pk.key, pk.name),
			Abbreviation: mostFrequent(r.pairs[pk]),
			Key:          pk.key,
			Name:         pk.name,
			GroupID:      r.groups.groupID(pk.key),
			Occurrences:  occurrences,
		}
		res.Variants = append(res.Variants, v)
		res.byID[v.ID] = v
	}

	keys := make([]string, 0, len(r.totals))
	for k := range r.totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		c := Club{
			Abbreviation: mostFrequent(r.forms[key]),
			Key:          key,
			Name:         mostFrequent(r.names[key]),
			GroupID:      r.groups.groupID(key),
			Occurrences:  r.totals[key],
		}
		res.Clubs = append(res.Clubs, c)

		for _, v := range res.Variants {
			if v.Key == key && v.Name == c.Name {
				res.representative[key] = v
				break
			}
		}

		if len(r.names[key]) > 1 {
			res.Conflicts = append(res.Conflicts, conflictsFor(c, r.names[key])...)
		}
	}

	return res
}

func conflictsFor(c Club, names map[string]int) []Conflict {
	out := make([]Conflict, 0, len(names))
	for name, count := range names {
		out = append(out, Conflict{
			Key:            c.Key,
			Abbreviation:   c.Abbreviation,
			Name:           name,
			Count:          count,
			Representative: name == c.Name,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// mostFrequent picks the highest count; ties go to the longer string, then
// to the lexically smaller one.
func mostFrequent(counts map[string]int) string {
	best, bestCount, bestLen := "", -1, -1
	for s, c := range counts {
		l := utf8.RuneCountInString(s)
		switch {
		case c > bestCount,
			c == bestCount && l > bestLen,
			c == bestCount && l == bestLen && s < best:
			best, bestCount, bestLen = s, c, l
		}
	}
	return best
}

// VariantID returns the representative variant ID of an abbreviation.
func (res *Resolution) VariantID(abbreviation string) (string, bool) {
	v, ok := res.Lookup(abbreviation)
	return v.ID, ok
}
