package pipeline

import (
	"github.com/albapepper/regatta-data/internal/normalize"
	"github.com/albapepper/regatta-data/internal/record"
)

// VariantIndex maps a club key to its representative variant ID. It is the
// lookup used when reconciling against tables read back from disk, where the
// in-memory club resolution is no longer available.
type VariantIndex map[string]string

// NewVariantIndex picks, for every club, the variant carrying the club's
// representative name.
func NewVariantIndex(clubs []record.Club, variants []record.ClubVariant) VariantIndex {
	names := make(map[string]string, len(clubs))
	for _, c := range clubs {
		names[c.Key] = c.Name
	}
	idx := make(VariantIndex, len(clubs))
	for _, v := range variants {
		if name, ok := names[v.Key]; ok && name == v.Name {
			idx[v.Key] = v.ID
		}
	}
	return idx
}

// VariantID implements participation.ClubLookup.
func (idx VariantIndex) VariantID(abbreviation string) (string, bool) {
	id, ok := idx[normalize.Key(abbreviation)]
	return id, ok
}
