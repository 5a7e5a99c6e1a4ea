package roster

import (
	"errors"

	"github.com/albapepper/regatta-data/internal/ident"
	"github.com/albapepper/regatta-data/internal/normalize"
	"github.com/albapepper/regatta-data/internal/record"
)

var (
	// ErrNoIdentity means the row has neither an ID nor a name.
	ErrNoIdentity = errors.New("competitor has neither ID nor name")
	// ErrNotInDirectory means strict mode found no directory entry.
	ErrNotInDirectory = errors.New("competitor not in directory")
	// ErrLegacyID means a legacy ID came without a name to migrate it by.
	ErrLegacyID = errors.New("legacy competitor ID without name")
)

// Resolution is a resolved competitor. Migration is set when a legacy ID was
// replaced by its canonical counterpart.
type Resolution struct {
	Competitor record.Competitor
	Migration  *record.IDMigration
}

// Resolver assigns competitor IDs. In strict mode only explicit IDs and
// directory entries are accepted; otherwise names fall back to the derived
// canonical ID.
type Resolver struct {
	dir    *Directory
	strict bool
}

// NewResolver creates a resolver. dir may be nil.
func NewResolver(dir *Directory, strict bool) *Resolver {
	return &Resolver{dir: dir, strict: strict}
}

// Resolve picks the competitor ID for one roster row.
func (r *Resolver) Resolve(explicitID, fullName, club string) (Resolution, error) {
	name := normalize.Display(fullName)
	id := CleanID(explicitID)

	if id != "" {
		scheme, canonical := Classify(id, name, club)
		if scheme == SchemeCanonical {
			return Resolution{Competitor: competitor(canonical, name, record.CompetitorFromRoster)}, nil
		}
		if name == "" {
			return Resolution{}, ErrLegacyID
		}
		res, err := r.byName(name, true)
		if err != nil {
			return Resolution{}, err
		}
		res.Migration = &record.IDMigration{
			OldID:    id,
			NewID:    res.Competitor.ID,
			FullName: name,
			Scheme:   scheme,
		}
		return res, nil
	}

	if name == "" {
		return Resolution{}, ErrNoIdentity
	}
	return r.byName(name, false)
}

func (r *Resolver) byName(name string, migrating bool) (Resolution, error) {
	if id, ok := r.dir.Lookup(name); ok {
		return Resolution{Competitor: competitor(id, name, record.CompetitorFromDirectory)}, nil
	}
	if r.strict && !migrating {
		return Resolution{}, ErrNotInDirectory
	}
	return Resolution{Competitor: competitor(ident.CompetitorID(name), name, record.CompetitorDerived)}, nil
}

func competitor(id, name, source string) record.Competitor {
	return record.Competitor{
		ID:             id,
		FullName:       name,
		NormalizedName: normalize.Name(name),
		Source:         source,
	}
}
