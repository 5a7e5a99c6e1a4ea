// Package ident derives deterministic numeric identifiers from semantic keys.
//
// An identifier is the first four bytes of the SHA-1 digest of a canonical
// key string, read as a big-endian integer, reduced modulo 10^8 and zero
// padded to eight digits. Runs over disjoint subsets of the source files
// agree on every identifier without a shared counter or lookup service.
package ident

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/albapepper/regatta-data/internal/normalize"
)

// Width is the number of decimal digits in every identifier.
const Width = 8

const modulus = 100_000_000

// Entity types hashed into identifiers. The values are part of the hash input
// and must never change.
const (
	EntityClubVariant   = "KLUB_WARIANT"
	EntityClubGroup     = "KLUB"
	EntityRegatta       = "regaty"
	EntityRace          = "wyscig"
	EntityPlacement     = "miejsce"
	EntityResult        = "wynikRegat"
	EntityParticipation = "wystepowanie"
	EntityCompetitor    = "zawodnik"
)

// LevelAll is the level key of entities that do not belong to one league.
const LevelAll = "ALL"

// Param is one key=value pair of the canonical key string. Values are always
// produced by Str or Int so that one logical value has exactly one textual
// form at every call site.
type Param struct {
	Key   string
	Value string
}

// Str returns a string parameter. The value is used as given; callers
// normalise it first.
func Str(key, value string) Param {
	return Param{Key: key, Value: value}
}

// Int returns an integer parameter in base-10 form without padding or sign
// for non-negative values.
func Int(key string, value int) Param {
	return Param{Key: key, Value: strconv.Itoa(value)}
}

// Canonical returns the exact string that Generate hashes:
//
//	entity|liga_poziom=level|k1=v1|k2=v2
//
// with parameters sorted by key (then value), so call-site order is
// irrelevant.
func Canonical(entity, level string, params ...Param) string {
	sorted := make([]Param, len(params))
	copy(sorted, params)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Key != sorted[j].Key {
			return sorted[i].Key < sorted[j].Key
		}
		return sorted[i].Value < sorted[j].Value
	})

	var b strings.Builder
	b.WriteString(entity)
	b.WriteString("|liga_poziom=")
	b.WriteString(level)
	b.WriteByte('|')
	for i, p := range sorted {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

// Generate returns the 8-digit identifier of (entity, level, params).
// It never fails; meaningless input yields a deterministic meaningless ID.
func Generate(entity, level string, params ...Param) string {
	return Digest(Canonical(entity, level, params...))
}

// Digest hashes an arbitrary canonical string into an 8-digit identifier.
func Digest(s string) string {
	sum := sha1.Sum([]byte(s))
	n := binary.BigEndian.Uint32(sum[:4]) % modulus
	return fmt.Sprintf("%0*d", Width, n)
}

// CompetitorID derives a competitor identifier from the full name only.
// Club, season and league are deliberately absent from the key so one person
// keeps one ID across clubs and years.
func CompetitorID(fullName string) string {
	return Digest(EntityCompetitor + "|name_norm=" + normalize.Name(fullName))
}

// IsCanonical reports whether id has the shape of an identifier produced by
// this package: exactly Width ASCII digits.
func IsCanonical(id string) bool {
	if len(id) != Width {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}
