package roster

import (
	"crypto/md5" //nolint:gosec // reproduces a retired identifier scheme
	"math/big"
	"strconv"
	"strings"

	"github.com/albapepper/regatta-data/internal/ident"
	"github.com/albapepper/regatta-data/internal/normalize"
)

// ID schemes recognised by Classify.
const (
	SchemeCanonical  = "canonical"
	SchemeClubSalted = "club_salted"
	SchemeUnknown    = "unknown"
)

const (
	legacyModulus     = 100000
	legacyMaxDigits   = 5
	legacyPartLength  = 3
	legacyMissingLast = "Brak"
)

// CleanID trims an explicit ID cell and undoes spreadsheet damage: a ".0"
// suffix from float columns and leading zeros lost by integer columns.
// IDs longer than six digits are zero padded to the canonical width.
func CleanID(raw string) string {
	id := strings.TrimSpace(raw)
	id = strings.TrimSuffix(id, ".0")
	if id == "" || !allDigits(id) {
		return id
	}
	if len(id) > legacyMaxDigits && len(id) < ident.Width {
		id = strings.Repeat("0", ident.Width-len(id)) + id
	}
	return id
}

// LegacyClubSaltedID reproduces the retired scheme: MD5 of the first three
// letters of first name, last name and club, upper-cased, modulo 100000.
// A single-word name uses "Brak" as the last name.
func LegacyClubSaltedID(fullName, club string) string {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return ""
	}
	first, last := parts[0], legacyMissingLast
	if len(parts) > 1 {
		last = strings.Join(parts[1:], " ")
	}
	key := prefixUpper(first) + prefixUpper(last) + prefixUpper(strings.TrimSpace(club))
	sum := md5.Sum([]byte(key)) //nolint:gosec // not used for security
	n := new(big.Int).SetBytes(sum[:])
	n.Mod(n, big.NewInt(legacyModulus))
	return n.String()
}

// Classify decides which scheme produced id. canonicalID is the canonical
// form of a canonical id and empty otherwise. club is only used to recognise
// club-salted IDs.
func Classify(id, fullName, club string) (scheme, canonicalID string) {
	id = CleanID(id)
	name := normalize.Display(fullName)
	if id == "" || !allDigits(id) || len(id) > ident.Width {
		return SchemeUnknown, ""
	}
	if name != "" && leftPad(id) == ident.CompetitorID(name) {
		return SchemeCanonical, leftPad(id)
	}
	if len(id) <= legacyMaxDigits {
		if name != "" && club != "" && trimZeros(id) == LegacyClubSaltedID(name, club) {
			return SchemeClubSalted, ""
		}
		return SchemeUnknown, ""
	}
	return SchemeCanonical, id
}

func prefixUpper(s string) string {
	r := []rune(s)
	if len(r) > legacyPartLength {
		r = r[:legacyPartLength]
	}
	return strings.ToUpper(string(r))
}

func leftPad(id string) string {
	if len(id) >= ident.Width {
		return id
	}
	return strings.Repeat("0", ident.Width-len(id)) + id
}

func trimZeros(id string) string {
	n, err := strconv.Atoi(id)
	if err != nil {
		return id
	}
	return strconv.Itoa(n)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
