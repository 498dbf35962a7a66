package ledger

import (
	"fmt"
	"strings"
)

const (
	nameCodeLength = 2
	nameCodeFiller = 'X'
)

// NameCode keeps the ASCII letters of name, upper-cased, truncated to two
// characters and right-padded with 'X'. "Jo" -> "JO", "O'Neil" -> "ON",
// "A" -> "AX", "" -> "XX".
func NameCode(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(name)) {
		if r < 'A' || r > 'Z' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == nameCodeLength {
			break
		}
	}
	for b.Len() < nameCodeLength {
		b.WriteByte(nameCodeFiller)
	}
	return b.String()
}

// Issuer composes login ids for one organisation prefix.
type Issuer struct {
	prefix string
}

func NewIssuer(prefix string) Issuer {
	return Issuer{prefix: strings.ToUpper(strings.TrimSpace(prefix))}
}

func (i Issuer) Prefix() string {
	return i.prefix
}

// Issue returns the next login id and serial for hireYear given the largest
// serial already allocated in that year (0 when none). The caller must hold
// the per-year allocation lock while reading currentMax and persisting.
func (i Issuer) Issue(firstName, lastName string, hireYear, currentMax int) (string, int) {
	serial := currentMax + 1
	return i.Compose(firstName, lastName, hireYear, serial), serial
}

func (i Issuer) Compose(firstName, lastName string, hireYear, serial int) string {
	return fmt.Sprintf("%s%s%s%04d%04d", i.prefix, NameCode(firstName), NameCode(lastName), hireYear, serial)
}
