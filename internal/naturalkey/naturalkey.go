// Package naturalkey builds the cross-system identifiers used to match
// catalog entities between the ERP and the marketplace. Both sides assign
// opaque ids that cannot be recomputed, so matching relies on business codes
// and, for variation headers, on a content hash of a normalized composite of
// product code and variation name.
package naturalkey

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize lowercases the input, strips accents and drops everything that
// is not a letter or digit. "Açaí 500ml" and "ACAI  500ML" normalize to the
// same value, which is the whole point: ERP operators retype names with
// inconsistent casing and accents.
func Normalize(s string) string {
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)

	var b strings.Builder
	b.Grow(len(out))
	for _, r := range out {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// VariationHash is the natural key of a variation header: a sha256 over the
// normalized product code + variation name. Names alone are not unique per
// product across systems.
func VariationHash(productCode, variationName string) string {
	sum := sha256.Sum256([]byte(Normalize(productCode) + ":" + Normalize(variationName)))
	return hex.EncodeToString(sum[:])
}
