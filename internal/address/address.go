package address

import (
	"strconv"
	"strings"

	"github.com/knockline/backend/internal/models"
)

// Normalize canonicalizes an address for comparison: lowercase, commas
// stripped, repeated whitespace collapsed, trimmed. Idempotent.
func Normalize(addr string) string {
	v := strings.ToLower(addr)
	v = strings.ReplaceAll(v, ",", "")
	for strings.Contains(v, "  ") {
		v = strings.ReplaceAll(v, "  ", " ")
	}
	return strings.TrimSpace(v)
}

// Match reports whether two addresses refer to the same place: after
// normalization, either side containing the other counts as a match. This is
// deliberately permissive so that "123 Main St" matches both "123 Main St
// Apt 2" and the geocoder's fully formatted variant. Symmetric, but not
// transitive.
func Match(a, b string) bool {
	na := Normalize(a)
	nb := Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// ResolveContact returns the first contact whose address matches. Customers
// take priority over prospects: a doorstep visit to a known customer must
// never come back as a new prospect.
func ResolveContact(addr string, prospects []models.Contact, customers []models.Contact) *models.Contact {
	for i := range customers {
		if Match(addr, customers[i].Address) {
			return &customers[i]
		}
	}
	for i := range prospects {
		if Match(addr, prospects[i].Address) {
			return &prospects[i]
		}
	}
	return nil
}

// SplitHouseNumber parses a leading house number and the street remainder
// from an address. Addresses without a parseable leading number report ok
// false.
func SplitHouseNumber(addr string) (num int, street string, ok bool) {
	fields := strings.Fields(strings.TrimSpace(addr))
	if len(fields) < 2 {
		return 0, "", false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return 0, "", false
	}
	return n, strings.Join(fields[1:], " "), true
}
