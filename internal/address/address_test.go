package address

import (
	"testing"

	"github.com/knockline/backend/internal/models"
)

func TestNormalizeIdempotent(t *testing.T) {
	in := " 123  Main St, "
	once := Normalize(in)
	if once != "123 main st" {
		t.Fatalf("unexpected normalization: %q", once)
	}
	if Normalize(once) != once {
		t.Fatalf("normalize is not idempotent: %q -> %q", once, Normalize(once))
	}
}

func TestNormalizeCaseAndPunctuation(t *testing.T) {
	if Normalize(" 123  Main St, ") != Normalize("123 main st") {
		t.Fatalf("expected case/whitespace/comma insensitive equality")
	}
}

func TestMatchSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"123 Main St", "123 Main St Apt 2"},
		{"500 Oak St", "500 Oak St, Springfield, USA"},
		{"12 Elm", "77 Birch"},
	}
	for _, p := range pairs {
		if Match(p[0], p[1]) != Match(p[1], p[0]) {
			t.Fatalf("match not symmetric for %q / %q", p[0], p[1])
		}
	}
}

func TestMatchNotTransitive(t *testing.T) {
	a := "12 Oak"
	b := "12 Oak Ave"
	c := "2 Oak Ave"
	if !Match(a, b) || !Match(b, c) {
		t.Fatalf("expected a~b and b~c")
	}
	if Match(a, c) {
		t.Fatalf("expected a and c not to match; transitivity must not be assumed")
	}
}

func TestMatchEmpty(t *testing.T) {
	if Match("", "123 Main St") || Match("  ,", "123 Main St") {
		t.Fatalf("empty address must not match anything")
	}
}

func TestResolveContactPrefersCustomers(t *testing.T) {
	prospects := []models.Contact{
		{ID: "p1", Address: "123 Main St", List: models.ListProspects},
	}
	customers := []models.Contact{
		{ID: "c1", Address: "123 Main St Apt 2", List: models.ListCustomers},
	}

	got := ResolveContact("123 Main St", prospects, customers)
	if got == nil || got.ID != "c1" {
		t.Fatalf("expected customer c1 to win, got %+v", got)
	}
}

func TestResolveContactFallsBackToProspect(t *testing.T) {
	prospects := []models.Contact{
		{ID: "p1", Address: "45 Birch Rd", List: models.ListProspects},
	}
	customers := []models.Contact{
		{ID: "c1", Address: "9 Pine Ln", List: models.ListCustomers},
	}

	got := ResolveContact("45 Birch Rd, Springfield", prospects, customers)
	if got == nil || got.ID != "p1" {
		t.Fatalf("expected prospect p1, got %+v", got)
	}
	if ResolveContact("1 Nowhere", prospects, customers) != nil {
		t.Fatalf("expected no match for unknown address")
	}
}

func TestSplitHouseNumber(t *testing.T) {
	num, street, ok := SplitHouseNumber("123 Main St")
	if !ok || num != 123 || street != "Main St" {
		t.Fatalf("unexpected split: %d %q %v", num, street, ok)
	}
	if _, _, ok := SplitHouseNumber("Main St"); ok {
		t.Fatalf("expected no parseable leading number")
	}
	if _, _, ok := SplitHouseNumber("123"); ok {
		t.Fatalf("expected failure without a street remainder")
	}
	if _, _, ok := SplitHouseNumber(""); ok {
		t.Fatalf("expected failure on empty address")
	}
}
