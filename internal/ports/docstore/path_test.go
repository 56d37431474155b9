package docstore

import (
	"errors"
	"testing"
)

func TestAnimalPath(t *testing.T) {
	p, err := AnimalPath("soc-1", "dog", "a-1")
	if err != nil {
		t.Fatalf("AnimalPath error: %v", err)
	}
	if p != "Societies/soc-1/dogs/a-1" {
		t.Fatalf("unexpected path %q", p)
	}
	if Parent(p) != "Societies/soc-1/dogs" {
		t.Fatalf("unexpected parent %q", Parent(p))
	}
	if err := ValidateDocumentPath(p); err != nil {
		t.Fatalf("expected valid document path, got %v", err)
	}
	if err := ValidateCollectionPath(Parent(p)); err != nil {
		t.Fatalf("expected valid collection path, got %v", err)
	}
}

func TestAnimalPath_RejectsBadSegments(t *testing.T) {
	cases := [][3]string{
		{"", "dog", "a-1"},
		{"soc-1", "", "a-1"},
		{"soc-1", "dog", ""},
		{"soc/1", "dog", "a-1"},
		{"soc-1", "dog", "a/1"},
	}
	for _, c := range cases {
		if _, err := AnimalPath(c[0], c[1], c[2]); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("AnimalPath(%q,%q,%q) expected ErrInvalidPath, got %v", c[0], c[1], c[2], err)
		}
	}
}

func TestUserPath(t *testing.T) {
	p, err := UserPath("u-1")
	if err != nil || p != "Users/u-1" {
		t.Fatalf("UserPath = %q, %v", p, err)
	}
	if _, err := UserPath(" "); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for blank user, got %v", err)
	}
}

func TestDocument_Float_AcceptsIntegerTypes(t *testing.T) {
	d := Document{Data: map[string]any{
		"f": 1.5,
		"i": int64(7),
		"j": int32(3),
		"s": "x",
	}}
	if v, ok := d.Float("f"); !ok || v != 1.5 {
		t.Fatalf("f = %v %v", v, ok)
	}
	if v, ok := d.Float("i"); !ok || v != 7 {
		t.Fatalf("i = %v %v", v, ok)
	}
	if v, ok := d.Float("j"); !ok || v != 3 {
		t.Fatalf("j = %v %v", v, ok)
	}
	if _, ok := d.Float("s"); ok {
		t.Fatalf("expected string field not to be numeric")
	}
	if _, ok := d.Float("missing"); ok {
		t.Fatalf("expected missing field not to be numeric")
	}
}

func TestContainsElement_UsesDeepEquality(t *testing.T) {
	items := []any{
		map[string]any{"id": "v1", "startTime": 1.0, "endTime": 2.0},
	}
	if !ContainsElement(items, map[string]any{"id": "v1", "startTime": 1.0, "endTime": 2.0}) {
		t.Fatalf("expected identical element to be contained")
	}
	if ContainsElement(items, map[string]any{"id": "v1", "startTime": 1.0}) {
		t.Fatalf("partial element must not match")
	}
}
