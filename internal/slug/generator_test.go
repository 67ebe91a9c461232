package slug

import (
	"errors"
	"strings"
	"testing"

	"github.com/Srinathnulidonda/Savlinks/internal/domain"
)

func TestGenerator_Generate_Length(t *testing.T) {
	g := NewGenerator(7, nil)

	tests := []struct {
		name     string
		length   int
		expected int
	}{
		{name: "default length", length: 0, expected: 7},
		{name: "explicit length", length: 10, expected: 10},
		{name: "negative falls back to default", length: -1, expected: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := g.Generate(tt.length)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(s) != tt.expected {
				t.Errorf("expected length %d, got %d (%q)", tt.expected, len(s), s)
			}
		})
	}
}

func TestGenerator_Generate_Alphabet(t *testing.T) {
	g := NewGenerator(7, nil)

	for i := 0; i < 100; i++ {
		s, err := g.Generate(0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, c := range s {
			if !strings.ContainsRune(alphabet, c) {
				t.Fatalf("slug %q contains character %q outside the alphabet", s, c)
			}
		}
		if strings.ContainsAny(s, "0o1il") {
			t.Fatalf("slug %q contains an ambiguous character", s)
		}
	}
}

func TestGenerator_Generate_Uniqueness(t *testing.T) {
	g := NewGenerator(7, nil)

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		s, err := g.Generate(0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen[s] = struct{}{}
	}
	// Collision-resistant, not collision-free. 1000 draws from 31^7
	// should essentially never collide.
	if len(seen) < 999 {
		t.Errorf("expected near-unique candidates, got %d distinct of 1000", len(seen))
	}
}

func TestGenerator_ValidateCustom(t *testing.T) {
	g := NewGenerator(7, []string{"branded"})

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "valid slug", input: "promo", want: "promo"},
		{name: "uppercase is normalized", input: "PROMO", want: "promo"},
		{name: "whitespace is trimmed", input: "  promo  ", want: "promo"},
		{name: "hyphens allowed inside", input: "summer-sale", want: "summer-sale"},
		{name: "too short", input: "ab", wantErr: domain.ErrInvalidSlug},
		{name: "too long", input: strings.Repeat("a", 21), wantErr: domain.ErrInvalidSlug},
		{name: "leading hyphen", input: "-promo", wantErr: domain.ErrInvalidSlug},
		{name: "trailing hyphen", input: "promo-", wantErr: domain.ErrInvalidSlug},
		{name: "illegal characters", input: "pro.mo", wantErr: domain.ErrInvalidSlug},
		{name: "reserved routing path", input: "links", wantErr: domain.ErrSlugReserved},
		{name: "reserved from config", input: "branded", wantErr: domain.ErrSlugReserved},
		{name: "reserved check ignores case", input: "Links", wantErr: domain.ErrSlugReserved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.ValidateCustom(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
