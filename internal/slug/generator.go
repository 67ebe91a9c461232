// Package slug produces and validates short link identifiers.
package slug

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/Srinathnulidonda/Savlinks/internal/domain"
)

// alphabet is lowercase alphanumeric with visually confusable characters
// (0, o, 1, i, l) removed.
const alphabet = "abcdefghjkmnpqrstuvwxyz23456789"

const (
	MinCustomLength = 4
	MaxCustomLength = 20
	DefaultLength   = 7
)

var customSlugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*[a-z0-9]$|^[a-z0-9]$`)

// defaultReserved are routing paths claimed by the service itself.
var defaultReserved = []string{
	"api", "auth", "links", "link", "login", "logout", "register", "signup",
	"health", "ready", "metrics", "swagger", "redoc", "static", "assets",
	"admin", "dashboard", "settings", "profile", "account", "stats",
	"verify", "reset", "password", "preview", "docs", "www",
}

// Generator produces candidate slugs. Candidates are collision-resistant
// but not unique; uniqueness is enforced by the repository at insert.
type Generator struct {
	length   int
	reserved map[string]struct{}
}

func NewGenerator(length int, extraReserved []string) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	reserved := make(map[string]struct{}, len(defaultReserved)+len(extraReserved))
	for _, w := range defaultReserved {
		reserved[w] = struct{}{}
	}
	for _, w := range extraReserved {
		reserved[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Generator{length: length, reserved: reserved}
}

func (g *Generator) Length() int { return g.length }

// Generate returns a random candidate of the given length, never a
// reserved word. Zero or negative length falls back to the configured
// default.
func (g *Generator) Generate(length int) (string, error) {
	if length <= 0 {
		length = g.length
	}

	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for {
		for i := range b {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", fmt.Errorf("slug generation: %w", err)
			}
			b[i] = alphabet[n.Int64()]
		}
		candidate := string(b)
		if !g.IsReserved(candidate) {
			return candidate, nil
		}
	}
}

func (g *Generator) IsReserved(slug string) bool {
	_, ok := g.reserved[strings.ToLower(slug)]
	return ok
}

// ValidateCustom normalizes and validates a caller-supplied slug. Custom
// slugs skip generation but share the reserved-word and repository
// uniqueness checks with generated ones.
func (g *Generator) ValidateCustom(raw string) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(raw))

	if len(slug) < MinCustomLength || len(slug) > MaxCustomLength {
		return "", fmt.Errorf("%w: length must be between %d and %d", domain.ErrInvalidSlug, MinCustomLength, MaxCustomLength)
	}
	if !customSlugPattern.MatchString(slug) {
		return "", fmt.Errorf("%w: only lowercase letters, digits, hyphens and underscores are allowed", domain.ErrInvalidSlug)
	}
	if g.IsReserved(slug) {
		return "", domain.ErrSlugReserved
	}

	return slug, nil
}
