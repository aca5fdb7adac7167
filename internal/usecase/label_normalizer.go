package usecase

import (
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/labelscan/backend/internal/domain"
)

// LabelNormalizer tidies the free text a vision model reads off a label
type LabelNormalizer struct {
	enableDebugLogging bool
}

// Compiled regex patterns for label text
var (
	// Leading "Ingredients:" / "Składniki:" headings the model sometimes copies verbatim
	ingredientsHeadingPattern = regexp.MustCompile(`(?i)^\s*(ingredients|składniki|sklad|skład)\s*:\s*`)

	multiSpacePattern   = regexp.MustCompile(`\s+`)
	lonePunctuation     = regexp.MustCompile(`\s+[,\-;:]+\s+`)
	trailingPunctuation = regexp.MustCompile(`[,\-;:.]+\s*$`)
	leadingPunctuation  = regexp.MustCompile(`^\s*[,\-;:.]+`)
)

const maxNameLength = 200

// NewLabelNormalizer creates a new normalizer
func NewLabelNormalizer(enableDebugLogging bool) *LabelNormalizer {
	return &LabelNormalizer{
		enableDebugLogging: enableDebugLogging,
	}
}

// Normalize returns a cleaned copy of the record
func (n *LabelNormalizer) Normalize(record domain.ProductRecord) domain.ProductRecord {
	normalized := domain.NewProductRecord(
		n.NormalizeName(record.Name),
		record.Price,
		n.NormalizeIngredients(record.Ingredients),
		record.Macronutrients,
		n.NormalizeVitamins(record.Vitamins),
	)

	if n.enableDebugLogging {
		log.Printf("[NORMALIZE] %q: %d -> %d ingredients", normalized.Name, len(record.Ingredients), len(normalized.Ingredients))
	}

	return normalized
}

// NormalizeName collapses whitespace and bounds the length
func (n *LabelNormalizer) NormalizeName(name string) string {
	name = strings.TrimSpace(multiSpacePattern.ReplaceAllString(name, " "))
	if name == "" {
		return unknownProductName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		runes := []rune(name)
		name = strings.TrimSpace(string(runes[:maxNameLength]))
	}
	return name
}

// NormalizeIngredients cleans each entry and drops empties and case-insensitive
// duplicates. Entries are never split, so "mleko 3,2%" stays one ingredient.
func (n *LabelNormalizer) NormalizeIngredients(ingredients []string) []string {
	result := make([]string, 0, len(ingredients))
	seen := make(map[string]bool, len(ingredients))

	for i, ingredient := range ingredients {
		if i == 0 {
			ingredient = ingredientsHeadingPattern.ReplaceAllString(ingredient, "")
		}
		cleaned := cleanIngredient(ingredient)
		if cleaned == "" {
			continue
		}
		key := strings.ToLower(cleaned)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, cleaned)
	}

	return result
}

// NormalizeVitamins trims nutrient names. When two names collapse to the same
// key the larger amount is kept.
func (n *LabelNormalizer) NormalizeVitamins(vitamins map[string]float64) map[string]float64 {
	if vitamins == nil {
		return nil
	}

	result := make(map[string]float64, len(vitamins))
	for name, amount := range vitamins {
		key := strings.TrimSpace(multiSpacePattern.ReplaceAllString(name, " "))
		if key == "" {
			continue
		}
		if existing, ok := result[key]; ok && existing >= amount {
			continue
		}
		result[key] = amount
	}
	return result
}

// cleanIngredient removes orphaned punctuation and normalizes whitespace
func cleanIngredient(s string) string {
	s = multiSpacePattern.ReplaceAllString(s, " ")
	s = cleanOrphanedPunctuation(s)
	return strings.TrimSpace(s)
}

// cleanOrphanedPunctuation removes punctuation that's alone or dangling at either end
func cleanOrphanedPunctuation(s string) string {
	result := lonePunctuation.ReplaceAllString(s, " ")
	result = trailingPunctuation.ReplaceAllString(result, "")
	result = leadingPunctuation.ReplaceAllString(result, "")
	return result
}

// splitTopLevel splits on commas that are not inside parentheses or brackets,
// so "chocolate (sugar, cocoa), milk" stays two ingredients. A comma between
// two digits is a decimal separator ("3,2%") and never splits.
func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 && !isDecimalComma(s, i) {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func isDecimalComma(s string, i int) bool {
	return i > 0 && i+1 < len(s) && isDigit(s[i-1]) && isDigit(s[i+1])
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
