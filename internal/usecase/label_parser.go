package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/labelscan/backend/internal/domain"
)

const unknownProductName = "Unknown Product"

var (
	// Models often wrap the JSON in a ```json fenced block
	fencedJSONPattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")

	// Leading number of strings like "12.5 mg" or "4,99 zł"
	leadingNumberPattern = regexp.MustCompile(`^\s*(-?\d+(?:[.,]\d+)?)`)
)

// rawProduct mirrors the model's JSON before any type checking
type rawProduct struct {
	ProductName    json.RawMessage `json:"product_name"`
	Name           json.RawMessage `json:"name"`
	Price          json.RawMessage `json:"price"`
	Ingredients    json.RawMessage `json:"ingredients"`
	Macronutrients json.RawMessage `json:"macronutrients"`
	Vitamins       json.RawMessage `json:"vitamins"`
}

// ExtractJSON returns the fenced JSON block of a model answer, or the whole
// answer when there is no fence
func ExtractJSON(content string) string {
	if match := fencedJSONPattern.FindStringSubmatch(content); match != nil {
		return match[1]
	}
	return strings.TrimSpace(content)
}

// ParseProductRecord turns a model answer into a validated ProductRecord.
// A missing name becomes "Unknown Product", missing macronutrients become
// zeros, and a missing price or vitamins become null.
func ParseProductRecord(content string) (domain.ProductRecord, error) {
	payload := []byte(ExtractJSON(content))

	var top interface{}
	if err := json.Unmarshal(payload, &top); err != nil {
		return domain.ProductRecord{}, fmt.Errorf("%w: %v", domain.ErrUnparseableResponse, err)
	}
	if _, ok := top.(map[string]interface{}); !ok {
		return domain.ProductRecord{}, fmt.Errorf("%w: top level is not an object", domain.ErrInvalidProductData)
	}

	var raw rawProduct
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.ProductRecord{}, fmt.Errorf("%w: %v", domain.ErrUnparseableResponse, err)
	}

	name, err := parseName(raw.ProductName, raw.Name)
	if err != nil {
		return domain.ProductRecord{}, err
	}

	price, err := parsePrice(raw.Price)
	if err != nil {
		return domain.ProductRecord{}, err
	}

	ingredients, err := parseIngredients(raw.Ingredients)
	if err != nil {
		return domain.ProductRecord{}, err
	}

	macros, err := parseMacronutrients(raw.Macronutrients)
	if err != nil {
		return domain.ProductRecord{}, err
	}

	vitamins, err := parseVitamins(raw.Vitamins)
	if err != nil {
		return domain.ProductRecord{}, err
	}

	return domain.NewProductRecord(name, price, ingredients, macros, vitamins), nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func invalid(field, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s %s", domain.ErrInvalidProductData, field, fmt.Sprintf(format, args...))
}

// parseName prefers product_name over name; empty strings fall through
func parseName(candidates ...json.RawMessage) (string, error) {
	for _, raw := range candidates {
		if isNull(raw) {
			continue
		}
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return "", invalid("name", "must be a string")
		}
		if strings.TrimSpace(name) != "" {
			return name, nil
		}
	}
	return unknownProductName, nil
}

func parsePrice(raw json.RawMessage) (*float64, error) {
	if isNull(raw) {
		return nil, nil
	}
	value, ok := numericValue(raw)
	if !ok {
		return nil, invalid("price", "must be a number or null, got %s", raw)
	}
	return &value, nil
}

// parseIngredients accepts a list of strings, or one string the normalizer will split
func parseIngredients(raw json.RawMessage) ([]string, error) {
	if isNull(raw) {
		return []string{}, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	// A single string is the label's ingredient line; list entries are never split
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return splitIngredientLine(single), nil
	}

	return nil, invalid("ingredients", "must be a list of strings")
}

// splitIngredientLine turns "Ingredients: a, b (c, d)" into ["a", "b (c, d)"]
func splitIngredientLine(line string) []string {
	parts := splitTopLevel(ingredientsHeadingPattern.ReplaceAllString(line, ""))
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list
}

func parseMacronutrients(raw json.RawMessage) (domain.Macronutrients, error) {
	if isNull(raw) {
		return domain.Macronutrients{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.Macronutrients{}, invalid("macronutrients", "must be an object")
	}

	var macros domain.Macronutrients
	targets := []struct {
		key  string
		dest *float64
	}{
		{"calories", &macros.Calories},
		{"protein", &macros.Protein},
		{"carbohydrates", &macros.Carbohydrates},
		{"fat", &macros.Fat},
	}
	for _, target := range targets {
		value, present := fields[target.key]
		if !present || isNull(value) {
			return domain.Macronutrients{}, invalid("macronutrients."+target.key, "is required")
		}
		if err := json.Unmarshal(value, target.dest); err != nil {
			return domain.Macronutrients{}, invalid("macronutrients."+target.key, "must be a number, got %s", value)
		}
	}

	return macros, nil
}

// parseVitamins keeps numeric amounts and amounts written as "12 mg";
// entries without a readable number are dropped
func parseVitamins(raw json.RawMessage) (map[string]float64, error) {
	if isNull(raw) {
		return nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, invalid("vitamins", "must be an object or null")
	}

	vitamins := make(map[string]float64, len(fields))
	for name, value := range fields {
		if amount, ok := numericValue(value); ok {
			vitamins[name] = amount
		}
	}
	return vitamins, nil
}

// numericValue reads a JSON number, or a string starting with a number
// (decimal comma allowed)
func numericValue(raw json.RawMessage) (float64, bool) {
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number, true
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, false
	}
	match := leadingNumberPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	number, err := strconv.ParseFloat(strings.Replace(match[1], ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return number, true
}
