package usecase

import (
	"errors"
	"testing"

	"github.com/labelscan/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "plain JSON",
			content: `  {"name":"Mleko"}  `,
			want:    `{"name":"Mleko"}`,
		},
		{
			name:    "json fenced block",
			content: "Here is the data:\n```json\n{\"name\":\"Mleko\"}\n```\nHope it helps.",
			want:    `{"name":"Mleko"}`,
		},
		{
			name:    "unlabelled fenced block",
			content: "```\n{\"name\":\"Ser\"}\n```",
			want:    `{"name":"Ser"}`,
		},
		{
			name:    "fence with another language tag",
			content: "```javascript\n{\"name\":\"Kefir\"}\n```",
			want:    `{"name":"Kefir"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.content); got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseProductRecord_Complete(t *testing.T) {
	content := "```json\n" + `{
		"product_name": "Jogurt naturalny",
		"price": 2.49,
		"ingredients": ["mleko", "białka mleka", "żywe kultury bakterii"],
		"macronutrients": {"calories": 61, "protein": 4.5, "carbohydrates": 5.2, "fat": 2.5},
		"vitamins": {"B12": 0.4, "D": 1.1}
	}` + "\n```"

	record, err := ParseProductRecord(content)

	require.NoError(t, err)
	assert.Equal(t, "Jogurt naturalny", record.Name)
	require.NotNil(t, record.Price)
	assert.Equal(t, 2.49, *record.Price)
	assert.Equal(t, []string{"mleko", "białka mleka", "żywe kultury bakterii"}, record.Ingredients)
	assert.Equal(t, domain.Macronutrients{Calories: 61, Protein: 4.5, Carbohydrates: 5.2, Fat: 2.5}, record.Macronutrients)
	assert.Equal(t, map[string]float64{"B12": 0.4, "D": 1.1}, record.Vitamins)
}

func TestParseProductRecord_Defaults(t *testing.T) {
	record, err := ParseProductRecord(`{}`)

	require.NoError(t, err)
	assert.Equal(t, "Unknown Product", record.Name)
	assert.Nil(t, record.Price)
	assert.NotNil(t, record.Ingredients)
	assert.Empty(t, record.Ingredients)
	assert.Equal(t, domain.Macronutrients{}, record.Macronutrients)
	assert.Nil(t, record.Vitamins)
}

func TestParseProductRecord_NameFallback(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"product_name wins", `{"product_name":"A","name":"B"}`, "A"},
		{"name used when product_name missing", `{"name":"B"}`, "B"},
		{"empty product_name falls through", `{"product_name":"","name":"B"}`, "B"},
		{"null names become unknown", `{"product_name":null,"name":null}`, "Unknown Product"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := ParseProductRecord(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, record.Name)
		})
	}
}

func TestParseProductRecord_Lenient(t *testing.T) {
	t.Run("price as string with decimal comma", func(t *testing.T) {
		record, err := ParseProductRecord(`{"name":"Chleb","price":"4,99 zł"}`)
		require.NoError(t, err)
		require.NotNil(t, record.Price)
		assert.Equal(t, 4.99, *record.Price)
	})

	t.Run("vitamin amounts with units", func(t *testing.T) {
		record, err := ParseProductRecord(`{"vitamins":{"C":"12.5 mg","E":3,"Folian":"trace"}}`)
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"C": 12.5, "E": 3}, record.Vitamins)
	})

	t.Run("ingredients as one string", func(t *testing.T) {
		record, err := ParseProductRecord(`{"ingredients":"mąka, woda, sól"}`)
		require.NoError(t, err)
		assert.Equal(t, []string{"mąka", "woda", "sól"}, record.Ingredients)
	})

	t.Run("ingredient line with heading", func(t *testing.T) {
		record, err := ParseProductRecord(`{"ingredients":"Ingredients: sugar, cocoa butter, milk powder"}`)
		require.NoError(t, err)
		assert.Equal(t, []string{"sugar", "cocoa butter", "milk powder"}, record.Ingredients)
	})

	t.Run("ingredient line keeps sub-ingredients together", func(t *testing.T) {
		record, err := ParseProductRecord(`{"ingredients":"czekolada (cukier, kakao), mleko"}`)
		require.NoError(t, err)
		assert.Equal(t, []string{"czekolada (cukier, kakao)", "mleko"}, record.Ingredients)
	})

	t.Run("ingredient line keeps decimal commas", func(t *testing.T) {
		record, err := ParseProductRecord(`{"ingredients":"mleko 3,2%, cukier"}`)
		require.NoError(t, err)
		assert.Equal(t, []string{"mleko 3,2%", "cukier"}, record.Ingredients)
	})

	t.Run("ingredient list entries are not split", func(t *testing.T) {
		record, err := ParseProductRecord(`{"ingredients":["mleko 3,2%", "cukier"]}`)
		require.NoError(t, err)
		assert.Equal(t, []string{"mleko 3,2%", "cukier"}, record.Ingredients)
	})
}

func TestParseProductRecord_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"not JSON", "Sorry, I cannot read this label.", domain.ErrUnparseableResponse},
		{"broken fenced JSON", "```json\n{\"name\": \n```", domain.ErrUnparseableResponse},
		{"top level array", `[{"name":"x"}]`, domain.ErrInvalidProductData},
		{"name not a string", `{"name": 42}`, domain.ErrInvalidProductData},
		{"price not numeric", `{"price": "free"}`, domain.ErrInvalidProductData},
		{"price is object", `{"price": {"amount": 3}}`, domain.ErrInvalidProductData},
		{"ingredients not a list", `{"ingredients": {"a": 1}}`, domain.ErrInvalidProductData},
		{"ingredients with numbers", `{"ingredients": ["a", 2]}`, domain.ErrInvalidProductData},
		{"macronutrients not an object", `{"macronutrients": [1,2,3,4]}`, domain.ErrInvalidProductData},
		{"macronutrient missing", `{"macronutrients": {"calories": 1, "protein": 1, "carbohydrates": 1}}`, domain.ErrInvalidProductData},
		{"macronutrient as string", `{"macronutrients": {"calories": "100", "protein": 1, "carbohydrates": 1, "fat": 1}}`, domain.ErrInvalidProductData},
		{"vitamins not an object", `{"vitamins": ["C"]}`, domain.ErrInvalidProductData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProductRecord(tt.content)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseProductRecord() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
