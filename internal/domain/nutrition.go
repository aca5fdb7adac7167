package domain

// Macronutrients contains the four values every label analysis must report
type Macronutrients struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`       // grams
	Carbohydrates float64 `json:"carbohydrates"` // grams
	Fat           float64 `json:"fat"`           // grams
}

// ProductRecord is the structured result of analysing one product label.
// Construct it with NewProductRecord; it is not modified afterwards.
type ProductRecord struct {
	Name           string             `json:"name"`
	Price          *float64           `json:"price"`
	Ingredients    []string           `json:"ingredients"`
	Macronutrients Macronutrients     `json:"macronutrients"`
	Vitamins       map[string]float64 `json:"vitamins"`
}

// NewProductRecord builds a ProductRecord that owns copies of the given
// price, ingredients and vitamins.
func NewProductRecord(
	name string,
	price *float64,
	ingredients []string,
	macros Macronutrients,
	vitamins map[string]float64,
) ProductRecord {
	record := ProductRecord{
		Name:           name,
		Ingredients:    make([]string, len(ingredients)),
		Macronutrients: macros,
	}
	copy(record.Ingredients, ingredients)

	if price != nil {
		p := *price
		record.Price = &p
	}

	if vitamins != nil {
		record.Vitamins = make(map[string]float64, len(vitamins))
		for k, v := range vitamins {
			record.Vitamins[k] = v
		}
	}

	return record
}

// PriceOrZero returns the price, or 0 when the label had none
func (p ProductRecord) PriceOrZero() float64 {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

// VitaminsOrEmpty never returns nil, so the value can be stored as a JSON object
func (p ProductRecord) VitaminsOrEmpty() map[string]float64 {
	if p.Vitamins == nil {
		return map[string]float64{}
	}
	return p.Vitamins
}
