package domain

// Allergen is an allergen marker attached to a meal.
type Allergen struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Meal is a single dish on a canteen menu. Prices are ordered by tier
// (student, staff, guest) and any tier may be missing.
type Meal struct {
	Name       string     `json:"name"`
	Prices     []*float64 `json:"prices"`
	CO2Value   *string    `json:"co2Value"`
	CO2Info    *string    `json:"co2Info"`
	WaterValue *string    `json:"waterValue"`
	WaterInfo  *string    `json:"waterInfo"`
	Allergens  []Allergen `json:"mealAllergens"`
	AmpelValue int        `json:"ampelValue"`
	DietValue  *string    `json:"dietValue"`
}

// FirstPrice returns the first price tier, or nil when the meal has none.
func (m Meal) FirstPrice() *float64 {
	if len(m.Prices) == 0 {
		return nil
	}
	return m.Prices[0]
}

// MenuSection groups meals under a section title such as "Suppen".
type MenuSection struct {
	Title string `json:"title"`
	Meals []Meal `json:"meals"`
}

// MenuSnapshot is the menu of one canteen on one date.
type MenuSnapshot struct {
	Date     string        `json:"date"`
	Canteen  Canteen       `json:"canteen"`
	Sections []MenuSection `json:"menu"`
}

// Section returns the meals of the first section with the given title.
func (s *MenuSnapshot) Section(title string) []Meal {
	if s == nil {
		return nil
	}

	for _, section := range s.Sections {
		if section.Title == title {
			return section.Meals
		}
	}

	return nil
}
