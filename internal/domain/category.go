package domain

// Category is a fixed semantic grouping of menu sections used for matching.
type Category struct {
	// Name is the key used in match results.
	Name string
	// Section is the menu section title the category is read from.
	Section string
}

// Categories lists the matching categories in display order.
var Categories = []Category{
	{Name: "Salads", Section: "Salate"},
	{Name: "Soups", Section: "Suppen"},
	{Name: "Actions", Section: "Aktionen"},
	{Name: "Food", Section: "Essen"},
	{Name: "Sides", Section: "Beilagen"},
	{Name: "Desserts", Section: "Desserts"},
}

func categoryRank(name string) (int, bool) {
	for i, category := range Categories {
		if category.Name == name {
			return i, true
		}
	}
	return 0, false
}
