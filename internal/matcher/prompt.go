package matcher

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Proton-105/mensa-bot/internal/domain"
)

const promptHeader = "A user describes their lunch from a canteen menu. Match the description with the JSON menu items below."

const promptContract = `Return only JSON (no markdown) of the matching menu items in exactly this shape:
{"<category>": [{"name": "<name from the JSON menu>", "price": <price>}, ...]}
Use only the category names listed above and only item names from the menu.
If nothing matches, return an empty object: {}`

type promptItem struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price"`
}

// Partition groups the snapshot's meals by matching category. Categories
// without a section on the menu map to an empty list.
func Partition(snapshot *domain.MenuSnapshot) map[string][]domain.Meal {
	partitioned := make(map[string][]domain.Meal, len(domain.Categories))
	for _, category := range domain.Categories {
		meals := snapshot.Section(category.Section)
		if meals == nil {
			meals = []domain.Meal{}
		}
		partitioned[category.Name] = meals
	}
	return partitioned
}

// BuildPrompt renders the system prompt listing every category with its
// meals as {name, price} pairs, using the first price tier.
func BuildPrompt(snapshot *domain.MenuSnapshot) (string, error) {
	partitioned := Partition(snapshot)

	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\n# Menu\n")

	for _, category := range domain.Categories {
		meals := partitioned[category.Name]
		items := make([]promptItem, 0, len(meals))
		for _, meal := range meals {
			items = append(items, promptItem{Name: meal.Name, Price: meal.FirstPrice()})
		}

		encoded, err := json.Marshal(items)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", category.Name, err)
		}

		fmt.Fprintf(&b, "## %s: %s\n", category.Name, encoded)
	}

	b.WriteString("\n")
	b.WriteString(promptContract)

	return b.String(), nil
}
