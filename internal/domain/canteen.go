package domain

import "strings"

// Canteen is a cafeteria location served by the menu API.
type Canteen struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Canteens is the static list of canteens the bot offers for selection.
var Canteens = []Canteen{
	{ID: 321, Name: "Mensa TU Hardenbergstraße"},
	{ID: 538, Name: "Mensa TU Marchstraße"},
	{ID: 540, Name: "Mensa Pastaria TU Architektur"},
	{ID: 541, Name: "Backshop TU Wetterleuchten"},
	{ID: 631, Name: "Mensa Pasteria TU Veggie 2.0 - Die vegane Mensa"},
}

// FindCanteenByName looks up a canteen by display name, ignoring case and surrounding spaces.
func FindCanteenByName(name string) (Canteen, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Canteen{}, false
	}

	for _, canteen := range Canteens {
		if strings.EqualFold(canteen.Name, name) {
			return canteen, true
		}
	}

	return Canteen{}, false
}

// FindCanteenByID looks up a canteen by its menu API identifier.
func FindCanteenByID(id int) (Canteen, bool) {
	for _, canteen := range Canteens {
		if canteen.ID == id {
			return canteen, true
		}
	}

	return Canteen{}, false
}
