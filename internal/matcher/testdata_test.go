package matcher

import (
	"io"
	"log/slog"

	"github.com/Proton-105/mensa-bot/internal/domain"
)

func price(v float64) *float64 {
	return &v
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleSnapshot() *domain.MenuSnapshot {
	return &domain.MenuSnapshot{
		Date:    "2024-05-06",
		Canteen: domain.Canteen{ID: 538, Name: "Mensa TU Marchstraße"},
		Sections: []domain.MenuSection{
			{Title: "Salate", Meals: []domain.Meal{
				{Name: "Große Salatschale", Prices: []*float64{price(1.85), price(2.9)}},
			}},
			{Title: "Suppen", Meals: []domain.Meal{
				{Name: "Tomatensuppe", Prices: []*float64{price(0.9)}},
				{Name: "Linseneintopf", Prices: []*float64{nil, price(1.5)}},
			}},
			{Title: "Essen", Meals: []domain.Meal{
				{Name: "Gemüsecurry mit Reis", Prices: []*float64{price(3.25)}},
			}},
			{Title: "Getränke", Meals: []domain.Meal{
				{Name: "Apfelschorle", Prices: []*float64{price(1.1)}},
			}},
		},
	}
}
