package domain

import "testing"

func TestFindCanteenByName(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		wantID int
		wantOK bool
	}{
		{name: "exact name", input: "Mensa TU Marchstraße", wantID: 538, wantOK: true},
		{name: "case and spaces ignored", input: "  mensa tu hardenbergstraße ", wantID: 321, wantOK: true},
		{name: "unknown canteen", input: "Mensa FU Rostlaube", wantOK: false},
		{name: "empty input", input: "", wantOK: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			canteen, ok := FindCanteenByName(tc.input)
			if ok != tc.wantOK {
				t.Fatalf("FindCanteenByName(%q) ok = %t, want %t", tc.input, ok, tc.wantOK)
			}
			if ok && canteen.ID != tc.wantID {
				t.Errorf("FindCanteenByName(%q) id = %d, want %d", tc.input, canteen.ID, tc.wantID)
			}
		})
	}
}

func TestFindCanteenByID(t *testing.T) {
	canteen, ok := FindCanteenByID(631)
	if !ok || canteen.Name != "Mensa Pasteria TU Veggie 2.0 - Die vegane Mensa" {
		t.Fatalf("unexpected canteen %+v (ok=%t)", canteen, ok)
	}

	if _, ok := FindCanteenByID(1); ok {
		t.Fatal("expected unknown id to be rejected")
	}
}
