package domain

import "time"

// MealRecord is a confirmed lunch. JSON keys match the records written by
// earlier versions of the bot so existing data files stay readable.
type MealRecord struct {
	ID              string      `json:"id,omitempty"`
	Date            time.Time   `json:"date"`
	CanteenName     string      `json:"mensa"`
	UserDescription string      `json:"userResponse"`
	MatchedItems    MatchResult `json:"matchedItem"`
	Total           float64     `json:"total"`
}

// NewDraftRecord starts a record for a lunch on the given day.
func NewDraftRecord(now time.Time) *MealRecord {
	return &MealRecord{
		Date:         now.UTC(),
		MatchedItems: MatchResult{},
	}
}

// Clone returns a deep copy of the record.
func (r *MealRecord) Clone() *MealRecord {
	if r == nil {
		return nil
	}

	clone := *r
	if r.MatchedItems != nil {
		clone.MatchedItems = make(MatchResult, len(r.MatchedItems))
		for category, items := range r.MatchedItems {
			clone.MatchedItems[category] = append([]MatchedItem(nil), items...)
		}
	}
	return &clone
}
