// internal/models/menu.go
package models

const (
	FirstMenuDay = 1
	LastMenuDay  = 5
	SlotsPerDay  = 3
)

// MenuDay is one served day of a weekly menu. ID is assigned by the server and
// is empty until the week has been saved at least once. Foods are ordered by
// slot.
type MenuDay struct {
	ID    string     `json:"id"`
	Year  int        `json:"year"`
	Week  int        `json:"week"`
	Day   int        `json:"day"`
	Foods []FoodItem `json:"foods"`
}

// IsWorkday reports whether Day is one of the served days, Monday to Friday.
func (m MenuDay) IsWorkday() bool {
	return m.Day >= FirstMenuDay && m.Day <= LastMenuDay
}

// CreateMenuRequest is the body of POST and PATCH /v1/menu. Days maps "1".."5"
// to exactly three distinct food ids, in slot order. A day missing from an
// update is left untouched by the server.
type CreateMenuRequest struct {
	Year int                 `json:"year"`
	Week int                 `json:"week"`
	Days map[string][]string `json:"days"`
}

// MenuAck is the acknowledgment returned by menu writes.
type MenuAck struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}
