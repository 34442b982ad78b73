// internal/models/order.go
package models

// OrderSummary aggregates orders of one food across a week. Days maps the ISO
// day of week (1-7) to the ordered quantity.
type OrderSummary struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Price int         `json:"price"`
	Days  map[int]int `json:"days"`
}

// QuantityOn returns the quantity ordered for day, zero when the day is absent.
func (o OrderSummary) QuantityOn(day int) int {
	return o.Days[day]
}

// OrdersByWeekRequest selects the orders of one ISO week, optionally of a
// single day. It is sent as query parameters.
type OrdersByWeekRequest struct {
	Year int  `json:"year"`
	Week int  `json:"week"`
	Day  *int `json:"day,omitempty"`
}
