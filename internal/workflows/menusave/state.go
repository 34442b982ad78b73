package menusave

import (
	"fmt"
	"strings"

	"menza-admin/internal/models"
)

// State of a weekly menu as seen by a save.
type State string

const (
	StateNoMenuYet            State = "no_menu_yet"
	StateExistingMenuDetected State = "existing_menu_detected"
	StateSaved                State = "saved"
	StateFailed               State = "failed"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// WeeklyMenu is the editable view of one week: five days of three slots.
// A nil slot is empty.
type WeeklyMenu struct {
	Year   int
	Week   int
	MenuID string
	Exists bool
	Days   map[int][models.SlotsPerDay]*models.FoodItem
	// Unresolved lists slots whose food is no longer in the catalog.
	Unresolved []SlotRef
}

// Selection returns the food ids of every filled slot, keyed by day.
func (m *WeeklyMenu) Selection() map[int][]int64 {
	out := make(map[int][]int64, len(m.Days))
	for day, slots := range m.Days {
		ids := make([]int64, 0, models.SlotsPerDay)
		for _, food := range slots {
			if food != nil {
				ids = append(ids, food.ID.Int64())
			}
		}
		out[day] = ids
	}
	return out
}

type SaveInput struct {
	Year int
	Week int
	// Days maps ISO day 1..5 to three food ids in slot order.
	Days map[int][]int64
	// ExistingMenuID is the id of the menu loaded for this week, if any.
	ExistingMenuID string
}

type SaveResult struct {
	State       State
	Mode        Mode
	Transitions []State
	Menu        []models.MenuDay
}

func (r *SaveResult) transition(s State) {
	r.State = s
	r.Transitions = append(r.Transitions, s)
}

// SlotRef points at one slot of the week.
type SlotRef struct {
	Day    int
	Slot   int
	FoodID int64
}

// StaleFoodError lists selected foods that no longer exist on the server.
// Nothing has been written when it is returned.
type StaleFoodError struct {
	Slots []SlotRef
}

func (e *StaleFoodError) Error() string {
	parts := make([]string, 0, len(e.Slots))
	for _, s := range e.Slots {
		parts = append(parts, fmt.Sprintf("day %d slot %d food %d", s.Day, s.Slot+1, s.FoodID))
	}
	return "foods no longer available: " + strings.Join(parts, ", ")
}
