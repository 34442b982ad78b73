package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menza-admin/internal/models"
)

func fullWeek() map[string][]string {
	return map[string][]string{
		"1": {"1", "2", "3"},
		"2": {"4", "5", "6"},
		"3": {"7", "8", "9"},
		"4": {"10", "11", "12"},
		"5": {"13", "14", "15"},
	}
}

func TestMenuValidator(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(req *models.CreateMenuRequest)
		wantValid bool
		wantField string
	}{
		{
			name:      "complete week",
			mutate:    func(req *models.CreateMenuRequest) {},
			wantValid: true,
		},
		{
			name:      "missing friday",
			mutate:    func(req *models.CreateMenuRequest) { delete(req.Days, "5") },
			wantField: "days",
		},
		{
			name:      "duplicate food in a day",
			mutate:    func(req *models.CreateMenuRequest) { req.Days["2"] = []string{"4", "4", "6"} },
			wantField: "days.2",
		},
		{
			name:      "two foods in a day",
			mutate:    func(req *models.CreateMenuRequest) { req.Days["3"] = []string{"7", "8"} },
			wantField: "days.3",
		},
		{
			name:      "non positive id",
			mutate:    func(req *models.CreateMenuRequest) { req.Days["1"] = []string{"0", "2", "3"} },
			wantField: "days.1.0",
		},
		{
			name:      "saturday",
			mutate:    func(req *models.CreateMenuRequest) { req.Days["6"] = []string{"1", "2", "3"} },
			wantField: "days",
		},
		{
			name:      "week out of range",
			mutate:    func(req *models.CreateMenuRequest) { req.Week = 54 },
			wantField: "week",
		},
	}

	v, err := MenuValidator()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := models.CreateMenuRequest{Year: 2024, Week: 12, Days: fullWeek()}
			tt.mutate(&req)

			result, err := v.Validate(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid, result.GetErrorMessages())
			if tt.wantField != "" {
				assert.True(t, result.HasErrors(tt.wantField), result.GetErrorMessages())
			}
		})
	}
}

func TestNewValidator_InvalidSchema(t *testing.T) {
	_, err := NewValidator(`{"type": 12}`)
	assert.Error(t, err)
}

func TestGetErrorsForField(t *testing.T) {
	vr := &ValidationResult{Errors: []ValidationError{
		{Field: "days.1", Message: "a"},
		{Field: "days.1.0", Message: "b"},
		{Field: "days.10", Message: "c"},
		{Field: "week", Message: "d"},
	}}

	assert.Len(t, vr.GetErrorsForField("days.1"), 2)
	assert.True(t, vr.HasErrors("week"))
	assert.False(t, vr.HasErrors("year"))
	assert.Equal(t, []string{"days.1: a", "days.1.0: b", "days.10: c", "week: d"}, vr.GetErrorMessages())
}
