// Package menusave loads and saves weekly menus. A save validates the
// selection against the live catalog and falls back from create to update
// when the server reports that the week already has a menu.
package menusave

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "menza-admin/internal/common/errors"
	"menza-admin/internal/common/logger"
	"menza-admin/internal/common/metrics"
	"menza-admin/internal/common/observability"
	"menza-admin/internal/common/validation"
	"menza-admin/internal/models"
)

const workflowName = "menu_save"

// Backend is the subset of the backend client used here.
type Backend interface {
	GetAllFoods(ctx context.Context) ([]models.FoodItem, error)
	GetFoodByID(ctx context.Context, id string) (*models.FoodItem, error)
	GetMenu(ctx context.Context, week int, year *int) ([]models.MenuDay, error)
	CreateMenu(ctx context.Context, req models.CreateMenuRequest) (*models.MenuAck, error)
	UpdateMenu(ctx context.Context, req models.CreateMenuRequest) (*models.MenuAck, error)
}

type Options struct {
	Guard         Guard
	Logger        logger.Logger
	Observability *observability.Observability
}

type Service struct {
	backend Backend
	guard   Guard
	logger  logger.Logger
	obs     *observability.Observability
}

func NewService(backend Backend, opts Options) *Service {
	guard := opts.Guard
	if guard == nil {
		guard = NewLocalGuard()
	}
	return &Service{
		backend: backend,
		guard:   guard,
		logger:  logger.OrNoOp(opts.Logger).WithFields(map[string]interface{}{"workflow": workflowName}),
		obs:     opts.Observability,
	}
}

// ==========================
// Load
// ==========================

// Load fetches the catalog and the week's menu and places each served food
// into its slot. A week without a menu loads as empty with Exists false.
func (s *Service) Load(ctx context.Context, year, week int) (*WeeklyMenu, error) {
	foods, err := s.backend.GetAllFoods(ctx)
	if err != nil {
		return nil, err
	}
	days, err := s.backend.GetMenu(ctx, week, &year)
	if err != nil {
		return nil, err
	}

	catalog := indexFoods(foods)
	menu := &WeeklyMenu{
		Year: year,
		Week: week,
		Days: make(map[int][models.SlotsPerDay]*models.FoodItem, models.LastMenuDay),
	}
	for d := models.FirstMenuDay; d <= models.LastMenuDay; d++ {
		menu.Days[d] = [models.SlotsPerDay]*models.FoodItem{}
	}

	for _, day := range days {
		if !day.IsWorkday() {
			continue
		}
		menu.Exists = true
		if menu.MenuID == "" {
			menu.MenuID = day.ID
		}

		slots := menu.Days[day.Day]
		for i, served := range day.Foods {
			if i >= models.SlotsPerDay {
				break
			}
			if food, ok := catalog[served.ID.Int64()]; ok {
				slots[i] = food
			} else {
				menu.Unresolved = append(menu.Unresolved, SlotRef{Day: day.Day, Slot: i, FoodID: served.ID.Int64()})
			}
		}
		menu.Days[day.Day] = slots
	}

	s.logger.Debug("weekly menu loaded", map[string]interface{}{
		"year":       year,
		"week":       week,
		"exists":     menu.Exists,
		"unresolved": len(menu.Unresolved),
	})
	return menu, nil
}

// ==========================
// Save
// ==========================

// Save writes a full week. It returns the result even on failure so callers
// can inspect the state transitions.
func (s *Service) Save(ctx context.Context, in SaveInput) (*SaveResult, error) {
	start := time.Now()
	result := &SaveResult{Mode: ModeCreate}
	if in.ExistingMenuID != "" {
		result.Mode = ModeUpdate
		result.transition(StateExistingMenuDetected)
	} else {
		result.transition(StateNoMenuYet)
	}

	err := s.save(ctx, in, result)
	if err != nil {
		result.transition(StateFailed)
		s.logger.WithError(err).Warn("weekly menu save failed", map[string]interface{}{
			"year":          in.Year,
			"week":          in.Week,
			"mode":          string(result.Mode),
			"errorCategory": apperrors.Category(err),
		})
	} else {
		s.logger.Info("weekly menu saved", map[string]interface{}{
			"year": in.Year,
			"week": in.Week,
			"mode": string(result.Mode),
		})
	}

	metrics.MenuSaves.WithLabelValues(string(result.Mode), string(result.State)).Inc()
	s.obs.RecordWorkflow(ctx, workflowName, string(result.State), time.Since(start))
	return result, err
}

func (s *Service) save(ctx context.Context, in SaveInput, result *SaveResult) error {
	if err := validateSelection(in); err != nil {
		return err
	}

	release, err := s.guard.Acquire(ctx, in.Year, in.Week)
	if err != nil {
		return err
	}
	defer release()

	foods, err := s.backend.GetAllFoods(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh food list: %w", err)
	}
	if stale := staleSlots(in, indexFoods(foods)); len(stale) > 0 {
		return &StaleFoodError{Slots: stale}
	}
	if err := s.verifyFoods(ctx, in); err != nil {
		return err
	}

	req := buildRequest(in)
	if err := validateRequest(req); err != nil {
		return err
	}

	if err := s.write(ctx, req, result); err != nil {
		return err
	}

	year := in.Year
	menu, err := s.backend.GetMenu(ctx, in.Week, &year)
	if err != nil {
		return fmt.Errorf("menu saved but reload failed: %w", err)
	}
	result.Menu = menu
	result.transition(StateSaved)
	return nil
}

// write creates or updates the menu. A conflict on create switches to update
// exactly once; create is never retried.
func (s *Service) write(ctx context.Context, req models.CreateMenuRequest, result *SaveResult) error {
	if result.Mode == ModeUpdate {
		_, err := s.backend.UpdateMenu(ctx, req)
		return err
	}

	_, err := s.backend.CreateMenu(ctx, req)
	if err == nil {
		return nil
	}
	if !apperrors.IsConflict(err) {
		return err
	}

	s.logger.Info("menu already exists for week, switching to update", map[string]interface{}{
		"year": req.Year,
		"week": req.Week,
	})
	result.Mode = ModeUpdate
	result.transition(StateExistingMenuDetected)

	year := req.Year
	if _, err := s.backend.GetMenu(ctx, req.Week, &year); err != nil {
		return fmt.Errorf("failed to load existing menu: %w", err)
	}
	_, err = s.backend.UpdateMenu(ctx, req)
	return err
}

// verifyFoods confirms each selected food individually. A food that is listed
// but answers 404 is treated as stale.
func (s *Service) verifyFoods(ctx context.Context, in SaveInput) error {
	var stale []SlotRef
	checked := make(map[int64]error)

	for _, day := range sortedDays(in.Days) {
		for slot, id := range in.Days[day] {
			err, seen := checked[id]
			if !seen {
				_, err = s.backend.GetFoodByID(ctx, strconv.FormatInt(id, 10))
				checked[id] = err
			}
			switch {
			case err == nil:
			case apperrors.IsNotFound(err):
				stale = append(stale, SlotRef{Day: day, Slot: slot, FoodID: id})
			default:
				return fmt.Errorf("failed to verify food %d: %w", id, err)
			}
		}
	}

	if len(stale) > 0 {
		return &StaleFoodError{Slots: stale}
	}
	return nil
}

// ==========================
// Helpers
// ==========================

func validateSelection(in SaveInput) error {
	var problems []string

	for day := range in.Days {
		if day < models.FirstMenuDay || day > models.LastMenuDay {
			problems = append(problems, fmt.Sprintf("day %d is not a served day", day))
		}
	}

	for day := models.FirstMenuDay; day <= models.LastMenuDay; day++ {
		ids, ok := in.Days[day]
		if !ok || len(ids) != models.SlotsPerDay {
			problems = append(problems, fmt.Sprintf("day %d needs exactly %d foods, got %d", day, models.SlotsPerDay, len(ids)))
			continue
		}

		seen := make(map[int64]bool, len(ids))
		for slot, id := range ids {
			if id <= 0 {
				problems = append(problems, fmt.Sprintf("day %d slot %d has invalid food id %d", day, slot+1, id))
				continue
			}
			if seen[id] {
				problems = append(problems, fmt.Sprintf("day %d has food %d more than once", day, id))
			}
			seen[id] = true
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return apperrors.NewValidationError(strings.Join(problems, "; "))
	}
	return nil
}

func validateRequest(req models.CreateMenuRequest) error {
	v, err := validation.MenuValidator()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	res, err := v.Validate(req)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !res.Valid {
		return apperrors.NewValidationError(strings.Join(res.GetErrorMessages(), "; "))
	}
	return nil
}

func staleSlots(in SaveInput, catalog map[int64]*models.FoodItem) []SlotRef {
	var stale []SlotRef
	for _, day := range sortedDays(in.Days) {
		for slot, id := range in.Days[day] {
			if _, ok := catalog[id]; !ok {
				stale = append(stale, SlotRef{Day: day, Slot: slot, FoodID: id})
			}
		}
	}
	return stale
}

func buildRequest(in SaveInput) models.CreateMenuRequest {
	days := make(map[string][]string, len(in.Days))
	for day, ids := range in.Days {
		strs := make([]string, 0, len(ids))
		for _, id := range ids {
			strs = append(strs, strconv.FormatInt(id, 10))
		}
		days[strconv.Itoa(day)] = strs
	}
	return models.CreateMenuRequest{Year: in.Year, Week: in.Week, Days: days}
}

func indexFoods(foods []models.FoodItem) map[int64]*models.FoodItem {
	out := make(map[int64]*models.FoodItem, len(foods))
	for i := range foods {
		out[foods[i].ID.Int64()] = &foods[i]
	}
	return out
}

func sortedDays(days map[int][]int64) []int {
	keys := make([]int, 0, len(days))
	for d := range days {
		keys = append(keys, d)
	}
	sort.Ints(keys)
	return keys
}
