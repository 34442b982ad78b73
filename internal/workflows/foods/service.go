// Package foods manages the food catalog: listing, creating and deleting
// foods, the allergen catalog and picture URLs.
package foods

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "menza-admin/internal/common/errors"
	"menza-admin/internal/common/logger"
	"menza-admin/internal/common/observability"
	"menza-admin/internal/models"
)

const workflowName = "food_catalog"

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".bmp": true}

type Backend interface {
	GetAllFoods(ctx context.Context) ([]models.FoodItem, error)
	GetFoodByID(ctx context.Context, id string) (*models.FoodItem, error)
	CreateFood(ctx context.Context, req models.CreateFoodRequest) (*models.FoodItem, error)
	DeleteFood(ctx context.Context, id int64) error
}

type CreateInput struct {
	Name        string
	Description string
	Price       int
	AllergenIDs []int64
	// ImagePath is optional; without it a placeholder picture is uploaded.
	ImagePath string
}

type Service struct {
	backend Backend
	logger  logger.Logger
	obs     *observability.Observability
}

func NewService(backend Backend, log logger.Logger, obs *observability.Observability) *Service {
	return &Service{
		backend: backend,
		logger:  logger.OrNoOp(log).WithFields(map[string]interface{}{"workflow": workflowName}),
		obs:     obs,
	}
}

func (s *Service) List(ctx context.Context) ([]models.FoodItem, error) {
	return s.backend.GetAllFoods(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*models.FoodItem, error) {
	return s.backend.GetFoodByID(ctx, strconv.FormatInt(id, 10))
}

// Create validates in, reads the picture if one is given and uploads the food.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.FoodItem, error) {
	start := time.Now()
	food, err := s.create(ctx, in)
	status := "ok"
	if err != nil {
		status = "failed"
	}
	s.obs.RecordWorkflow(ctx, workflowName+"_create", status, time.Since(start))
	return food, err
}

func (s *Service) create(ctx context.Context, in CreateInput) (*models.FoodItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("food name is required")
	}
	if in.Price < 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("price must not be negative, got %d", in.Price))
	}

	req := models.CreateFoodRequest{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		AllergenIDs: dedupeIDs(in.AllergenIDs),
	}

	if in.ImagePath != "" {
		ext := strings.ToLower(filepath.Ext(in.ImagePath))
		if !imageExtensions[ext] {
			return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported image type %q", ext))
		}
		image, err := os.ReadFile(in.ImagePath)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("cannot read image: %v", err))
		}
		req.Image = image
		req.ImageFileName = filepath.Base(in.ImagePath)
	}

	food, err := s.backend.CreateFood(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("food created", map[string]interface{}{
		"foodId":     food.ID.String(),
		"name":       food.Name,
		"hasPicture": len(req.Image) > 0,
	})
	return food, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperrors.NewValidationError(fmt.Sprintf("invalid food id %d", id))
	}
	if err := s.backend.DeleteFood(ctx, id); err != nil {
		return err
	}
	s.logger.Info("food deleted", map[string]interface{}{"foodId": id})
	return nil
}

// Allergens returns every allergen referenced by the catalog, sorted by id.
func (s *Service) Allergens(ctx context.Context) ([]models.Allergen, error) {
	foods, err := s.backend.GetAllFoods(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]models.Allergen)
	for _, f := range foods {
		for _, a := range f.Allergens {
			if _, ok := byID[a.ID.Int64()]; !ok {
				byID[a.ID.Int64()] = a
			}
		}
	}

	out := make([]models.Allergen, 0, len(byID))
	for _, a := range byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ImageURL returns the CDN address of a food picture, or "" when the food has
// none.
func ImageURL(cdnHost string, foodID int64, pictureID *string) string {
	if cdnHost == "" || pictureID == nil || *pictureID == "" {
		return ""
	}
	return fmt.Sprintf("https://cdn-canteen.%s/food/%d/%s.webp", cdnHost, foodID, *pictureID)
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
