// internal/models/food.go
package models

import (
	"strconv"

	"menza-admin/internal/common/flexjson"
)

// FoodItem is a dish as served by GET /v1/food. Prices are integer amounts in
// the minor currency unit.
type FoodItem struct {
	ID              flexjson.Int64 `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Price           int            `json:"price"`
	PictureID       *string        `json:"pictureId"`
	Allergens       []Allergen     `json:"allergens"`
	VatRate         int            `json:"vatRate"`
	StripeTaxCode   string         `json:"stripeTaxCode"`
	CreatedAt       flexjson.Time  `json:"createdAt"`
	UpdatedAt       flexjson.Time  `json:"updatedAt"`
	VatAmount       int            `json:"vatAmount"`
	PriceWithoutVat int            `json:"priceWithoutVat"`
	Menus           []MenuRef      `json:"menus"`
}

// HasPicture reports whether the food references an uploaded image.
func (f FoodItem) HasPicture() bool {
	return f.PictureID != nil && *f.PictureID != ""
}

type Allergen struct {
	ID        flexjson.Int64 `json:"id"`
	Name      string         `json:"name"`
	Icon      string         `json:"icon"`
	CreatedAt flexjson.Time  `json:"createdAt"`
	UpdatedAt flexjson.Time  `json:"updatedAt"`
}

// MenuRef is a weak back-reference from a food to a menu it appears in.
type MenuRef struct {
	ID flexjson.Int64 `json:"id"`
}

// CreateFoodRequest carries everything needed for POST /v1/food. Image is
// optional; the client substitutes a placeholder when it is empty.
type CreateFoodRequest struct {
	Name          string
	Description   string
	Price         int
	AllergenIDs   []int64
	Image         []byte
	ImageFileName string
}

// FoodData is the JSON document sent in the "data" part of the multipart body.
type FoodData struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int      `json:"price"`
	Allergens   []string `json:"allergens"`
}

// Data renders the request's "data" part. Allergen ids are sent as decimal
// strings.
func (r CreateFoodRequest) Data() FoodData {
	ids := make([]string, 0, len(r.AllergenIDs))
	for _, id := range r.AllergenIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	return FoodData{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Allergens:   ids,
	}
}
