// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menza-admin/internal/backend"
	"menza-admin/internal/common/config"
	"menza-admin/internal/common/database"
	"menza-admin/internal/common/logger"
	"menza-admin/internal/models"
	"menza-admin/internal/workflows/foods"
	"menza-admin/internal/workflows/menusave"
	"menza-admin/internal/workflows/orders"
)

// ==========================
// 1. Fake canteen backend
// ==========================

type weekKey struct{ year, week int }

// canteen is a stateful stand-in for the backend. It answers with string ids
// and millisecond timestamps the way the production server does.
type canteen struct {
	mu        sync.Mutex
	nextID    int64
	order     []int64
	foods     map[int64]map[string]interface{}
	menus     map[weekKey]map[string][]string
	calls     map[string]int
	orderHits []string
}

func newCanteen() *canteen {
	return &canteen{
		nextID: 1000,
		foods:  map[int64]map[string]interface{}{},
		menus:  map[weekKey]map[string][]string{},
		calls:  map[string]int{},
	}
}

func (c *canteen) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[key]
}

func (c *canteen) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.Header.Get("X-Client-Type") != "desktop" {
		http.Error(w, "unknown client", http.StatusForbidden)
		return
	}
	c.calls[r.Method+" "+strings.SplitN(strings.TrimPrefix(r.URL.Path, "/v1/"), "/", 2)[0]]++

	switch {
	case r.URL.Path == "/v1/food" && r.Method == http.MethodGet:
		list := make([]map[string]interface{}, 0, len(c.foods))
		for _, id := range c.order {
			if f, ok := c.foods[id]; ok {
				list = append(list, f)
			}
		}
		writeJSON(w, http.StatusOK, list)

	case r.URL.Path == "/v1/food" && r.Method == http.MethodPost:
		c.createFood(w, r)

	case strings.HasPrefix(r.URL.Path, "/v1/food/"):
		id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/v1/food/"), 10, 64)
		f, ok := c.foods[id]
		if err != nil || !ok {
			http.Error(w, `{"error":"food not found"}`, http.StatusNotFound)
			return
		}
		if r.Method == http.MethodDelete {
			delete(c.foods, id)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, f)

	case r.URL.Path == "/v1/menu":
		c.menu(w, r)

	case r.URL.Path == "/v1/order":
		c.orderHits = append(c.orderHits, r.URL.RawQuery)
		writeJSON(w, http.StatusOK, []map[string]interface{}{
			{"id": "1001", "name": "Gulyás", "price": 1290, "days": map[string]int{"1": 12, "2": 4}},
			{"id": "1002", "name": "Főzelék", "price": 990, "days": map[string]int{"1": 3}},
		})

	default:
		http.NotFound(w, r)
	}
}

func (c *canteen) createFood(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, _, err := r.FormFile("file"); err != nil {
		http.Error(w, "file part is required", http.StatusBadRequest)
		return
	}

	var data models.FoodData
	if err := json.Unmarshal([]byte(r.FormValue("data")), &data); err != nil {
		http.Error(w, "bad data part", http.StatusBadRequest)
		return
	}

	c.nextID++
	allergens := make([]map[string]interface{}, 0, len(data.Allergens))
	for _, id := range data.Allergens {
		allergens = append(allergens, map[string]interface{}{"id": id, "name": "Allergen " + id})
	}
	food := map[string]interface{}{
		"id":          strconv.FormatInt(c.nextID, 10),
		"name":        data.Name,
		"description": data.Description,
		"price":       data.Price,
		"pictureId":   fmt.Sprintf("pic-%d", c.nextID),
		"allergens":   allergens,
		"vatRate":     27,
		"createdAt":   time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC).UnixMilli(),
		"updatedAt":   "2025-12-01T08:00:00Z",
	}
	c.foods[c.nextID] = food
	c.order = append(c.order, c.nextID)
	writeJSON(w, http.StatusCreated, food)
}

func (c *canteen) menu(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		week, _ := strconv.Atoi(r.URL.Query().Get("week"))
		year, _ := strconv.Atoi(r.URL.Query().Get("year"))
		days, ok := c.menus[weekKey{year, week}]
		if !ok {
			http.Error(w, `{"error":"no menu"}`, http.StatusNotFound)
			return
		}
		out := []map[string]interface{}{}
		for d := 1; d <= 5; d++ {
			served := []map[string]interface{}{}
			for _, id := range days[strconv.Itoa(d)] {
				n, _ := strconv.ParseInt(id, 10, 64)
				if f, ok := c.foods[n]; ok {
					served = append(served, f)
				} else {
					served = append(served, map[string]interface{}{"id": id})
				}
			}
			out = append(out, map[string]interface{}{
				"id": fmt.Sprintf("menu-%d-%d", year, week), "year": year, "week": week, "day": d, "foods": served,
			})
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost, http.MethodPatch:
		var req models.CreateMenuRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		key := weekKey{req.Year, req.Week}
		existing, exists := c.menus[key]
		if r.Method == http.MethodPost && exists {
			http.Error(w, `{"error":"There is already a menu present for this week"}`, http.StatusConflict)
			return
		}
		if r.Method == http.MethodPatch && !exists {
			http.Error(w, `{"error":"no menu"}`, http.StatusNotFound)
			return
		}
		if existing == nil {
			existing = map[string][]string{}
		}
		for day, ids := range req.Days {
			existing[day] = ids
		}
		c.menus[key] = existing
		if r.Method == http.MethodPatch {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": fmt.Sprintf("menu-%d-%d", req.Year, req.Week)})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ==========================
// 2. Wiring
// ==========================

type workstation struct {
	client *backend.Client
	foods  *foods.Service
	menus  *menusave.Service
	orders *orders.Service
}

func loadConfig(t *testing.T, backendURL, redisAddr string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := fmt.Sprintf(`
backend:
  base_url: %s
  timeout: 5000
cdn:
  host: example.hu
logging:
  level: debug
redis:
  address: %s
save_lock:
  backend: redis
  ttl: 30000
`, backendURL, redisAddr)
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	return cfg
}

func newWorkstation(t *testing.T, cfg *config.Config) *workstation {
	t.Helper()
	log := logger.NewTestLogger(t)

	client, err := backend.NewClient(backend.Options{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.Backend.TimeoutDuration(),
		ClientType: cfg.Backend.ClientType,
		Logger:     log,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	redis, err := database.NewRedis(cfg.Redis)
	require.NoError(t, err)
	require.NoError(t, redis.Ping(context.Background()))
	t.Cleanup(func() { _ = redis.Close() })

	return &workstation{
		client: client,
		foods:  foods.NewService(client, log, nil),
		orders: orders.NewService(client, log, nil),
		menus: menusave.NewService(client, menusave.Options{
			Guard:  menusave.NewRedisGuard(redis, config.GetDuration(cfg.SaveLock.TTL), log),
			Logger: log,
		}),
	}
}

// ==========================
// 3. Scenario
// ==========================

func TestAdminWorkflowE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	backendState := newCanteen()
	server := httptest.NewServer(backendState)
	defer server.Close()
	mr := miniredis.RunT(t)

	cfg := loadConfig(t, server.URL, mr.Addr())
	assert.Equal(t, "desktop", cfg.Backend.ClientType)

	office := newWorkstation(t, cfg)
	kitchen := newWorkstation(t, cfg)

	// --- food catalog ---
	image := filepath.Join(t.TempDir(), "gulyas.jpg")
	require.NoError(t, os.WriteFile(image, []byte{0xff, 0xd8, 0xff}, 0o600))

	var ids []int64
	for i := 0; i < 16; i++ {
		in := foods.CreateInput{Name: fmt.Sprintf("Food %02d", i), Price: 500 + i*10, AllergenIDs: []int64{int64(i%3 + 1)}}
		if i == 0 {
			in.ImagePath = image
		}
		f, err := office.foods.Create(ctx, in)
		require.NoError(t, err)
		ids = append(ids, f.ID.Int64())
	}
	assert.Equal(t, int64(1001), ids[0])

	list, err := office.foods.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 16)
	assert.True(t, list[0].CreatedAt.Equal(time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, "https://cdn-canteen.example.hu/food/1001/pic-1001.webp",
		foods.ImageURL(cfg.CDN.Host, list[0].ID.Int64(), list[0].PictureID))

	allergens, err := office.foods.Allergens(ctx)
	require.NoError(t, err)
	require.Len(t, allergens, 3)
	assert.Equal(t, int64(1), allergens[0].ID.Int64())

	// --- first save creates the week ---
	week := map[int][]int64{
		1: {ids[0], ids[1], ids[2]},
		2: {ids[3], ids[4], ids[5]},
		3: {ids[6], ids[7], ids[8]},
		4: {ids[9], ids[10], ids[11]},
		5: {ids[12], ids[13], ids[14]},
	}
	loaded, err := office.menus.Load(ctx, 2026, 1)
	require.NoError(t, err)
	require.False(t, loaded.Exists)

	result, err := office.menus.Save(ctx, menusave.SaveInput{Year: 2026, Week: 1, Days: week})
	require.NoError(t, err)
	assert.Equal(t, menusave.ModeCreate, result.Mode)
	assert.Len(t, result.Menu, 5)

	// --- a second workstation with a stale view hits the conflict path ---
	changed := map[int][]int64{}
	for d, v := range week {
		changed[d] = v
	}
	changed[2] = []int64{ids[15], ids[4], ids[5]}

	result, err = kitchen.menus.Save(ctx, menusave.SaveInput{Year: 2026, Week: 1, Days: changed})
	require.NoError(t, err)
	assert.Equal(t, []menusave.State{
		menusave.StateNoMenuYet, menusave.StateExistingMenuDetected, menusave.StateSaved,
	}, result.Transitions)
	assert.Equal(t, 2, backendState.count("POST menu"), "one create plus one rejected create")
	assert.Equal(t, 1, backendState.count("PATCH menu"))

	reloaded, err := office.menus.Load(ctx, 2026, 1)
	require.NoError(t, err)
	assert.True(t, reloaded.Exists)
	assert.Equal(t, "menu-2026-1", reloaded.MenuID)
	assert.Equal(t, ids[15], reloaded.Days[2][0].ID.Int64())

	// --- a deleted food blocks the next save without writing ---
	require.NoError(t, office.foods.Delete(ctx, ids[7]))

	reloaded, err = office.menus.Load(ctx, 2026, 1)
	require.NoError(t, err)
	require.Len(t, reloaded.Unresolved, 1)

	_, err = office.menus.Save(ctx, menusave.SaveInput{
		Year: 2026, Week: 1, Days: changed, ExistingMenuID: reloaded.MenuID,
	})
	var stale *menusave.StaleFoodError
	require.True(t, errors.As(err, &stale))
	assert.Equal(t, ids[7], stale.Slots[0].FoodID)
	assert.Equal(t, 1, backendState.count("PATCH menu"))

	// --- daily orders are keyed by ISO year ---
	summary, err := office.orders.Daily(ctx, time.Date(2025, time.December, 29, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2026, summary.Year)
	assert.Equal(t, 15, summary.TotalOrders)
	assert.Equal(t, 12*1290+3*990, summary.TotalRevenue)
	assert.Contains(t, backendState.orderHits[0], "year=2026")
	assert.Contains(t, backendState.orderHits[0], "week=1")
}
