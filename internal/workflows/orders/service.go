// Package orders builds the daily order summary and its CSV export.
package orders

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"menza-admin/internal/common/logger"
	"menza-admin/internal/common/observability"
	"menza-admin/internal/isoweek"
	"menza-admin/internal/models"
)

const workflowName = "daily_orders"

type Backend interface {
	GetOrdersByWeek(ctx context.Context, year, week int, day *int) ([]models.OrderSummary, error)
}

type Row struct {
	ID       string
	Name     string
	Price    int
	Quantity int
	Revenue  int
}

// DailySummary is the order list of one calendar day. Year and Week are ISO
// values and may differ from Date.Year() around New Year.
type DailySummary struct {
	Date         time.Time
	Year         int
	Week         int
	Day          int
	Rows         []Row
	TotalOrders  int
	TotalRevenue int
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

// Daily summarizes the orders placed for date. Rows keep the server order and
// include foods with no orders that day.
func (s *Service) Daily(ctx context.Context, date time.Time) (*DailySummary, error) {
	start := time.Now()
	year, week := isoweek.YearWeek(date)
	day := isoweek.DayOfWeek(date)

	orders, err := s.backend.GetOrdersByWeek(ctx, year, week, &day)
	if err != nil {
		s.obs.RecordWorkflow(ctx, workflowName, "failed", time.Since(start))
		return nil, err
	}

	summary := &DailySummary{
		Date: date,
		Year: year,
		Week: week,
		Day:  day,
		Rows: make([]Row, 0, len(orders)),
	}
	for _, o := range orders {
		qty := o.QuantityOn(day)
		row := Row{
			ID:       o.ID,
			Name:     o.Name,
			Price:    o.Price,
			Quantity: qty,
			Revenue:  qty * o.Price,
		}
		summary.Rows = append(summary.Rows, row)
		summary.TotalOrders += row.Quantity
		summary.TotalRevenue += row.Revenue
	}

	s.logger.Debug("daily orders summarized", map[string]interface{}{
		"date":   date.Format(time.DateOnly),
		"year":   year,
		"week":   week,
		"day":    day,
		"foods":  len(summary.Rows),
		"orders": summary.TotalOrders,
	})
	s.obs.RecordWorkflow(ctx, workflowName, "ok", time.Since(start))
	return summary, nil
}

// ExportFileName is the default file name of a day's CSV export.
func ExportFileName(date time.Time) string {
	return fmt.Sprintf("daily-summary-%s.csv", date.Format(time.DateOnly))
}

// WriteCSV writes the summary with a header and a closing Total line.
func WriteCSV(w io.Writer, summary *DailySummary) error {
	cw := csv.NewWriter(w)
	records := [][]string{{"Name", "Price", "Quantity", "Revenue"}}
	for _, r := range summary.Rows {
		records = append(records, []string{
			r.Name,
			strconv.Itoa(r.Price),
			strconv.Itoa(r.Quantity),
			strconv.Itoa(r.Revenue),
		})
	}
	records = append(records, []string{
		"Total",
		"",
		strconv.Itoa(summary.TotalOrders),
		strconv.Itoa(summary.TotalRevenue),
	})

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
