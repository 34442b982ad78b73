package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"menza-admin/internal/isoweek"
	"menza-admin/internal/models"
	"menza-admin/internal/workflows/foods"
	"menza-admin/internal/workflows/menusave"
	"menza-admin/internal/workflows/orders"
)

var dayNames = map[int]string{1: "Monday", 2: "Tuesday", 3: "Wednesday", 4: "Thursday", 5: "Friday"}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "foods":
		if len(args) < 1 {
			return fmt.Errorf("foods needs a subcommand: list, get, create, delete")
		}
		switch args[0] {
		case "list":
			return a.foodsList(ctx)
		case "get":
			return a.foodsGet(ctx, args[1:])
		case "create":
			return a.foodsCreate(ctx, args[1:])
		case "delete":
			return a.foodsDelete(ctx, args[1:])
		}
		return fmt.Errorf("unknown foods subcommand %q", args[0])
	case "allergens":
		return a.allergens(ctx)
	case "orders":
		if len(args) < 1 || args[0] != "daily" {
			return fmt.Errorf("orders needs a subcommand: daily")
		}
		return a.ordersDaily(ctx, args[1:])
	case "menu":
		if len(args) < 1 {
			return fmt.Errorf("menu needs a subcommand: show, save")
		}
		switch args[0] {
		case "show":
			return a.menuShow(ctx, args[1:])
		case "save":
			return a.menuSave(ctx, args[1:])
		}
		return fmt.Errorf("unknown menu subcommand %q", args[0])
	case "weeks":
		return a.weeks(args)
	case "raw":
		return a.raw(ctx, args)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// ==========================
// Foods
// ==========================

func (a *app) foodsList(ctx context.Context) error {
	list, err := a.foods.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tALLERGENS\tPICTURE")
	for _, f := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			f.ID, f.Name, f.Price, allergenNames(f.Allergens), foods.ImageURL(a.cfg.CDN.Host, f.ID.Int64(), f.PictureID))
	}
	return tw.Flush()
}

func (a *app) foodsGet(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("foods get", flag.ContinueOnError)
	id := fs.Int64("id", 0, "Food ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := a.foods.Get(ctx, *id)
	if err != nil {
		return err
	}

	out := a.stdout()
	fmt.Fprintf(out, "ID:          %s\n", f.ID)
	fmt.Fprintf(out, "Name:        %s\n", f.Name)
	fmt.Fprintf(out, "Description: %s\n", f.Description)
	fmt.Fprintf(out, "Price:       %d (VAT %d%%, net %d)\n", f.Price, f.VatRate, f.PriceWithoutVat)
	fmt.Fprintf(out, "Allergens:   %s\n", allergenNames(f.Allergens))
	if url := foods.ImageURL(a.cfg.CDN.Host, f.ID.Int64(), f.PictureID); url != "" {
		fmt.Fprintf(out, "Picture:     %s\n", url)
	}
	if !f.CreatedAt.IsZero() {
		fmt.Fprintf(out, "Created:     %s\n", f.CreatedAt.Local().Format(time.DateTime))
	}
	return nil
}

func (a *app) foodsCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("foods create", flag.ContinueOnError)
	name := fs.String("name", "", "Food name")
	description := fs.String("description", "", "Description")
	price := fs.Int("price", 0, "Price")
	allergenList := fs.String("allergens", "", "Comma separated allergen IDs")
	image := fs.String("image", "", "Picture file (.jpg, .png, .bmp)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	allergenIDs, err := parseIDs(*allergenList)
	if err != nil {
		return err
	}

	f, err := a.foods.Create(ctx, foods.CreateInput{
		Name:        *name,
		Description: *description,
		Price:       *price,
		AllergenIDs: allergenIDs,
		ImagePath:   *image,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout(), "Created food %s (%s)\n", f.ID, f.Name)
	return nil
}

func (a *app) foodsDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("foods delete", flag.ContinueOnError)
	id := fs.Int64("id", 0, "Food ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.foods.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout(), "Deleted food %d\n", *id)
	return nil
}

func (a *app) allergens(ctx context.Context) error {
	list, err := a.foods.Allergens(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tICON")
	for _, al := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", al.ID, al.Name, al.Icon)
	}
	return tw.Flush()
}

// ==========================
// Orders
// ==========================

func (a *app) ordersDaily(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("orders daily", flag.ContinueOnError)
	dateStr := fs.String("date", "", "Day to summarize, YYYY-MM-DD (default: today)")
	csvPath := fs.String("csv", "", "Write the summary as CSV to this file or directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	date := time.Now()
	if *dateStr != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, *dateStr, time.Local)
		if err != nil {
			return fmt.Errorf("invalid -date: %w", err)
		}
		date = parsed
	}

	summary, err := a.orders.Daily(ctx, date)
	if err != nil {
		return err
	}

	if *csvPath != "" {
		return a.exportCSV(*csvPath, summary)
	}

	out := a.stdout()
	fmt.Fprintf(out, "%s, ISO %d week %d day %d\n", date.Format(time.DateOnly), summary.Year, summary.Week, summary.Day)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "NAME\tPRICE\tQUANTITY\tREVENUE\t")
	for _, r := range summary.Rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t\n", r.Name, r.Price, r.Quantity, r.Revenue)
	}
	fmt.Fprintf(tw, "Total\t\t%d\t%d\t\n", summary.TotalOrders, summary.TotalRevenue)
	return tw.Flush()
}

func (a *app) exportCSV(path string, summary *orders.DailySummary) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, orders.ExportFileName(summary.Date))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := orders.WriteCSV(f, summary); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout(), "Exported %d rows to %s\n", len(summary.Rows), path)
	return nil
}

// ==========================
// Menus
// ==========================

func weekFlags(fs *flag.FlagSet) (*int, *int) {
	year, week := isoweek.YearWeek(time.Now())
	y := fs.Int("year", year, "ISO year")
	w := fs.Int("week", week, "ISO week")
	return y, w
}

func (a *app) menuShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("menu show", flag.ContinueOnError)
	year, week := weekFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	info, err := isoweek.WeekInfo(*year, *week)
	if err != nil {
		return err
	}
	menu, err := a.menus.Load(ctx, *year, *week)
	if err != nil {
		return err
	}

	a.printMenu(info, menu)
	return nil
}

func (a *app) menuSave(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("menu save", flag.ContinueOnError)
	year, week := weekFlags(fs)
	sets := daySelections{}
	fs.Var(sets, "set", "Day and food IDs in slot order, e.g. 1=12,15,18 (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	info, err := isoweek.WeekInfo(*year, *week)
	if err != nil {
		return err
	}
	menu, err := a.menus.Load(ctx, *year, *week)
	if err != nil {
		return err
	}

	days := menu.Selection()
	for day, ids := range sets {
		days[day] = ids
	}

	result, err := a.menus.Save(ctx, menusave.SaveInput{
		Year:           *year,
		Week:           *week,
		Days:           days,
		ExistingMenuID: menu.MenuID,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout(), "Menu saved (%s): %s\n", result.Mode, joinStates(result.Transitions))
	saved, err := a.menus.Load(ctx, *year, *week)
	if err != nil {
		return err
	}
	a.printMenu(info, saved)
	return nil
}

func (a *app) printMenu(info isoweek.Info, menu *menusave.WeeklyMenu) {
	out := a.stdout()
	fmt.Fprintf(out, "%d week %d (%s)", info.Year, info.Week, info.Label)
	if !menu.Exists {
		fmt.Fprintln(out, " - no menu yet")
		return
	}
	fmt.Fprintf(out, " - menu %s\n", menu.MenuID)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for day := models.FirstMenuDay; day <= models.LastMenuDay; day++ {
		names := make([]string, 0, models.SlotsPerDay)
		for _, f := range menu.Days[day] {
			if f == nil {
				names = append(names, "-")
				continue
			}
			names = append(names, fmt.Sprintf("%s (#%s)", f.Name, f.ID))
		}
		date := info.Start.AddDate(0, 0, day-1)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", dayNames[day], date.Format("Jan 02"), strings.Join(names, "\t"))
	}
	_ = tw.Flush()

	for _, u := range menu.Unresolved {
		fmt.Fprintf(out, "warning: %s slot %d references deleted food %d\n", dayNames[u.Day], u.Slot+1, u.FoodID)
	}
}

// ==========================
// Misc
// ==========================

func (a *app) weeks(args []string) error {
	fs := flag.NewFlagSet("weeks", flag.ContinueOnError)
	currentYear, currentWeek := isoweek.YearWeek(time.Now())
	year := fs.Int("year", currentYear, "ISO year")
	if err := fs.Parse(args); err != nil {
		return err
	}

	out := a.stdout()
	for _, w := range isoweek.Weeks(*year) {
		marker := " "
		if w.Year == currentYear && w.Week == currentWeek {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %2d  %s\n", marker, w.Week, w.Label)
	}
	return nil
}

func (a *app) raw(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("raw", flag.ContinueOnError)
	path := fs.String("path", "", "Backend path with optional query, e.g. /v1/menu?week=5")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("-path is required")
	}

	body, err := a.client.RawGet(ctx, *path)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout(), body)
	return nil
}

// ==========================
// Helpers
// ==========================

func (a *app) stdout() io.Writer {
	if a.out != nil {
		return a.out
	}
	return os.Stdout
}

// daySelections collects repeated -set D=a,b,c flags.
type daySelections map[int][]int64

func (d daySelections) String() string {
	days := make([]int, 0, len(d))
	for day := range d {
		days = append(days, day)
	}
	sort.Ints(days)

	parts := make([]string, 0, len(days))
	for _, day := range days {
		ids := make([]string, 0, len(d[day]))
		for _, id := range d[day] {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		parts = append(parts, fmt.Sprintf("%d=%s", day, strings.Join(ids, ",")))
	}
	return strings.Join(parts, " ")
}

func (d daySelections) Set(value string) error {
	dayStr, idList, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("expected D=a,b,c, got %q", value)
	}
	day, err := strconv.Atoi(strings.TrimSpace(dayStr))
	if err != nil {
		return fmt.Errorf("invalid day %q", dayStr)
	}
	ids, err := parseIDs(idList)
	if err != nil {
		return err
	}
	d[day] = ids
	return nil
}

func parseIDs(list string) ([]int64, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	parts := strings.Split(list, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func allergenNames(list []models.Allergen) string {
	names := make([]string, 0, len(list))
	for _, al := range list {
		names = append(names, al.Name)
	}
	return strings.Join(names, ", ")
}

func joinStates(states []menusave.State) string {
	parts := make([]string, 0, len(states))
	for _, s := range states {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, " -> ")
}
