package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type config struct {
	dsn       string
	timezone  string
	startDate string
	days      int
	ordersMin int
	ordersMax int
	seed      int64
}

type menuItem struct {
	id       string
	name     string
	category string
	price    decimal.Decimal
}

func main() {
	cfg := parseConfig()
	if cfg.dsn == "" {
		log.Fatal("PG_DSN or DATABASE_URL is required")
	}
	if cfg.days <= 0 {
		log.Fatal("days must be > 0")
	}
	if cfg.ordersMin <= 0 || cfg.ordersMax < cfg.ordersMin {
		log.Fatal("orders-min/orders-max must be positive and ordered")
	}

	loc, err := time.LoadLocation(cfg.timezone)
	if err != nil {
		log.Fatalf("invalid timezone: %v", err)
	}
	start, err := parseStartDate(cfg.startDate, loc)
	if err != nil {
		log.Fatalf("invalid start-date: %v", err)
	}

	db, err := sql.Open("pgx", cfg.dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(cfg.seed))

	log.Printf("seeding orders and expenses: start=%s days=%d tz=%s", start.Format("2006-01-02"), cfg.days, cfg.timezone)
	if err := seedDays(ctx, db, rng, start, cfg.days, cfg.ordersMin, cfg.ordersMax, loc); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seed completed")
}

func parseConfig() config {
	cfg := config{}
	flag.StringVar(&cfg.dsn, "pg-dsn", envOrDefault("PG_DSN", envOrDefault("DATABASE_URL", "")), "Postgres DSN")
	flag.StringVar(&cfg.timezone, "timezone", envOrDefault("RESTOBILL_TIMEZONE", "Asia/Kolkata"), "business timezone")
	flag.StringVar(&cfg.startDate, "start-date", envOrDefault("START_DATE", ""), "start date (YYYY-MM-DD)")
	flag.IntVar(&cfg.days, "days", envOrInt("DAYS", 14), "number of days to seed")
	flag.IntVar(&cfg.ordersMin, "orders-min", envOrInt("ORDERS_MIN", 20), "minimum orders per day")
	flag.IntVar(&cfg.ordersMax, "orders-max", envOrInt("ORDERS_MAX", 80), "maximum orders per day")
	flag.Int64Var(&cfg.seed, "seed", 1, "random seed")
	flag.Parse()
	return cfg
}

func parseStartDate(value string, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -14), nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, err
	}
	return parsed, nil
}

var menu = []menuItem{
	{id: "masala-dosa", name: "Masala Dosa", category: "South Indian", price: decimal.NewFromInt(120)},
	{id: "idli-sambar", name: "Idli Sambar", category: "South Indian", price: decimal.NewFromInt(80)},
	{id: "veg-biryani", name: "Veg Biryani", category: "Rice", price: decimal.NewFromInt(180)},
	{id: "paneer-tikka", name: "Paneer Tikka", category: "Starters", price: decimal.NewFromInt(220)},
	{id: "butter-naan", name: "Butter Naan", category: "Breads", price: decimal.NewFromInt(45)},
	{id: "dal-makhani", name: "Dal Makhani", category: "Curries", price: decimal.NewFromInt(160)},
	{id: "sweet-lassi", name: "Sweet Lassi", category: "Beverages", price: decimal.NewFromInt(60)},
	{id: "filter-coffee", name: "Filter Coffee", category: "Beverages", price: decimal.NewFromInt(40)},
	{id: "gulab-jamun", name: "Gulab Jamun", category: "Desserts", price: decimal.NewFromInt(70)},
}

var paymentTypes = []string{"cash", "card", "upi"}
var orderTypes = []string{"dine_in", "takeaway", "delivery"}

func seedDays(ctx context.Context, db *sql.DB, rng *rand.Rand, start time.Time, days, ordersMin, ordersMax int, loc *time.Location) error {
	for day := 0; day < days; day++ {
		dayStart := start.AddDate(0, 0, day)
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		orderCount := ordersMin + rng.Intn(ordersMax-ordersMin+1)
		for i := 0; i < orderCount; i++ {
			if err := insertOrder(ctx, tx, rng, dayStart, loc); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		if err := insertExpenses(ctx, tx, rng, dayStart, loc); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		log.Printf("seeded day %s: orders=%d", dayStart.Format("2006-01-02"), orderCount)
	}
	return nil
}

func insertOrder(ctx context.Context, tx *sql.Tx, rng *rand.Rand, dayStart time.Time, loc *time.Location) error {
	// Service runs 07:00 to 02:00 next day; lean toward lunch and dinner peaks.
	hour := 7 + rng.Intn(19)
	minute := rng.Intn(60)
	createdAt := time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(), hour, minute, rng.Intn(60), 0, loc).UTC()

	orderID := uuid.NewString()
	itemCount := 1 + rng.Intn(3)
	total := decimal.Zero
	type line struct {
		item     menuItem
		quantity int64
		extended decimal.Decimal
	}
	lines := make([]line, 0, itemCount)
	for i := 0; i < itemCount; i++ {
		item := menu[rng.Intn(len(menu))]
		quantity := int64(1 + rng.Intn(3))
		extended := item.price.Mul(decimal.NewFromInt(quantity))
		lines = append(lines, line{item: item, quantity: quantity, extended: extended})
		total = total.Add(extended)
	}

	_, err := tx.ExecContext(ctx, `
INSERT INTO orders (id, amount, created_at, payment_type, order_type)
VALUES ($1,$2,$3,$4,$5)`,
		orderID, total, createdAt,
		paymentTypes[rng.Intn(len(paymentTypes))],
		orderTypes[rng.Intn(len(orderTypes))])
	if err != nil {
		return err
	}
	for _, l := range lines {
		_, err := tx.ExecContext(ctx, `
INSERT INTO order_items (order_id, item_id, item_name, category, quantity, unit_price, extended_price)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			orderID, l.item.id, l.item.name, l.item.category, l.quantity, l.item.price, l.extended)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertExpenses(ctx context.Context, tx *sql.Tx, rng *rand.Rand, dayStart time.Time, loc *time.Location) error {
	type expense struct {
		category    string
		subCategory string
		entity      string
		entityName  string
		amount      decimal.Decimal
	}
	expenses := []expense{
		{category: "material", subCategory: "vegetables", entity: "m-001", entityName: "City Greens", amount: decimal.NewFromInt(int64(500 + rng.Intn(1500)))},
		{category: "material", subCategory: "dairy", entity: "m-002", entityName: "Anand Dairy", amount: decimal.NewFromInt(int64(300 + rng.Intn(700)))},
		{category: "worker", subCategory: "salary", entity: "w-001", entityName: "Ravi", amount: decimal.NewFromInt(int64(400 + rng.Intn(400)))},
		{category: "other", subCategory: "utilities", entity: "", entityName: "", amount: decimal.NewFromInt(int64(100 + rng.Intn(300)))},
	}
	for _, e := range expenses {
		createdAt := time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(), 10+rng.Intn(8), rng.Intn(60), 0, 0, loc).UTC()
		_, err := tx.ExecContext(ctx, `
INSERT INTO expenses (id, amount, created_at, category, sub_category, entity_id, entity_name)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			uuid.NewString(), e.amount, createdAt, e.category, e.subCategory, nullable(e.entity), nullable(e.entityName))
		if err != nil {
			return err
		}
	}
	return nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
