// Package main provides catalogctl: schema migration, demo seeding and
// ad-hoc warehouse queries against PostgreSQL.
//
// Usage:
//
//	catalogctl migrate [up | down [-steps N]]
//	catalogctl seed [-skus N]
//	catalogctl list [-market-area N] [-delivery-method N] [-fetch name]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"catalogstore/internal/core/apperror"
	"catalogstore/internal/core/fetchplan"
	"catalogstore/internal/core/id"
	"catalogstore/internal/core/tx"
	"catalogstore/internal/core/types"
	"catalogstore/internal/domain/catalogs/stock"
	"catalogstore/internal/domain/catalogs/warehouse"
	"catalogstore/internal/infrastructure/storage/postgres"
	"catalogstore/pkg/config"
	"catalogstore/pkg/logger"
)

type app struct {
	dsn        string
	txm        *postgres.TxManager
	plans      *fetchplan.Registry
	warehouses *warehouse.Service
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.App.Storage != config.StoragePostgres {
		fmt.Fprintln(os.Stderr, "catalogctl works with postgres storage only")
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Development: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	ctx := logger.WithLogger(context.Background(), log)

	poolCfg := postgres.DefaultPoolConfig(cfg.DB.URL)
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = 0
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	a, err := newApp(pool, cfg.DB.URL)
	if err != nil {
		log.Fatalw("failed to initialize", "error", err)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "migrate":
		err = a.migrate(ctx, args)
	case "seed":
		err = a.seed(ctx, args)
	case "list":
		err = a.list(ctx, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Errorw("command failed", "command", cmd, "error", err)
		pool.Close()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: catalogctl migrate [up | down [-steps N]] | seed [-skus N] | list [-market-area N] [-delivery-method N] [-fetch name]")
}

func newApp(pool *postgres.Pool, dsn string) (*app, error) {
	plans := fetchplan.NewRegistry()
	if err := warehouse.RegisterPlans(plans); err != nil {
		return nil, err
	}
	if err := stock.RegisterPlans(plans); err != nil {
		return nil, err
	}

	txm := postgres.NewTxManager(pool, postgres.DefaultTxOptions())
	uow := postgres.NewUnitOfWork(txm)
	return &app{
		dsn:        dsn,
		txm:        txm,
		plans:      plans,
		warehouses: warehouse.NewService(uow, plans),
	}, nil
}

// migrate applies pending migrations, or rolls back with "down".
func (a *app) migrate(ctx context.Context, args []string) error {
	direction := "up"
	if len(args) > 0 {
		direction, args = args[0], args[1:]
	}

	switch direction {
	case "up":
		return postgres.MigrateUp(ctx, a.dsn)
	case "down":
		fs := flag.NewFlagSet("migrate down", flag.ContinueOnError)
		steps := fs.Int("steps", 1, "migrations to roll back")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return postgres.MigrateDown(ctx, a.dsn, *steps)
	}
	return fmt.Errorf("unknown migrate direction %q", direction)
}

type demoWarehouse struct {
	code, name, city, country string
	marketAreas               []int64
	deliveryMethods           []int64
}

var demoWarehouses = []demoWarehouse{
	{"PAR-1", "Paris North", "Paris", "FR", []int64{1, 2}, []int64{10, 11}},
	{"LYS-1", "Lyon Central", "Lyon", "FR", []int64{2}, []int64{10}},
	{"BER-1", "Berlin East", "Berlin", "DE", []int64{3}, []int64{12}},
}

// seed creates the demo warehouses that are missing, links them and bulk
// loads stock rows for skus 1..N.
func (a *app) seed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	skus := fs.Int("skus", 50, "stock rows per new warehouse")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var created []*warehouse.Warehouse
	for _, d := range demoWarehouses {
		if _, err := a.warehouses.GetByCode(ctx, d.code, warehouse.SelectBasic); err == nil {
			logger.Info(ctx, "warehouse exists, skipping", "code", d.code)
			continue
		} else if !apperror.IsNotFound(err) {
			return err
		}

		w := warehouse.NewWarehouse(d.code, d.name)
		w.City = &d.city
		w.CountryCode = &d.country
		w, err := a.warehouses.Create(ctx, w)
		if err != nil {
			return fmt.Errorf("create %s: %w", d.code, err)
		}
		for i, ma := range d.marketAreas {
			link := &warehouse.WarehouseMarketArea{
				WarehouseID:  w.ID,
				MarketAreaID: ma,
				Ordering:     i,
				IsDefault:    i == 0,
			}
			if err := a.warehouses.LinkMarketArea(ctx, link); err != nil {
				return fmt.Errorf("link market area %d: %w", ma, err)
			}
		}
		for _, dm := range d.deliveryMethods {
			if err := a.warehouses.LinkDeliveryMethod(ctx, w.ID, dm); err != nil {
				return fmt.Errorf("link delivery method %d: %w", dm, err)
			}
		}
		created = append(created, w)
	}

	n, err := copyStocks(ctx, a.txm, postgres.NewBatchInserter(a.txm), created, *skus)
	if err != nil {
		return err
	}
	logger.Info(ctx, "seed complete", "warehouses", len(created), "stocks", n)
	return nil
}

// copyStocks bulk-loads stock rows with COPY. Rows bypass the session, so ids
// and timestamps are stamped here.
func copyStocks(ctx context.Context, txm tx.Manager, inserter *postgres.BatchInserter, warehouses []*warehouse.Warehouse, skus int) (int64, error) {
	if len(warehouses) == 0 || skus <= 0 {
		return 0, nil
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	rows := make([]*stock.ProductSkuStock, 0, len(warehouses)*skus)
	for _, w := range warehouses {
		for sku := 1; sku <= skus; sku++ {
			st := stock.NewProductSkuStock(int64(sku), w.ID)
			st.SetID(id.New())
			st.StampCreate(now)
			st.StampUpdate(now)
			st.StockRegular = types.NormalizeQuantity(types.MustQuantity(fmt.Sprint(sku * 10)))
			st.StockAlert = types.MustQuantity("15")
			rows = append(rows, st)
		}
	}

	var n int64
	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		n, err = postgres.CopyRecords(ctx, inserter, stock.Columns, rows)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("copy stocks: %w", err)
	}
	return n, nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	marketArea := fs.Int64("market-area", 0, "only warehouses serving this market area")
	deliveryMethod := fs.Int64("delivery-method", 0, "only warehouses shipping with this delivery method")
	fetch := fs.String("fetch", "", "fetch plan: basic, default or full")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var filter warehouse.ListFilter
	if *marketArea > 0 {
		filter.MarketAreaID = marketArea
	}
	if *deliveryMethod > 0 {
		filter.DeliveryMethodID = deliveryMethod
	}
	var sel []fetchplan.Selector
	if *fetch != "" {
		sel = append(sel, fetchplan.Selector(*fetch))
	}

	list, err := a.warehouses.List(ctx, filter, sel...)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tPLAN\tMARKET AREAS\tDELIVERY METHODS\tSTOCKS")
	for _, w := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			w.Code, w.Name, w.FetchPlan().Name(),
			relationCount(w, warehouse.PathMarketAreas, len(w.MarketAreas)),
			relationCount(w, warehouse.PathDeliveryMethods, len(w.DeliveryMethods)),
			relationCount(w, warehouse.PathStocks, len(w.Stocks)),
		)
	}
	return tw.Flush()
}

// relationCount prints "-" for relations the plan did not load.
func relationCount(w *warehouse.Warehouse, path fetchplan.Path, n int) string {
	if !w.FetchPlan().Has(path) {
		return "-"
	}
	return fmt.Sprint(n)
}
