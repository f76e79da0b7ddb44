// Package app wires the ingestion pipeline: database, cache, repositories,
// parser, reconciliation engine and batch controller.
package app

import (
	"fmt"
	"log"
	"strconv"

	"boxoffice-pulse/cache"
	"boxoffice-pulse/config"
	"boxoffice-pulse/database"
	"boxoffice-pulse/database/executions"
	"boxoffice-pulse/database/performances"
	"boxoffice-pulse/database/snapshots"
	"boxoffice-pulse/ingest"
	"boxoffice-pulse/parser"
	"boxoffice-pulse/recon"
)

// App represents the batch ingestion application
type App struct {
	config *config.Config
	db     *database.Database
	redis  *cache.RedisClient
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{
		config: cfg,
		db:     nil, // Will be initialized in Run()
		redis:  nil, // Will be initialized in Run()
	}
}

// Run executes one batch reprocessing pass over the report backlog and
// returns its statistics. Failures before processing begins (unreachable
// store or document source) are the only errors returned; everything else
// is absorbed into the statistics.
func (a *App) Run(opts ingest.Options) (*ingest.Stats, error) {
	// 1. Raw reachability check before anything else. The run must fail
	// fast if the analytical store is down, not halfway into the backlog.
	fmt.Println("🗄️  Checking analytical store...")
	conn, err := database.NewConnection(database.ConnConfig{
		Host:     a.config.DatabaseHost,
		Port:     a.config.DatabasePort,
		User:     a.config.DatabaseUser,
		Password: a.config.DatabasePassword,
		DBName:   a.config.DatabaseName,
	})
	if err != nil {
		return nil, fmt.Errorf("analytical store unreachable: %w", err)
	}
	defer conn.Close()

	// 2. GORM connection + schema
	dbPort, err := strconv.Atoi(a.config.DatabasePort)
	if err != nil {
		return nil, fmt.Errorf("invalid database port: %w", err)
	}
	db, err := database.Connect(
		a.config.DatabaseHost,
		dbPort,
		a.config.DatabaseName,
		a.config.DatabaseUser,
		a.config.DatabasePassword,
	)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	a.db = db
	defer a.db.Close()

	if err := a.db.InitSchema(); err != nil {
		return nil, fmt.Errorf("schema initialization failed: %w", err)
	}

	// 3. Redis connection (optional)
	fmt.Println("🧠 Connecting to Redis...")
	a.redis = cache.NewRedisClient(
		a.config.RedisHost,
		a.config.RedisPort,
		a.config.RedisPassword,
	)
	if a.redis == nil {
		fmt.Println("⚠️  Redis connection failed. Caching disabled.")
	} else {
		defer a.redis.Close()
	}

	// 4. Repositories
	gormDB := a.db.DB()
	perfRepo := performances.NewRepository(gormDB)
	snapRepo := snapshots.NewRepository(gormDB)
	execRepo := executions.NewRepository(gormDB)

	// 5. Pipeline components
	p, err := parser.New(a.config.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("parser setup failed: %w", err)
	}
	engine := recon.NewEngine(a.config.Pipeline, snapRepo, perfRepo)

	controller := ingest.NewController(
		ingest.NewDirSource(a.config.ReportDir),
		ingest.TextExtractor{},
		p,
		engine,
		perfRepo,
		snapRepo,
		execRepo,
		a.redis,
	)

	if opts.DryRun {
		log.Println("🔍 Dry run: no writes will be issued")
	}

	return controller.Run(opts)
}
