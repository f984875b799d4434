package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"bills/internal/backend"
	"bills/internal/config"
	"bills/internal/log"
	"bills/internal/services"
)

// OpenFunc builds the bill service billsctl talks to. The returned func
// releases it.
type OpenFunc func(ctx context.Context, cfg FileConfig, logger *log.Logger) (*services.BillService, func() error, error)

// App holds the state shared by billsctl commands.
type App struct {
	Out io.Writer
	Err io.Writer
	In  io.Reader
	Now func() time.Time
	// Open defaults to OpenSQLite.
	Open OpenFunc

	configPath string
	dbPath     string
	currency   string
	verbose    bool

	cfg     FileConfig
	logger  *log.Logger
	svc     *services.BillService
	closeFn func() error
}

// NewApp returns an App wired to the process streams and the SQLite store.
func NewApp() *App {
	return &App{
		Out:  os.Stdout,
		Err:  os.Stderr,
		In:   os.Stdin,
		Now:  time.Now,
		Open: OpenSQLite,
	}
}

// OpenSQLite opens the database at cfg.DBPath through the backend factory.
// AMQP and Redis settings come from the environment so CLI edits emit the
// same events as the web server and clear the shared summary cache.
func OpenSQLite(ctx context.Context, cfg FileConfig, logger *log.Logger) (*services.BillService, func() error, error) {
	appCfg := config.Load()
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backend.Config{
		Type:         backend.SQLiteBackend,
		SQLiteDBPath: cfg.DBPath,
		Budget:       appCfg.Budget(),
		AMQPURL:      appCfg.AMQPURL,
		AMQPExchange: appCfg.AMQPExchange,
		AMQPQueue:    appCfg.AMQPQueue,
		RedisURL:     appCfg.RedisURL,
		CacheSize:    16,
		CacheTTL:     time.Minute,
	})
	if err != nil {
		return nil, nil, err
	}
	return res.Service, res.Cleanup, nil
}

// loadConfig reads the config file and applies flag overrides.
func (a *App) loadConfig(changed func(string) bool) error {
	cfg, err := LoadFileConfig(a.configFile())
	if err != nil {
		return err
	}
	if changed("db") {
		cfg.DBPath = a.dbPath
	}
	if changed("currency") {
		cfg.Currency = a.currency
	}
	a.cfg = cfg

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = log.New(log.Config{Level: level, Component: log.ComponentCLI, Output: a.Err})
	return nil
}

// service opens the store on first use.
func (a *App) service(ctx context.Context) (*services.BillService, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	open := a.Open
	if open == nil {
		open = OpenSQLite
	}
	svc, closeFn, err := open(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.cfg.DBPath, err)
	}
	a.svc, a.closeFn = svc, closeFn
	return svc, nil
}

// Close releases the store if a command opened it.
func (a *App) Close() error {
	if a.closeFn == nil {
		return nil
	}
	err := a.closeFn()
	a.svc, a.closeFn = nil, nil
	return err
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.Out, format, args...)
}
