package database

import (
	"context"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // sqlite driver
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	sqliteBusyTimeout = 5 * time.Second
)

type DB struct {
	Driver string `envconfig:"DB_DRIVER" default:"sqlite"`
	// Path is the sqlite database file.
	Path string `envconfig:"DB_PATH" default:"library.db"`

	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Username string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD"`
	NameDB   string `envconfig:"DB_NAME" default:"library"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
}

// DriverName is the database/sql driver registered for cfg.Driver.
func (cfg *DB) DriverName() string {
	if cfg.Driver == DriverPostgres {
		return "pgx"
	}
	return DriverSQLite
}

func (cfg *DB) DSN() string {
	if cfg.Driver == DriverPostgres {
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.Username, cfg.Password),
			Host:     net.JoinHostPort(cfg.Host, cfg.Port),
			Path:     cfg.NameDB,
			RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
		}
		return u.String()
	}
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", sqliteBusyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	// BEGIN IMMEDIATE takes the write lock up front so concurrent borrow
	// transactions queue on busy_timeout instead of failing on upgrade.
	q.Set("_txlock", "immediate")
	return "file:" + cfg.Path + "?" + q.Encode()
}

// NewDB opens the configured store, checks connectivity and applies the
// embedded schema from migrations.
func NewDB(ctx context.Context, cfg *DB, migrations fs.FS, log *zap.Logger) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, errors.Errorf("unsupported db driver %q", cfg.Driver)
	}
	db, err := sqlx.Open(cfg.DriverName(), cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "sqlx.Open")
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "db.Ping")
	}
	if err := Migrate(db, migrations, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// goose keeps its base FS, dialect and logger in package globals.
var migrateMu sync.Mutex

// Migrate creates the schema if it is absent. Running it against an
// initialized store changes nothing.
func Migrate(db *sqlx.DB, migrations fs.FS, log *zap.Logger) error {
	dialect, dir := "sqlite3", DriverSQLite
	if db.DriverName() == "pgx" {
		dialect, dir = "postgres", DriverPostgres
	}

	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(zap.NewStdLog(log.Named("goose")))
	if err := goose.SetDialect(dialect); err != nil {
		return errors.Wrap(err, "goose.SetDialect")
	}
	if err := goose.Up(db.DB, dir); err != nil {
		return errors.Wrap(err, "goose.Up")
	}
	return nil
}
