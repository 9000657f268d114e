package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sergiovriv/bc-p2/internal/config"
)

// ErrNoDSN means the round journal is not configured.
var ErrNoDSN = errors.New("db dsn is empty")

type DB struct {
	Gorm *gorm.DB
	SQL  *sql.DB
}

// OpenJournal connects to the round journal database, checks that it answers,
// pins the session time zone and migrates the journal tables.
func OpenJournal(ctx context.Context, cfg config.DBConfig, log *zap.Logger) (*DB, error) {
	if cfg.DSN == "" {
		return nil, ErrNoDSN
	}
	if log == nil {
		log = zap.NewNop()
	}
	gdb, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{Logger: queryLogger(log)})
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	sqldb, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	d := &DB{Gorm: gdb, SQL: sqldb}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := d.SQL.PingContext(pingCtx); err != nil {
		_ = Close(d)
		return nil, fmt.Errorf("ping journal db: %w", err)
	}
	if err := SetTimezone(d, cfg.Timezone); err != nil {
		log.Warn("failed to set timezone", zap.String("tz", cfg.Timezone), zap.Error(err))
	}
	if err := AutoMigrate(d); err != nil {
		_ = Close(d)
		return nil, fmt.Errorf("migrate journal db: %w", err)
	}
	return d, nil
}

func Close(db *DB) error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}

// SetTimezone only accepts zone names the Go runtime knows, since SET cannot
// take a bind parameter.
func SetTimezone(db *DB, tz string) error {
	if db == nil || db.SQL == nil || tz == "" {
		return nil
	}
	if err := validZone(tz); err != nil {
		return err
	}
	_, err := db.SQL.Exec("SET TIME ZONE '" + tz + "'")
	return err
}

func validZone(tz string) error {
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("time zone %q: %w", tz, err)
	}
	return nil
}

// queryLogger sends slow queries and errors to zap. Missing rows are expected
// on journal lookups and stay quiet.
func queryLogger(log *zap.Logger) gormlogger.Interface {
	return gormlogger.New(zapWriter{log.Named("journal-db").Sugar()}, gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

type zapWriter struct {
	s *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.s.Warnf(format, args...)
}
