package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"urja/internal/config"
	"urja/internal/domain"
	applog "urja/internal/logger"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
	connMaxIdleTime = 10 * time.Minute
	pingTimeout     = 5 * time.Second
)

var openSQLite = func(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path)
}

// Open connects to the configured database, sizes the connection pool and
// migrates the inquiries table. The returned handle is shared by every
// request for the life of the process.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	log := applog.L().Named("db")
	var dialector gorm.Dialector
	var sqliteConn *sql.DB

	if cfg.IsPostgres() {
		log.Info("connecting to PostgreSQL database")
		dialector = postgres.Open(cfg.URL)
	} else {
		dbPath := cfg.GetSQLitePath()
		log.Info("connecting to SQLite database", zap.String("path", dbPath))
		sqlDB, err := openSQLite(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		sqliteConn = sqlDB
		dialector = sqlite.Dialector{
			DriverName: "sqlite",
			DSN:        dbPath,
			Conn:       sqlDB,
		}
	}

	// SQL statements carry contact details; never log them.
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		if sqliteConn != nil {
			_ = sqliteConn.Close()
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.IsPostgres() {
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxIdleConns)
		sqlDB.SetConnMaxLifetime(connMaxLifetime)
		sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
		log.Info("connection pool configured", zap.Int("max_open", maxOpenConns), zap.Int("max_idle", maxIdleConns))
	} else {
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Ping(db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database connection test failed: %w", err)
	}

	if err := db.AutoMigrate(&domain.Inquiry{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("database connected and migrated")
	return db, nil
}

// Ping checks that the database answers within pingTimeout.
func Ping(db *gorm.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Stats returns connection pool statistics.
func Stats(db *gorm.DB) (*sql.DBStats, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	stats := sqlDB.Stats()
	return &stats, nil
}

// Close releases the pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
