/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
)

const memoryDBName = ":memory:"

type defaultDatabaseManager struct {
	config         *ConnectionConfig
	db             *bun.DB
	sqlDB          *sql.DB
	logger         Logger
	mu             sync.RWMutex
	connected      bool
	lastError      error
	healthStatus   *HealthStatus
	reconnectTries int
	// stopHealth is closed on disconnect; nil while no health loop runs.
	stopHealth chan struct{}
}

// NewDatabaseManager returns an AbstractDatabaseManager backed by Bun. A nil
// config falls back to DefaultConnectionConfig.
func NewDatabaseManager(config *ConnectionConfig) AbstractDatabaseManager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	return &defaultDatabaseManager{
		config:       config,
		logger:       GetLogger(),
		healthStatus: &HealthStatus{},
	}
}

func (dm *defaultDatabaseManager) Connect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.connected && dm.db != nil {
		return nil
	}
	if dm.config.ConnectTimeout <= 0 {
		dm.config.ConnectTimeout = 30 * time.Second
	}

	if err := dm.open(ctx); err != nil {
		dm.lastError = err
		return err
	}
	dm.connected = true
	dm.lastError = nil
	dm.reconnectTries = 0

	if dm.config.HealthCheckInterval > 0 && dm.stopHealth == nil {
		dm.stopHealth = make(chan struct{})
		go dm.healthLoop(dm.config.HealthCheckInterval, dm.stopHealth)
	}

	dm.logger.Info("Database connected successfully", "type", dm.config.Type, "host", dm.config.Host, "dbname", dm.config.DBName)
	return nil
}

// open creates the pool, installs hooks and pings it. The caller holds dm.mu.
func (dm *defaultDatabaseManager) open(ctx context.Context) error {
	sqlDB, dialect, err := dm.openSQLDB()
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	db := bun.NewDB(sqlDB, dialect)
	dm.installHooks(db)
	dm.configureConnectionPool(sqlDB)

	pingCtx, cancel := context.WithTimeout(ctx, dm.config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("database connection test failed: %w", err)
	}
	dm.db, dm.sqlDB = db, sqlDB
	return nil
}

func (dm *defaultDatabaseManager) openSQLDB() (*sql.DB, schema.Dialect, error) {
	var (
		driverName string
		dsn        string
		dialect    schema.Dialect
	)
	switch dm.config.Type {
	case "mysql":
		driverName, dsn, dialect = "mysql", dm.mysqlDSN(), mysqldialect.New()
	case "postgres", "postgresql":
		driverName, dsn, dialect = "postgres", dm.postgresDSN(), pgdialect.New()
	case "sqlite", "sqlite3":
		driverName, dsn, dialect = sqliteshim.ShimName, dm.sqliteDSN(), sqlitedialect.New()
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", dm.config.Type)
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, dialect, nil
}

func (dm *defaultDatabaseManager) mysqlDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%s&readTimeout=%s&writeTimeout=%s",
		dm.config.Username,
		dm.config.Password,
		dm.config.Host,
		dm.config.Port,
		dm.config.DBName,
		dm.config.ConnectTimeout,
		dm.config.ReadTimeout,
		dm.config.WriteTimeout,
	)
}

func (dm *defaultDatabaseManager) postgresDSN() string {
	sslMode := dm.config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
		dm.config.Username,
		dm.config.Password,
		dm.config.Host,
		dm.config.Port,
		dm.config.DBName,
		sslMode,
		int(dm.config.ConnectTimeout.Seconds()),
	)
}

func (dm *defaultDatabaseManager) sqliteDSN() string {
	if dm.config.DBName == memoryDBName {
		return memoryDBName
	}
	return fmt.Sprintf("%s.db", dm.config.DBName)
}

func (dm *defaultDatabaseManager) installHooks(db *bun.DB) {
	if dm.config.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	if dm.config.SlowQueryTime > 0 {
		db.AddQueryHook(NewSlowQueryHook(dm.config.SlowQueryTime, dm.logger))
	}
}

func (dm *defaultDatabaseManager) configureConnectionPool(sqlDB *sql.DB) {
	if dm.config.DBName == memoryDBName {
		// the in-memory database lives exactly as long as its single connection
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
		return
	}
	sqlDB.SetMaxIdleConns(dm.config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dm.config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dm.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dm.config.ConnMaxIdleTime)
}

func (dm *defaultDatabaseManager) Disconnect() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.close()
}

// close stops the health loop and releases the pool. The caller holds dm.mu.
func (dm *defaultDatabaseManager) close() error {
	if dm.stopHealth != nil {
		close(dm.stopHealth)
		dm.stopHealth = nil
	}
	if dm.db == nil {
		return nil
	}

	err := dm.db.Close()
	dm.db, dm.sqlDB = nil, nil
	dm.connected = false
	if err != nil {
		dm.logger.Error("Failed to close database connection", "error", err)
	} else {
		dm.logger.Info("Database connection closed")
	}
	return err
}

func (dm *defaultDatabaseManager) Reconnect(ctx context.Context) error {
	dm.logger.Info("Attempting to reconnect to the database")
	if err := dm.Disconnect(); err != nil {
		dm.logger.Warn("Error disconnecting existing connection", "error", err)
	}
	return dm.Connect(ctx)
}

func (dm *defaultDatabaseManager) Ping(ctx context.Context) error {
	dm.mu.RLock()
	db := dm.db
	dm.mu.RUnlock()

	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

func (dm *defaultDatabaseManager) GetDB() *bun.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

func (dm *defaultDatabaseManager) GetSQLDB() *sql.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.sqlDB
}

func (dm *defaultDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	start := time.Now()
	status := &HealthStatus{LastCheckTime: start}
	if dm.db == nil {
		status.LastError = "Database not initialized"
		dm.healthStatus = status
		return status
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := dm.db.PingContext(pingCtx)
	status.ResponseTime = time.Since(start)
	status.Healthy = err == nil
	status.Connected = err == nil
	if err != nil {
		status.LastError = err.Error()
	}
	dm.lastError = err

	stats := newDBStats(dm.sqlDB.Stats())
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConns

	dm.healthStatus = status
	return status
}

// lastHealth returns the status recorded by the most recent health check.
func (dm *defaultDatabaseManager) lastHealth() HealthStatus {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return *dm.healthStatus
}

// healthLoop pings on every tick until stop is closed. A failed check
// triggers a reconnect when enabled, which replaces this loop with a new one.
func (dm *defaultDatabaseManager) healthLoop(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		status := dm.HealthCheck(ctx)
		cancel()
		if status.Healthy || !dm.config.EnableReconnect {
			continue
		}
		if dm.reconnect(stop) {
			return
		}
	}
}

// reconnect makes one reconnect attempt and reports whether the calling loop
// was replaced.
func (dm *defaultDatabaseManager) reconnect(stop <-chan struct{}) bool {
	dm.mu.Lock()
	if dm.reconnectTries >= dm.config.MaxReconnectTries {
		tries := dm.reconnectTries
		dm.mu.Unlock()
		dm.logger.Error("Max reconnect attempts reached, stopping", "tries", tries)
		return false
	}
	dm.reconnectTries++
	try := dm.reconnectTries
	dm.mu.Unlock()

	dm.logger.Info("Starting database reconnect", "try", try)
	select {
	case <-stop:
		return true
	case <-time.After(dm.config.ReconnectInterval):
	}

	ctx, cancel := context.WithTimeout(context.Background(), dm.config.ConnectTimeout)
	defer cancel()

	dm.mu.Lock()
	defer dm.mu.Unlock()
	select {
	case <-stop:
		return true
	default:
	}
	_ = dm.close()
	if err := dm.open(ctx); err != nil {
		dm.lastError = err
		dm.logger.Error("Reconnect failed", "error", err, "try", try)
		// the next tick retries until MaxReconnectTries
		dm.stopHealth = make(chan struct{})
		go dm.healthLoop(dm.config.HealthCheckInterval, dm.stopHealth)
		return true
	}
	dm.connected = true
	dm.lastError = nil
	dm.reconnectTries = 0
	dm.stopHealth = make(chan struct{})
	go dm.healthLoop(dm.config.HealthCheckInterval, dm.stopHealth)
	dm.logger.Info("Reconnect succeeded", "try", try)
	return true
}

func (dm *defaultDatabaseManager) GetStats() *DBStats {
	dm.mu.RLock()
	sqlDB := dm.sqlDB
	dm.mu.RUnlock()

	if sqlDB == nil {
		return &DBStats{}
	}
	return newDBStats(sqlDB.Stats())
}

func newDBStats(stats sql.DBStats) *DBStats {
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

func (dm *defaultDatabaseManager) SetLogger(logger Logger) {
	if logger == nil {
		return
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.logger = logger
}
