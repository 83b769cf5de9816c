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
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/uptrace/bun"
)

// BaseDatabaseFactory creates and manages a configured database manager and
// provides helpers for initialization, health checks, and statistics.
type BaseDatabaseFactory struct {
	manager AbstractDatabaseManager
	logger  Logger
}

// NewDatabaseFactory returns a new database factory using the global logger.
func NewDatabaseFactory() *BaseDatabaseFactory {
	return &BaseDatabaseFactory{
		logger: GetLogger(),
	}
}

// CreateFromConfig applies DB_* environment overrides to cfg, validates it and
// constructs a database manager that logs through the factory logger.
func (f *BaseDatabaseFactory) CreateFromConfig(cfg *ConnectionConfig) (AbstractDatabaseManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}

	f.overrideFromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	manager := NewDatabaseManager(cfg)
	manager.SetLogger(f.logger)

	f.manager = manager
	return manager, nil
}

func (f *BaseDatabaseFactory) overrideFromEnv(cfg *ConnectionConfig) {
	texts := map[string]*string{
		"DB_TYPE":     &cfg.Type,
		"DB_HOST":     &cfg.Host,
		"DB_USERNAME": &cfg.Username,
		"DB_PASSWORD": &cfg.Password,
		"DB_NAME":     &cfg.DBName,
		"DB_SSLMODE":  &cfg.SSLMode,
	}
	for key, dst := range texts {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"DB_PORT":           &cfg.Port,
		"DB_MAX_IDLE_CONNS": &cfg.MaxIdleConns,
		"DB_MAX_OPEN_CONNS": &cfg.MaxOpenConns,
	}
	for key, dst := range ints {
		if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
			*dst = v
		}
	}

	// seconds
	durations := map[string]*time.Duration{
		"DB_CONN_MAX_LIFETIME":  &cfg.ConnMaxLifetime,
		"DB_RECONNECT_INTERVAL": &cfg.ReconnectInterval,
		"DB_SLOW_QUERY_TIME":    &cfg.SlowQueryTime,
	}
	for key, dst := range durations {
		if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
			*dst = time.Duration(v) * time.Second
		}
	}

	bools := map[string]*bool{
		"DB_ENABLE_RECONNECT": &cfg.EnableReconnect,
		"DB_ENABLE_QUERY_LOG": &cfg.EnableQueryLog,
	}
	for key, dst := range bools {
		if v := os.Getenv(key); v != "" {
			*dst = v == "true"
		}
	}
}

// InitializeDatabase connects the managed database.
func (f *BaseDatabaseFactory) InitializeDatabase(ctx context.Context) error {
	if f.manager == nil {
		return fmt.Errorf("database manager not created")
	}
	if err := f.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	f.logger.Info("Database initialization completed!")
	return nil
}

// GetManager returns the underlying database manager.
func (f *BaseDatabaseFactory) GetManager() AbstractDatabaseManager {
	return f.manager
}

// GetDB returns the Bun database instance, or nil if not initialized.
func (f *BaseDatabaseFactory) GetDB() *bun.DB {
	if f.manager == nil {
		return nil
	}
	return f.manager.GetDB()
}

// SetLogger sets the logger on the factory and the underlying manager.
func (f *BaseDatabaseFactory) SetLogger(logger Logger) {
	f.logger = logger
	if f.manager != nil {
		f.manager.SetLogger(logger)
	}
}

// Close closes the database connection managed by the factory.
func (f *BaseDatabaseFactory) Close() error {
	if f.manager == nil {
		return nil
	}
	return f.manager.Disconnect()
}

// GetHealthStatus returns the current database health status from the manager.
func (f *BaseDatabaseFactory) GetHealthStatus(ctx context.Context) *HealthStatus {
	if f.manager == nil {
		return &HealthStatus{
			LastError:     "Database manager not initialized",
			LastCheckTime: time.Now(),
		}
	}
	return f.manager.HealthCheck(ctx)
}

// GetStats returns database connection statistics from the manager.
func (f *BaseDatabaseFactory) GetStats() *DBStats {
	if f.manager == nil {
		return &DBStats{}
	}
	return f.manager.GetStats()
}
