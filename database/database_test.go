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
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) record(level, msg string, fields ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+" "+msg+fmt.Sprint(fields...))
}

func (l *recordingLogger) SetLevel(LogLevel)                       {}
func (l *recordingLogger) Debug(msg string, fields ...interface{}) { l.record("DEBUG", msg, fields...) }
func (l *recordingLogger) Info(msg string, fields ...interface{})  { l.record("INFO", msg, fields...) }
func (l *recordingLogger) Warn(msg string, fields ...interface{})  { l.record("WARN", msg, fields...) }
func (l *recordingLogger) Error(msg string, fields ...interface{}) { l.record("ERROR", msg, fields...) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if len(e) >= len(level) && e[:len(level)] == level {
			n++
		}
	}
	return n
}

func memoryConfig() *ConnectionConfig {
	cfg := DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = ":memory:"
	cfg.HealthCheckInterval = 0
	return cfg
}

func TestIsSqlError(t *testing.T) {
	cases := []struct {
		err  error
		is   bool
		kind SQLError
	}{
		{sql.ErrNoRows, true, NoRowsErr},
		{fmt.Errorf("load: %w", sql.ErrNoRows), true, NoRowsErr},
		{&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true, DuplicateKeyErr},
		{&mysql.MySQLError{Number: 1146}, true, NoTableErr},
		{&mysql.MySQLError{Number: 9999}, true, UnknownErr},
		{errors.New(`pq: duplicate key value violates unique constraint "users_email_key"`), true, DuplicateKeyErr},
		{errors.New(`pq: relation "users" does not exist`), true, NoTableErr},
		{errors.New(`pq: column "nope" does not exist`), true, NoColumnErr},
		{errors.New("SQL logic error: no such table: users (1)"), true, NoTableErr},
		{errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), true, DuplicateKeyErr},
		{errors.New("NOT NULL constraint failed: users.name"), true, NotNullViolationErr},
		{errors.New(`near "SELEC": syntax error`), true, SyntaxErr},
		{errors.New("connection refused"), false, UnknownErr},
		{nil, false, UnknownErr},
	}
	for _, c := range cases {
		is, kind := IsSqlError(c.err)
		assert.Equal(t, c.is, is, "%v", c.err)
		assert.Equal(t, c.kind, kind, "%v", c.err)
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(sql.ErrNoRows))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", sql.ErrNoRows)))
	assert.False(t, IsNotFound(errors.New("boom")))
	assert.Equal(t, "no_rows", NoRowsErr.String())
	assert.Equal(t, "unknown", SQLError(99).String())
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
connection:
  type: postgres
  host: db.internal
  port: 5432
  dbname: app
  slow_query_time: 500ms
  max_open_conns: 20
logging:
  level: debug
  format: json
`))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.ConnectionConfig.Type)
	assert.Equal(t, "db.internal", cfg.ConnectionConfig.Host)
	assert.Equal(t, 5432, cfg.ConnectionConfig.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.ConnectionConfig.SlowQueryTime)
	assert.Equal(t, 20, cfg.ConnectionConfig.MaxOpenConns)
	// untouched keys keep their defaults
	assert.Equal(t, 10, cfg.ConnectionConfig.MaxIdleConns)
	assert.Equal(t, time.Hour, cfg.ConnectionConfig.ConnMaxLifetime)
	assert.Equal(t, "json", cfg.Logging.Format)
	require.NoError(t, cfg.ConnectionConfig.Validate())

	_, err = ParseConfig([]byte("connection: [not, a, map]"))
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(t.TempDir() + "/missing.yaml")
	assert.Error(t, err)
}

func TestConnectionConfigValidate(t *testing.T) {
	assert.Error(t, (&ConnectionConfig{Type: "oracle", DBName: "x"}).Validate())
	assert.Error(t, (&ConnectionConfig{Type: "mysql", DBName: "x"}).Validate())
	assert.Error(t, (&ConnectionConfig{Type: "sqlite"}).Validate())
	assert.NoError(t, (&ConnectionConfig{Type: "sqlite", DBName: ":memory:"}).Validate())
}

func TestFactoryEnvOverride(t *testing.T) {
	t.Setenv("DB_HOST", "env-host")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_ENABLE_QUERY_LOG", "true")
	t.Setenv("DB_SLOW_QUERY_TIME", "3")

	cfg := &ConnectionConfig{Type: "mysql", Host: "file-host", Port: 3306, DBName: "app"}
	f := NewDatabaseFactory()
	manager, err := f.CreateFromConfig(cfg)
	require.NoError(t, err)
	require.NotNil(t, manager)

	assert.Equal(t, "env-host", cfg.Host)
	assert.Equal(t, 3307, cfg.Port)
	assert.Equal(t, "secret", cfg.Password)
	assert.True(t, cfg.EnableQueryLog)
	assert.Equal(t, 3*time.Second, cfg.SlowQueryTime)
	assert.Nil(t, f.GetDB(), "not connected yet")
}

func TestFactoryRejectsBadConfig(t *testing.T) {
	f := NewDatabaseFactory()
	_, err := f.CreateFromConfig(nil)
	assert.Error(t, err)
	_, err = f.CreateFromConfig(&ConnectionConfig{Type: "oracle", DBName: "x"})
	assert.Error(t, err)
	assert.Error(t, f.InitializeDatabase(context.Background()))
	assert.False(t, f.GetHealthStatus(context.Background()).Healthy)
}

func TestManagerSQLiteLifecycle(t *testing.T) {
	logger := &recordingLogger{}
	manager := NewDatabaseManager(memoryConfig())
	manager.SetLogger(logger)

	ctx := context.Background()
	require.NoError(t, manager.Connect(ctx))
	require.NoError(t, manager.Connect(ctx), "second connect is a no-op")
	require.NoError(t, manager.Ping(ctx))

	db := manager.GetDB()
	require.NotNil(t, db)
	_, err := db.ExecContext(ctx, "CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO notes (body) VALUES ('a')")
	require.NoError(t, err)

	var n int
	require.NoError(t, db.NewSelect().TableExpr("notes").ColumnExpr("COUNT(*)").Scan(ctx, &n))
	assert.Equal(t, 1, n, "single connection keeps the in-memory database")

	status := manager.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.Equal(t, 1, status.MaxOpenConns)
	assert.Equal(t, 1, manager.GetStats().MaxOpenConns)

	require.NoError(t, manager.Disconnect())
	assert.Nil(t, manager.GetDB())
	assert.Error(t, manager.Ping(ctx))
	assert.False(t, manager.HealthCheck(ctx).Healthy)
	assert.Equal(t, &DBStats{}, manager.GetStats())
	assert.GreaterOrEqual(t, logger.count("INFO"), 2)
}

func TestManagerHealthLoopRestartsAfterReconnect(t *testing.T) {
	cfg := memoryConfig()
	cfg.HealthCheckInterval = 10 * time.Millisecond
	cfg.EnableReconnect = false
	manager := NewDatabaseManager(cfg)
	manager.SetLogger(&recordingLogger{})
	dm := manager.(*defaultDatabaseManager)

	ctx := context.Background()
	require.NoError(t, manager.Connect(ctx))
	assert.Eventually(t, func() bool {
		return dm.lastHealth().Healthy
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, manager.Disconnect())
	require.NoError(t, manager.Connect(ctx))
	defer func() { _ = manager.Disconnect() }()

	reconnected := time.Now()
	assert.Eventually(t, func() bool {
		h := dm.lastHealth()
		return h.Healthy && h.LastCheckTime.After(reconnected)
	}, time.Second, 5*time.Millisecond)
}

func TestManagerReconnectsAfterFailedHealthCheck(t *testing.T) {
	cfg := memoryConfig()
	cfg.HealthCheckInterval = 10 * time.Millisecond
	cfg.EnableReconnect = true
	cfg.ReconnectInterval = time.Millisecond
	cfg.MaxReconnectTries = 3
	logger := &recordingLogger{}
	manager := NewDatabaseManager(cfg)
	manager.SetLogger(logger)

	ctx := context.Background()
	require.NoError(t, manager.Connect(ctx))
	defer func() { _ = manager.Disconnect() }()

	broken := manager.GetDB()
	require.NoError(t, manager.GetSQLDB().Close())

	assert.Eventually(t, func() bool {
		db := manager.GetDB()
		return db != nil && db != broken && manager.Ping(ctx) == nil
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSlowQueryHook(t *testing.T) {
	logger := &recordingLogger{}
	hook := NewSlowQueryHook(10*time.Millisecond, logger)

	hook.AfterQuery(context.Background(), &bun.QueryEvent{
		Query:     "SELECT * FROM users WHERE name LIKE '%a%'",
		StartTime: time.Now().Add(-time.Second),
	})
	hook.AfterQuery(context.Background(), &bun.QueryEvent{
		Query:     "SELECT 1",
		StartTime: time.Now(),
	})
	hook.AfterQuery(context.Background(), &bun.QueryEvent{
		Query:     "SELECT 1",
		StartTime: time.Now().Add(-time.Second),
		Err:       errors.New("failed"),
	})

	assert.Equal(t, 1, logger.count("WARN"))
}

func TestInitDBGlobal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConnectionConfig = *memoryConfig()

	db, err := InitDB(cfg)
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.Same(t, db, GetDB())
	assert.NotNil(t, GetDatabaseManager())
	assert.True(t, GetHealthStatus(context.Background()).Healthy)
	assert.Equal(t, 1, GetDatabaseStats().MaxOpenConns)

	require.NoError(t, CloseDB())
	assert.Nil(t, GetDB())
	assert.False(t, GetHealthStatus(context.Background()).Healthy)
	require.NoError(t, CloseDB())

	_, err = InitDB(nil)
	assert.Error(t, err)
}

func TestInitDBFromFile(t *testing.T) {
	path := t.TempDir() + "/db.yaml"
	require.NoError(t, writeFile(path, "connection:\n  type: sqlite\n  dbname: \":memory:\"\n  health_check_interval: 0s\n"))

	db, err := InitDBFromFile(path)
	require.NoError(t, err)
	defer func() { _ = CloseDB() }()
	require.NoError(t, db.PingContext(context.Background()))
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
