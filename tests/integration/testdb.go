//go:build integration

// Package integration runs the persistence layer and the HTTP API against a
// real PostgreSQL started with testcontainers.
package integration

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/invoicer/backend/internal/infrastructure/migration"
	"github.com/invoicer/backend/migrations"
	"github.com/invoicer/backend/tests/testutil"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// application tables, truncated before every test
var tables = []string{
	"team_images", "messages", "contracts", "invoice_fields", "invoices",
	"addresses", "customers", "tokens", "teams",
}

// postgres is started once for the package and migrated once
var postgres struct {
	once      sync.Once
	container *tcpostgres.PostgresContainer
	dsn       string
	err       error
}

// TestDB is a connection to the migrated container
type TestDB struct {
	DB *gorm.DB
}

func TestMain(m *testing.M) {
	code := m.Run()
	if postgres.container != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		_ = postgres.container.Terminate(ctx)
		cancel()
	}
	os.Exit(code)
}

func startPostgres() {
	ctx := context.Background()
	c, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("invoicer_test"),
		tcpostgres.WithUsername("invoicer"),
		tcpostgres.WithPassword("invoicer"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		postgres.err = err
		return
	}
	postgres.container = c

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		postgres.err = err
		return
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), testutil.GormConfig())
	if err != nil {
		postgres.err = err
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		postgres.err = err
		return
	}
	m, err := migration.New(sqlDB, "postgres", migrations.FS, zap.NewNop())
	if err != nil {
		postgres.err = err
		return
	}
	postgres.err = m.Up()
	// also closes sqlDB
	_ = m.Close()
	postgres.dsn = dsn
}

// NewTestDB connects to the shared container with every application table
// emptied
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}

	postgres.once.Do(startPostgres)
	require.NoError(t, postgres.err, "start postgres")

	cfg := testutil.GormConfig()
	if os.Getenv("TEST_DB_DEBUG") != "" {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(gormpostgres.Open(postgres.dsn), cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(5)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec("TRUNCATE TABLE "+strings.Join(tables, ", ")+" CASCADE").Error)
	return &TestDB{DB: db}
}
