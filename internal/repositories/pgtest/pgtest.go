// Package pgtest starts a throwaway postgres for repository tests.
package pgtest

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/sttalk999/sttalk/pkg/database"
	"github.com/sttalk999/sttalk/pkg/models"
)

const (
	user     = "sttalk"
	password = "sttalk"
	name     = "sttalk"
)

// Postgres is a migrated database running in a container.
type Postgres struct {
	DB     database.DB
	Raw    *sqlx.DB
	Logger ectologger.Logger
}

// Start runs postgres:15-alpine, applies the migrations in migrationsPath and
// registers cleanup on t. It skips the test in short mode.
func Start(t *testing.T, migrationsPath string) *Postgres {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	zapLogger, err := zap.NewDevelopment()
	require.NoError(t, err)
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     user,
				"POSTGRES_PASSWORD": password,
				"POSTGRES_DB":       name,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	raw, err := database.Connect(ctx, database.ConnectionConfig{
		Host:     host,
		Port:     port.Port(),
		User:     user,
		Password: password,
		Name:     name,
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{MigrationFolderPath: migrationsPath})
	require.NoError(t, migrations.Migrate(raw, name))

	return &Postgres{
		DB:     database.NewDatabaseInstance(raw, logger),
		Raw:    raw,
		Logger: logger,
	}
}

// SeedEntity inserts a company profile. Nil fields are stored as NULL.
func (p *Postgres) SeedEntity(t *testing.T, entity models.Entity) {
	t.Helper()
	ib := database.NewInsertBuilder()
	ib.InsertInto("entities")
	ib.Cols("id", "company_name", "industry", "stage", "description", "city", "country")
	ib.Values(entity.ID, entity.CompanyName, entity.Industry, entity.Stage, entity.Description, entity.City, entity.Country)
	query, args := ib.Build()
	_, err := p.Raw.Exec(query, args...)
	require.NoError(t, err)
}

// SeedInvestor inserts a directory row. Empty strings are stored as NULL.
func (p *Postgres) SeedInvestor(t *testing.T, investor models.Investor, createdAt time.Time) {
	t.Helper()
	ib := database.NewInsertBuilder()
	ib.InsertInto("investors")
	ib.Cols("id", "firm_name", "hq_location", "investment_focus", "stages", "investment_thesis", "created_at")
	ib.Values(investor.ID, investor.FirmName, nullable(investor.HQLocation), nullable(investor.InvestmentFocus),
		nullable(investor.Stages), nullable(investor.InvestmentThesis), createdAt)
	query, args := ib.Build()
	_, err := p.Raw.Exec(query, args...)
	require.NoError(t, err)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
