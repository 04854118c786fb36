package testutil

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	pgutil "github.com/txshield/txshield/pkg/postgres"
)

const terminateTimeout = 10 * time.Second

// Images pinned for the integration suites.
const (
	PostgresImage = "postgres:16-alpine"
	KafkaImage    = "confluentinc/confluent-local:7.6.1"
	RedisImage    = "redis:7-alpine"
)

// Database is a disposable PostgreSQL instance with an open pool.
type Database struct {
	DSN  string
	Pool *pgxpool.Pool
}

// Migrate applies fsys/dir with golang-migrate, as riskd does on boot.
func (d *Database) Migrate(t *testing.T, fsys fs.FS, dir string) {
	t.Helper()
	require.NoError(t, pgutil.RunMigrations(d.DSN, fsys, dir), "apply migrations")
}

// StartPostgres runs PostgreSQL for the lifetime of t.
func StartPostgres(ctx context.Context, t *testing.T) *Database {
	t.Helper()

	ctr, err := postgres.Run(ctx, PostgresImage,
		postgres.WithDatabase("txshield"),
		postgres.WithUsername("txshield"),
		postgres.WithPassword("txshield"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "start postgres")
	terminateOnCleanup(t, ctr)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgutil.NewPool(ctx, pgutil.Config{URL: dsn})
	require.NoError(t, err, "connect to postgres")
	t.Cleanup(pool.Close)

	return &Database{DSN: dsn, Pool: pool}
}

// StartKafka runs a single KRaft broker and returns its bootstrap addresses.
func StartKafka(ctx context.Context, t *testing.T) []string {
	t.Helper()

	ctr, err := kafka.Run(ctx, KafkaImage, kafka.WithClusterID("txshield-test"))
	require.NoError(t, err, "start kafka")
	terminateOnCleanup(t, ctr)

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	return brokers
}

// StartRedis runs Redis and returns its host:port.
func StartRedis(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        RedisImage,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start redis")
	terminateOnCleanup(t, ctr)

	endpoint, err := ctr.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

// terminateOnCleanup registers container teardown. Cleanup funcs run LIFO, so
// pools closed later in the caller are released before this fires.
func terminateOnCleanup(t *testing.T, ctr testcontainers.Container) {
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), terminateTimeout)
		defer cancel()
		if err := ctr.Terminate(ctx); err != nil {
			t.Logf("terminate %s: %v", ctr.GetContainerID(), err)
		}
	})
}
