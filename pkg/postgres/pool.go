package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Config holds PostgreSQL connection parameters. URL wins over the
// individual fields when set.
type Config struct {
	URL string

	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxConns int32
	MinConns int32
}

// DSN returns the connection string.
func (c Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

// PoolOptions tunes the pool beyond what the DSN carries.
type PoolOptions struct {
	// ApplicationName is reported to the server in pg_stat_activity.
	ApplicationName string

	// SlowQuery logs statements slower than this at warn level. Zero disables.
	SlowQuery time.Duration
	Logger    *slog.Logger
}

// NewPool creates a pool, installs the query tracer and verifies connectivity.
func NewPool(ctx context.Context, cfg Config, opts ...PoolOptions) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	var o PoolOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.ApplicationName != "" {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = o.ApplicationName
	}
	poolCfg.ConnConfig.Tracer = &queryTracer{slow: o.SlowQuery, logger: o.Logger}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 15 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping %s: %w", poolCfg.ConnConfig.Host, err)
	}
	return pool, nil
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck pings the database.
func HealthCheck(ctx context.Context, db Pinger) error {
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check: %w", err)
	}
	return nil
}

type traceStartKey struct{}

type traceStart struct {
	at  time.Time
	sql string
}

// queryTracer wraps every statement in a client span and logs slow ones.
type queryTracer struct {
	slow   time.Duration
	logger *slog.Logger
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	ctx, _ = otel.Tracer(tracerName).Start(ctx, spanName(data.SQL),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.query.text", data.SQL),
		),
	)
	return context.WithValue(ctx, traceStartKey{}, traceStart{at: time.Now(), sql: data.SQL})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)
	if data.Err != nil {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, data.Err.Error())
	}
	span.End()

	start, ok := ctx.Value(traceStartKey{}).(traceStart)
	if !ok || t.slow <= 0 || t.logger == nil {
		return
	}
	if elapsed := time.Since(start.at); elapsed >= t.slow {
		t.logger.Warn("slow query",
			"duration_ms", elapsed.Milliseconds(),
			"rows", data.CommandTag.RowsAffected(),
			"sql", start.sql,
		)
	}
}

const tracerName = "github.com/txshield/txshield/pkg/postgres"

// spanName is the leading SQL keyword, e.g. "postgres SELECT".
func spanName(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "postgres"
	}
	return "postgres " + strings.ToUpper(fields[0])
}
