// internal/repository/pg/health.go
package pg

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthRepository checks PostgreSQL for the health service.
type HealthRepository struct {
	db *pgxpool.Pool
}

// NewHealthRepository wraps an open pool.
func NewHealthRepository(db *pgxpool.Pool) *HealthRepository {
	return &HealthRepository{db: db}
}

// Name identifies the check in health reports.
func (r *HealthRepository) Name() string { return "postgres" }

// Check pings the database through the pool.
func (r *HealthRepository) Check(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Describe reports the server version and pool statistics.
func (r *HealthRepository) Describe(ctx context.Context) (map[string]string, error) {
	var version string
	if err := r.db.QueryRow(ctx, "SHOW server_version").Scan(&version); err != nil {
		return nil, err
	}

	stat := r.db.Stat()
	return map[string]string{
		"server_version": version,
		"total_conns":    strconv.Itoa(int(stat.TotalConns())),
		"idle_conns":     strconv.Itoa(int(stat.IdleConns())),
		"acquired_conns": strconv.Itoa(int(stat.AcquiredConns())),
		"max_conns":      strconv.Itoa(int(stat.MaxConns())),
	}, nil
}
