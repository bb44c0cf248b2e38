package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"core/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// UpcomingVisits returns future-dated visits joined with property and
// prospect identifying fields, ordered by start time ascending. When date is
// non-nil only visits on that calendar day are returned.
func (r *PostgresRepository) UpcomingVisits(ctx context.Context, date *time.Time, limit int) ([]model.Visit, error) {
	whereClauses := []string{"v.scheduled_at >= NOW()", "v.status = 'scheduled'"}
	args := []interface{}{}
	argIndex := 1

	if date != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("v.scheduled_at::date = $%d", argIndex))
		args = append(args, date.Format("2006-01-02"))
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT
			v.id, v.scheduled_at,
			COALESCE(p.title, '') AS property_title,
			COALESCE(p.address, '') AS property_address,
			COALESCE(c.full_name, '') AS prospect_name
		FROM visits v
		JOIN properties p ON p.id = v.property_id
		LEFT JOIN prospects c ON c.id = v.prospect_id
		WHERE %s
		ORDER BY v.scheduled_at ASC
		LIMIT $%d
	`, strings.Join(whereClauses, " AND "), argIndex)
	args = append(args, limit)

	var visits []model.Visit
	if err := r.db.SelectContext(ctx, &visits, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch upcoming visits: %w", err)
	}
	return visits, nil
}

// CreateProperty inserts a confirmed property draft and returns the new id
func (r *PostgresRepository) CreateProperty(ctx context.Context, draft *model.Entities) (int64, error) {
	amenidades := model.JSONMap{}
	for flag, v := range draft.Amenidades {
		amenidades[flag] = v
	}

	query := `
		INSERT INTO properties (tipo, direccion, comuna, habitaciones, banos,
			precio_arriendo, precio_venta, amenidades, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'draft', NOW(), NOW())
		RETURNING id
	`
	var id int64
	err := r.db.GetContext(ctx, &id, query,
		draft.Tipo, draft.Direccion, draft.Comuna,
		draft.Habitaciones, draft.Banos,
		draft.PrecioArriendo, draft.PrecioVenta, amenidades,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create property: %w", err)
	}
	return id, nil
}

// LogConversation logs one handled assistant message
func (r *PostgresRepository) LogConversation(ctx context.Context, entry *model.AssistantLog) error {
	query := `
		INSERT INTO assistant_logs (id, session_id, message, intent, entities, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.SessionID, entry.Message, entry.Intent, entry.Entities, entry.ResponseTimeMs,
	)
	if err != nil {
		return fmt.Errorf("failed to log conversation: %w", err)
	}
	return nil
}
