package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rob190501/iWalk/internal/domain"
	"github.com/Rob190501/iWalk/internal/observability"
)

//go:embed migrations/*.up.sql
var migrationsFS embed.FS

// Repository provides Postgres-backed persistence for daily records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Migrate applies the embedded schema files in lexical order. Statements are idempotent.
func (r *Repository) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		body, err := migrationsFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.pool.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// Upsert writes every record inside one transaction, replacing rows for existing days.
func (r *Repository) Upsert(ctx context.Context, records []domain.DailyRecord) (err error) {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const stmt = `INSERT INTO daily_records (day, steps, exercise_minutes, calories, updated_at)
        VALUES ($1,$2,$3,$4,now())
        ON CONFLICT (day) DO UPDATE SET steps=EXCLUDED.steps, exercise_minutes=EXCLUDED.exercise_minutes,
            calories=EXCLUDED.calories, updated_at=EXCLUDED.updated_at`

	batch := &pgx.Batch{}
	for _, record := range records {
		if !record.Valid() {
			return fmt.Errorf("record for %s has negative quantities", record.Date.Format("2006-01-02"))
		}
		batch.Queue(stmt, domain.Day(record.Date), record.Steps, record.ExerciseMinutes, record.Calories)
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordRecordsStored(len(records))
	return nil
}

// Range returns records with from <= day < to ordered by day.
func (r *Repository) Range(ctx context.Context, from, to time.Time) ([]domain.DailyRecord, error) {
	const query = `SELECT day, steps, exercise_minutes, calories FROM daily_records
        WHERE day >= $1 AND day < $2 ORDER BY day ASC`

	rows, err := r.pool.Query(ctx, query, domain.Day(from), domain.Day(to))
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// List returns records older than the cursor, newest first.
func (r *Repository) List(ctx context.Context, cursor *domain.Cursor, limit int) ([]domain.DailyRecord, *domain.Cursor, error) {
	args := []interface{}{limit}
	query := `SELECT day, steps, exercise_minutes, calories FROM daily_records`
	if cursor != nil {
		query += ` WHERE day < $2`
		args = append(args, domain.Day(cursor.Date))
	}
	query += ` ORDER BY day DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	results, err := collectRecords(rows)
	if err != nil {
		return nil, nil, err
	}

	var next *domain.Cursor
	if len(results) == limit {
		next = &domain.Cursor{Date: results[len(results)-1].Date}
	}
	return results, next, nil
}

// Get retrieves the record stored for day.
func (r *Repository) Get(ctx context.Context, day time.Time) (*domain.DailyRecord, error) {
	const query = `SELECT day, steps, exercise_minutes, calories FROM daily_records WHERE day=$1`

	var record domain.DailyRecord
	err := r.pool.QueryRow(ctx, query, domain.Day(day)).
		Scan(&record.Date, &record.Steps, &record.ExerciseMinutes, &record.Calories)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	record.Date = domain.Day(record.Date)
	return &record, nil
}

func collectRecords(rows pgx.Rows) ([]domain.DailyRecord, error) {
	defer rows.Close()

	results := make([]domain.DailyRecord, 0)
	for rows.Next() {
		var record domain.DailyRecord
		if err := rows.Scan(&record.Date, &record.Steps, &record.ExerciseMinutes, &record.Calories); err != nil {
			return nil, err
		}
		record.Date = domain.Day(record.Date)
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
