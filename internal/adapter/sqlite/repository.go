package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/neomorfeo/cropseason/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Compile-time check: SeasonRepository implements domain.SeasonStore.
var _ domain.SeasonStore = (*SeasonRepository)(nil)

// Publisher enqueues a status change inside the transaction that persists it.
type Publisher interface {
	PublishTx(ctx context.Context, tx *sql.Tx, change domain.StatusChange) error
}

// SeasonRepository implements domain.SeasonStore using SQLite. It plays the
// backend role: it validates payloads, refuses status changes the lattice
// does not allow and keeps a status history.
type SeasonRepository struct {
	db        *sqlx.DB
	publisher Publisher
	now       func() time.Time
}

// Option configures a SeasonRepository.
type Option func(*SeasonRepository)

// WithPublisher enqueues every status change through p.
func WithPublisher(p Publisher) Option {
	return func(r *SeasonRepository) { r.publisher = p }
}

// WithNow overrides the timestamp source.
func WithNow(now func() time.Time) Option {
	return func(r *SeasonRepository) { r.now = now }
}

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string, opts ...Option) (*SeasonRepository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: ":memory:" databases are per connection, and River
	// shares this handle.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db, opts...)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready repository.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB, opts ...Option) (*SeasonRepository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	r := &SeasonRepository{
		db:  sqlx.NewDb(db, "sqlite3"),
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close closes the underlying database connection.
func (r *SeasonRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (r *SeasonRepository) DB() *sql.DB {
	return r.db.DB
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const (
	timeFormat    = "2006-01-02T15:04:05Z"
	seasonColumns = `id, plot_id, crop_id, variety_id, season_name, status, start_date,
		planned_harvest_date, end_date, initial_plant_count, current_plant_count,
		expected_yield_kg, actual_yield_kg, notes, created_at, updated_at`
)

// seasonRow mirrors the seasons table.
type seasonRow struct {
	ID                 int64           `db:"id"`
	PlotID             int64           `db:"plot_id"`
	CropID             int64           `db:"crop_id"`
	VarietyID          sql.NullInt64   `db:"variety_id"`
	SeasonName         string          `db:"season_name"`
	Status             string          `db:"status"`
	StartDate          string          `db:"start_date"`
	PlannedHarvestDate sql.NullString  `db:"planned_harvest_date"`
	EndDate            sql.NullString  `db:"end_date"`
	InitialPlantCount  int             `db:"initial_plant_count"`
	CurrentPlantCount  sql.NullInt64   `db:"current_plant_count"`
	ExpectedYieldKg    sql.NullFloat64 `db:"expected_yield_kg"`
	ActualYieldKg      sql.NullFloat64 `db:"actual_yield_kg"`
	Notes              string          `db:"notes"`
	CreatedAt          string          `db:"created_at"`
	UpdatedAt          string          `db:"updated_at"`
}

func (r *SeasonRepository) FetchSeason(ctx context.Context, id int64) (domain.Season, error) {
	return r.fetch(ctx, r.db, id)
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

func (r *SeasonRepository) fetch(ctx context.Context, q queryer, id int64) (domain.Season, error) {
	var row seasonRow
	err := q.GetContext(ctx, &row, `SELECT `+seasonColumns+` FROM seasons WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Season{}, domain.ErrSeasonNotFound
		}
		return domain.Season{}, fmt.Errorf("fetching season %d: %w", id, err)
	}
	return row.toDomain(), nil
}

func (r *SeasonRepository) ListSeasons(ctx context.Context, filter domain.ListFilter) ([]domain.Season, error) {
	query := `SELECT ` + seasonColumns + ` FROM seasons WHERE 1 = 1`
	var args []any

	if filter.PlotID != nil {
		query += ` AND plot_id = ?`
		args = append(args, *filter.PlotID)
	}
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}

	query += ` ORDER BY start_date DESC, id DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	} else if filter.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, filter.Offset)
	}

	var rows []seasonRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing seasons: %w", err)
	}

	seasons := make([]domain.Season, len(rows))
	for i, row := range rows {
		seasons[i] = row.toDomain()
	}
	return seasons, nil
}

func (r *SeasonRepository) CreateSeason(ctx context.Context, form domain.SeasonForm) (domain.Season, error) {
	if err := domain.Validate(form).Err(); err != nil {
		return domain.Season{}, err
	}

	now := r.now().Format(timeFormat)
	initial := 0
	if form.InitialPlantCount != nil {
		initial = *form.InitialPlantCount
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO seasons (plot_id, crop_id, variety_id, season_name, status, start_date,
			planned_harvest_date, end_date, initial_plant_count, expected_yield_kg, notes,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		form.PlotID, form.CropID, nullInt(form.VarietyID), form.SeasonName,
		string(domain.StatusPlanned), form.StartDate, nullString(form.PlannedHarvestDate),
		nullString(form.EndDate), initial, nullFloat(form.ExpectedYieldKg), form.Notes,
		now, now,
	)
	if err != nil {
		return domain.Season{}, fmt.Errorf("inserting season: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.Season{}, fmt.Errorf("reading season id: %w", err)
	}
	return r.FetchSeason(ctx, id)
}

func (r *SeasonRepository) UpdateSeason(ctx context.Context, id int64, patch domain.SeasonPatch) (domain.Season, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Season{}, fmt.Errorf("beginning update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var row seasonRow
	if err := tx.GetContext(ctx, &row, `SELECT `+seasonColumns+` FROM seasons WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Season{}, domain.ErrSeasonNotFound
		}
		return domain.Season{}, fmt.Errorf("loading season %d: %w", id, err)
	}

	row.apply(patch)
	if err := row.validatePatch(patch); err != nil {
		return domain.Season{}, err
	}
	row.UpdatedAt = r.now().Format(timeFormat)

	if _, err := tx.NamedExecContext(ctx,
		`UPDATE seasons SET plot_id = :plot_id, crop_id = :crop_id, variety_id = :variety_id,
			season_name = :season_name, start_date = :start_date,
			planned_harvest_date = :planned_harvest_date, end_date = :end_date,
			initial_plant_count = :initial_plant_count, current_plant_count = :current_plant_count,
			expected_yield_kg = :expected_yield_kg, actual_yield_kg = :actual_yield_kg,
			notes = :notes, updated_at = :updated_at
		 WHERE id = :id`, row); err != nil {
		return domain.Season{}, fmt.Errorf("updating season %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Season{}, fmt.Errorf("committing update: %w", err)
	}
	return row.toDomain(), nil
}

// SetStatus applies a status change if the stored status allows it. The
// action data is folded into the season, written to the history and handed
// to the publisher, all in one transaction.
func (r *SeasonRepository) SetStatus(ctx context.Context, id int64, target domain.Status, data domain.ActionData) (domain.Season, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Season{}, fmt.Errorf("beginning status change: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	current, err := r.fetch(ctx, tx, id)
	if err != nil {
		return domain.Season{}, err
	}
	if !domain.IsTransitionValid(current.Status, target) {
		return domain.Season{}, &domain.ConflictError{ID: id, From: current.Status, To: target}
	}

	now := r.now()
	query := `UPDATE seasons SET status = ?, updated_at = ?`
	args := []any{string(target), now.Format(timeFormat)}

	if target == domain.StatusActive && data.ActualStartDate != "" {
		if violations := startViolations(current, data); len(violations) > 0 {
			return domain.Season{}, &domain.ValidationError{Violations: violations}
		}
		query += `, start_date = ?`
		args = append(args, data.ActualStartDate)
	}
	if target == domain.StatusCompleted {
		if violations := completionViolations(current, data); len(violations) > 0 {
			return domain.Season{}, &domain.ValidationError{Violations: violations}
		}
		if data.EndDate != "" {
			query += `, end_date = ?`
			args = append(args, data.EndDate)
		}
		if data.ActualYieldKg != nil {
			query += `, actual_yield_kg = ?`
			args = append(args, *data.ActualYieldKg)
		}
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return domain.Season{}, fmt.Errorf("updating season status: %w", err)
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return domain.Season{}, fmt.Errorf("encoding action data: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO season_status_history (id, season_id, from_status, to_status, action_data, changed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), id, string(current.Status), string(target), string(encoded), now.Format(timeFormat),
	); err != nil {
		return domain.Season{}, fmt.Errorf("recording status history: %w", err)
	}

	if r.publisher != nil {
		change := domain.StatusChange{SeasonID: id, From: current.Status, To: target, Data: data, ChangedAt: now}
		if err := r.publisher.PublishTx(ctx, tx.Tx, change); err != nil {
			return domain.Season{}, fmt.Errorf("publishing status change: %w", err)
		}
	}

	updated, err := r.fetch(ctx, tx, id)
	if err != nil {
		return domain.Season{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Season{}, fmt.Errorf("committing status change: %w", err)
	}
	return updated, nil
}

func (r *SeasonRepository) DeleteSeason(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM seasons WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting season %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrSeasonNotFound
	}
	return nil
}

type historyRow struct {
	SeasonID   int64  `db:"season_id"`
	FromStatus string `db:"from_status"`
	ToStatus   string `db:"to_status"`
	ActionData string `db:"action_data"`
	ChangedAt  string `db:"changed_at"`
}

// History returns a season's status changes, oldest first.
func (r *SeasonRepository) History(ctx context.Context, id int64) ([]domain.StatusChange, error) {
	if _, err := r.FetchSeason(ctx, id); err != nil {
		return nil, err
	}

	var rows []historyRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT season_id, from_status, to_status, action_data, changed_at
		 FROM season_status_history WHERE season_id = ? ORDER BY changed_at, rowid`, id,
	); err != nil {
		return nil, fmt.Errorf("listing status history: %w", err)
	}

	changes := make([]domain.StatusChange, len(rows))
	for i, row := range rows {
		var data domain.ActionData
		if err := json.Unmarshal([]byte(row.ActionData), &data); err != nil {
			return nil, fmt.Errorf("decoding action data: %w", err)
		}
		changedAt, err := time.Parse(timeFormat, row.ChangedAt)
		if err != nil {
			return nil, fmt.Errorf("decoding changed_at: %w", err)
		}
		changes[i] = domain.StatusChange{
			SeasonID:  row.SeasonID,
			From:      domain.Status(row.FromStatus),
			To:        domain.Status(row.ToStatus),
			Data:      data,
			ChangedAt: changedAt,
		}
	}
	return changes, nil
}
