package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/voyara/poimod/internal/domain"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// POIRepository implements domain.POIRepository using SQLite.
type POIRepository struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*POIRepository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps the shared in-memory DSN coherent and
	// avoids SQLITE_BUSY when the job queue shares the file.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready repository.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*POIRepository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &POIRepository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *POIRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river, conversations).
func (r *POIRepository) DB() *sql.DB {
	return r.db
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

// timeFormat keeps nanosecond precision so that ORDER BY created_at
// yields a total order over messages written in the same second.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

const poiColumns = `id, owner_id, partner_id, name, status, submission_count,
	 rejection_reason, blocked_reason, conversation_id, version,
	 created_at, updated_at, validated_at`

func (r *POIRepository) Create(ctx context.Context, p domain.POI) error {
	var validatedAt any
	if p.ValidatedAt != nil {
		validatedAt = p.ValidatedAt.Format(timeFormat)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pois (`+poiColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.PartnerID, p.Name, string(p.Status), p.SubmissionCount,
		p.RejectionReason, p.BlockedReason, p.ConversationID, p.Version,
		p.CreatedAt.Format(timeFormat),
		p.UpdatedAt.Format(timeFormat),
		validatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting poi: %w", err)
	}
	return nil
}

func (r *POIRepository) GetByID(ctx context.Context, id string) (domain.POI, error) {
	return scanPOI(r.db.QueryRowContext(ctx,
		`SELECT `+poiColumns+` FROM pois WHERE id = ?`, id,
	))
}

func (r *POIRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.POI, error) {
	query := `SELECT ` + poiColumns + ` FROM pois`
	var conds []string
	var args []any

	if filter.Status != nil {
		conds = append(conds, `status = ?`)
		args = append(args, string(*filter.Status))
	}
	if filter.OwnerID != "" {
		conds = append(conds, `(owner_id = ? OR partner_id = ?)`)
		args = append(args, filter.OwnerID, filter.OwnerID)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing pois: %w", err)
	}
	defer rows.Close()

	var pois []domain.POI
	for rows.Next() {
		p, err := scanPOI(rows)
		if err != nil {
			return nil, err
		}
		pois = append(pois, p)
	}

	return pois, rows.Err()
}

// ApplyTransition commits the new POI state, the lazily created
// conversation, and the audit message as one transaction guarded by the
// optimistic version check.
func (r *POIRepository) ApplyTransition(ctx context.Context, p domain.POI, expectedVersion int64, msg *domain.Message) (domain.POI, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.POI{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if msg != nil {
		conv, err := getOrCreateConversation(ctx, tx, p.ID)
		if err != nil {
			return domain.POI{}, err
		}
		p.ConversationID = conv.ID

		m := *msg
		m.ConversationID = conv.ID
		if err := insertMessage(ctx, tx, m); err != nil {
			return domain.POI{}, err
		}
	} else if p.ConversationID == "" {
		// Keep a previously created conversation attached.
		var existing string
		err := tx.QueryRowContext(ctx,
			`SELECT conversation_id FROM pois WHERE id = ?`, p.ID,
		).Scan(&existing)
		if err == nil {
			p.ConversationID = existing
		}
	}

	var validatedAt any
	if p.ValidatedAt != nil {
		validatedAt = p.ValidatedAt.Format(timeFormat)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE pois SET status = ?, submission_count = ?, rejection_reason = ?,
		 blocked_reason = ?, conversation_id = ?, version = ?, updated_at = ?, validated_at = ?
		 WHERE id = ? AND version = ?`,
		string(p.Status), p.SubmissionCount, p.RejectionReason,
		p.BlockedReason, p.ConversationID, p.Version, p.UpdatedAt.Format(timeFormat), validatedAt,
		p.ID, expectedVersion,
	)
	if err != nil {
		return domain.POI{}, fmt.Errorf("updating poi: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return domain.POI{}, fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		// Distinguish a missing POI from a lost version race. Read
		// through the open transaction: the pool may be capped at a
		// single connection.
		current, getErr := scanPOI(tx.QueryRowContext(ctx,
			`SELECT `+poiColumns+` FROM pois WHERE id = ?`, p.ID,
		))
		if getErr != nil {
			return domain.POI{}, domain.ErrPOINotFound
		}
		return domain.POI{}, &domain.ConflictError{
			ExpectedVersion: expectedVersion,
			CurrentVersion:  current.Version,
			CurrentStatus:   current.Status,
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.POI{}, fmt.Errorf("committing transition: %w", err)
	}

	return p, nil
}

// scanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanPOI(row scanner) (domain.POI, error) {
	var p domain.POI
	var status, createdAt, updatedAt string
	var validatedAt sql.NullString

	err := row.Scan(&p.ID, &p.OwnerID, &p.PartnerID, &p.Name, &status, &p.SubmissionCount,
		&p.RejectionReason, &p.BlockedReason, &p.ConversationID, &p.Version,
		&createdAt, &updatedAt, &validatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.POI{}, domain.ErrPOINotFound
		}
		return domain.POI{}, fmt.Errorf("scanning poi: %w", err)
	}

	p.Status = domain.Status(status)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	if validatedAt.Valid {
		t := parseTime(validatedAt.String)
		p.ValidatedAt = &t
	}

	return p, nil
}
