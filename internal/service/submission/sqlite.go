package submission

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zhouzirui/leadbot/backend/internal/model/intake"
)

// ErrNotFound is returned by Get for an unknown submission id.
var ErrNotFound = errors.New("submission not found")

//go:embed schema/sqlite.sql
var sqliteSchema string

// SQLiteRecorder persists submissions in a SQLite database.
type SQLiteRecorder struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// OpenSQLite opens the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteRecorder, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath
	if cleanPath != ":memory:" {
		dsn = "file:" + cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if cleanPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteRecorder{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteRecorder) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Record inserts one submission.
func (s *SQLiteRecorder) Record(ctx context.Context, sub intake.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(sub.ID) == "" {
		return fmt.Errorf("submission id is required")
	}
	submittedAt := sub.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO submissions (
		   id, name, phone, message, user_id, display_name, handle, submitted_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID,
		sub.Name,
		sub.Phone,
		sub.Message,
		sub.UserID,
		sub.DisplayName,
		sub.Handle,
		toMillis(submittedAt),
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// Get returns one submission by id.
func (s *SQLiteRecorder) Get(ctx context.Context, id string) (intake.Submission, error) {
	if err := ctx.Err(); err != nil {
		return intake.Submission{}, err
	}
	if s == nil || s.sqlDB == nil {
		return intake.Submission{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return intake.Submission{}, fmt.Errorf("submission id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, name, phone, message, user_id, display_name, handle, submitted_at
		   FROM submissions
		  WHERE id = ?`,
		id,
	)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return intake.Submission{}, ErrNotFound
		}
		return intake.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

// List returns the newest submissions first.
func (s *SQLiteRecorder) List(ctx context.Context, limit int) ([]intake.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, name, phone, message, user_id, display_name, handle, submitted_at
		   FROM submissions
		  ORDER BY submitted_at DESC, id
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	subs := make([]intake.Submission, 0, limit)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return subs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (intake.Submission, error) {
	var sub intake.Submission
	var submittedAt int64
	err := row.Scan(
		&sub.ID,
		&sub.Name,
		&sub.Phone,
		&sub.Message,
		&sub.UserID,
		&sub.DisplayName,
		&sub.Handle,
		&submittedAt,
	)
	if err != nil {
		return intake.Submission{}, err
	}
	sub.SubmittedAt = fromMillis(submittedAt)
	return sub, nil
}
