package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lowaak/calisthenics-coach/internal/session"
)

const schema = `
	CREATE TABLE IF NOT EXISTS exercise_history (
		exercise_id TEXT PRIMARY KEY,
		last_reps INTEGER,
		last_duration INTEGER,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		workout_id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL,
		warmup_status TEXT NOT NULL,
		cooldown_status TEXT NOT NULL,
		total_sets INTEGER NOT NULL,
		exercises INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);
`

// SQLStore keeps history in a SQLite database
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLStore)(nil)

// DefaultPath returns the database location inside dataDir
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "history.sqlite")
}

// OpenSQL opens or creates the database at path
func OpenSQL(path string, now func() time.Time) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &SQLStore{db: db, now: now}, nil
}

// Open returns the SQLite store, or an in-memory store when the database cannot
// be opened.
func Open(path string, now func() time.Time, logger *log.Logger) Store {
	s, err := OpenSQL(path, now)
	if err != nil {
		logger.Printf("History: %v, keeping history in memory", err)
		return NewMemoryStore(now)
	}
	logger.Printf("History: opened %s", path)
	return s
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) RecordSession(ctx context.Context, st session.State, totalSets int) (SessionRecord, error) {
	now := s.now()
	rec := newSessionRecord(st, totalSets, now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, workout_id, started_at, ended_at, warmup_status, cooldown_status, total_sets, exercises)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID.String(), rec.WorkoutID, rec.StartedAt.UnixMilli(), rec.EndedAt.UnixMilli(),
		string(rec.WarmupStatus), string(rec.CooldownStatus), rec.TotalSets, rec.Exercises); err != nil {
		return SessionRecord{}, fmt.Errorf("insert session: %w", err)
	}

	for _, e := range lastSets(st.ExerciseProgress, now) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO exercise_history (exercise_id, last_reps, last_duration, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(exercise_id) DO UPDATE SET
				last_reps = COALESCE(excluded.last_reps, exercise_history.last_reps),
				last_duration = COALESCE(excluded.last_duration, exercise_history.last_duration),
				updated_at = excluded.updated_at
		`, e.ExerciseID, nullIfZero(e.LastReps), nullIfZero(e.LastDuration), e.UpdatedAt.UnixMilli()); err != nil {
			return SessionRecord{}, fmt.Errorf("update exercise %s: %w", e.ExerciseID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return SessionRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

func (s *SQLStore) Exercise(ctx context.Context, exerciseID string) (ExerciseRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT exercise_id, last_reps, last_duration, updated_at
		FROM exercise_history
		WHERE exercise_id = ?
	`, exerciseID)
	rec, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ExerciseRecord{}, false, nil
	}
	if err != nil {
		return ExerciseRecord{}, false, err
	}
	return rec, true, nil
}

func (s *SQLStore) Exercises(ctx context.Context) ([]ExerciseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT exercise_id, last_reps, last_duration, updated_at
		FROM exercise_history
		ORDER BY exercise_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	defer rows.Close()

	var out []ExerciseRecord
	for rows.Next() {
		rec, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLStore) RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workout_id, started_at, ended_at, warmup_status, cooldown_status, total_sets, exercises
		FROM sessions
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var id, warmup, cooldown string
		var startedAt, endedAt int64
		if err := rows.Scan(&id, &rec.WorkoutID, &startedAt, &endedAt, &warmup, &cooldown,
			&rec.TotalSets, &rec.Exercises); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse session id %q: %w", id, err)
		}
		rec.ID = parsed
		rec.StartedAt = time.UnixMilli(startedAt)
		rec.EndedAt = time.UnixMilli(endedAt)
		rec.WarmupStatus = session.SectionStatus(warmup)
		rec.CooldownStatus = session.SectionStatus(cooldown)
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExercise(row scanner) (ExerciseRecord, error) {
	var rec ExerciseRecord
	var reps, duration sql.NullInt64
	var updatedAt int64
	if err := row.Scan(&rec.ExerciseID, &reps, &duration, &updatedAt); err != nil {
		return ExerciseRecord{}, fmt.Errorf("scan exercise: %w", err)
	}
	rec.LastReps = int(reps.Int64)
	rec.LastDuration = int(duration.Int64)
	rec.UpdatedAt = time.UnixMilli(updatedAt)
	return rec, nil
}

func nullIfZero(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}
