package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tesoretto/internal/core"

	_ "modernc.org/sqlite"
)

// app_state keys
const (
	stateBudgetMonth = "budget_month"
	stateStreak      = "streak"
	stateTheme       = "theme"
)

// Fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const entryColumns = `id, amount_cents, type, category, category_group, priority, date, note, created_at`

// SQLiteRepository implements Store on a single SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("SQLite repository ready", "db_path", dbPath)
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]core.Entry, error) {
	return r.queryEntries(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY seq`)
}

func (r *SQLiteRepository) ListByMonth(ctx context.Context, year int, month time.Month) ([]core.Entry, error) {
	prefix := core.YearMonth{Year: year, Month: month}.String() + "-%"
	return r.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE date LIKE ? ORDER BY created_at DESC, seq DESC`,
		prefix)
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry %s: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) Add(ctx context.Context, e core.Entry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (id, amount_cents, type, category, category_group, priority, date, note, created_at)
		 VALUES (?, ?, ?, ?, ?, NULL, ?, ?, ?)`,
		e.ID, e.Amount.Cents, string(e.Type), string(e.Category), nullString(string(e.Group)),
		e.Date.String(), e.Note, formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	slog.DebugContext(ctx, "Entry saved to SQLite", "id", e.ID, "amount_cents", e.Amount.Cents)
	return nil
}

// Update rewrites every column and clears any legacy priority.
func (r *SQLiteRepository) Update(ctx context.Context, e core.Entry) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE entries SET amount_cents = ?, type = ?, category = ?, category_group = ?, priority = NULL,
		 date = ?, note = ?, created_at = ? WHERE id = ?`,
		e.Amount.Cents, string(e.Type), string(e.Category), nullString(string(e.Group)),
		e.Date.String(), e.Note, formatTime(e.CreatedAt), e.ID)
	if err != nil {
		return fmt.Errorf("update entry %s: %w", e.ID, err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category, year, month, amount_cents FROM budgets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var (
			b     core.Budget
			month int
		)
		if err := rows.Scan(&b.Category, &b.Year, &month, &b.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Month = time.Month(month)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (category, year, month, amount_cents) VALUES (?, ?, ?, ?)
		 ON CONFLICT (category, year, month) DO UPDATE SET amount_cents = excluded.amount_cents`,
		string(b.Category), b.Year, int(b.Month), b.Amount.Cents)
	if err != nil {
		return fmt.Errorf("upsert budget %s %s: %w", b.Category, b.Period(), err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, category core.Category, year int, month time.Month) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE category = ? AND year = ? AND month = ?`,
		string(category), year, int(month))
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) BudgetMonth(ctx context.Context) (core.YearMonth, error) {
	var rec MonthRecord
	if _, err := r.getState(ctx, stateBudgetMonth, &rec); err != nil {
		return core.YearMonth{}, err
	}
	return core.YearMonth{Year: rec.Year, Month: time.Month(rec.Month)}, nil
}

func (r *SQLiteRepository) SetBudgetMonth(ctx context.Context, ym core.YearMonth) error {
	return r.putState(ctx, stateBudgetMonth, MonthRecord{Month: int(ym.Month), Year: ym.Year})
}

func (r *SQLiteRepository) Streak(ctx context.Context) (core.Streak, error) {
	var rec StreakRecord
	if _, err := r.getState(ctx, stateStreak, &rec); err != nil {
		return core.Streak{}, err
	}
	return StreakFromRecord(rec), nil
}

func (r *SQLiteRepository) SaveStreak(ctx context.Context, s core.Streak) error {
	return r.putState(ctx, stateStreak, RecordFromStreak(s))
}

func (r *SQLiteRepository) UnlockedAchievements(ctx context.Context) ([]core.AchievementID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM achievements ORDER BY unlocked_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var out []core.AchievementID
	for rows.Next() {
		var id core.AchievementID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		if id.IsValid() {
			out = append(out, id)
		}
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UnlockAchievement(ctx context.Context, id core.AchievementID) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO achievements (id, unlocked_at) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
		string(id), formatTime(time.Now()))
	if err != nil {
		return false, fmt.Errorf("unlock achievement %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Theme(ctx context.Context) (core.Theme, error) {
	var t core.Theme
	if _, err := r.getState(ctx, stateTheme, &t); err != nil {
		return "", err
	}
	if !t.IsValid() {
		return "", nil
	}
	return t, nil
}

func (r *SQLiteRepository) SetTheme(ctx context.Context, t core.Theme) error {
	return r.putState(ctx, stateTheme, t)
}

func (r *SQLiteRepository) queryEntries(ctx context.Context, query string, args ...any) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if errors.Is(err, errMalformedRow) {
			slog.WarnContext(ctx, "Skipping malformed entry row", "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// errMalformedRow marks a stored row that scans but cannot be decoded.
var errMalformedRow = errors.New("malformed entry row")

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry reads one row through EntryRecord so legacy priority-only rows
// get the same normalisation as JSON files.
func scanEntry(s rowScanner) (core.Entry, error) {
	var (
		rec       EntryRecord
		group     sql.NullString
		priority  sql.NullString
		date      string
		createdAt string
	)
	if err := s.Scan(&rec.ID, &rec.Amount.Cents, &rec.Type, &rec.Category, &group, &priority, &date, &rec.Note, &createdAt); err != nil {
		return core.Entry{}, err
	}
	rec.CategoryGroup = group.String
	rec.Priority = priority.String

	d, err := core.ParseDate(date)
	if err != nil {
		return core.Entry{}, fmt.Errorf("%w: entry %s: %v", errMalformedRow, rec.ID, err)
	}
	rec.Date = d

	if t, err := time.Parse(timeLayout, createdAt); err == nil {
		rec.CreatedAt = t
	} else {
		slog.Warn("Unparseable entry timestamp", "id", rec.ID, "created_at", createdAt)
	}
	return NormalizeEntry(rec), nil
}

// getState decodes the JSON value stored under key into v. It reports false,
// leaving v untouched, when the key is absent or its value is corrupt.
func (r *SQLiteRepository) getState(ctx context.Context, key string, v any) (bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read state %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		slog.WarnContext(ctx, "Corrupt app state, using default", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (r *SQLiteRepository) putState(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode state %s: %w", key, err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO app_state (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, string(raw))
	if err != nil {
		return fmt.Errorf("write state %s: %w", key, err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
