package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"tesoretto/internal/core"
)

// fakeValues stores rows in memory and understands the two range shapes
// the mirror issues: "Sheet!A:A" and "Sheet!A<n>:H<n>".
type fakeValues struct {
	rows   map[int][]any
	getErr error
}

func newFakeValues() *fakeValues {
	return &fakeValues{rows: map[int][]any{}}
}

func (f *fakeValues) Get(_ context.Context, rng string) ([][]any, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if !strings.HasSuffix(rng, "!A:A") {
		return nil, fmt.Errorf("unexpected range %s", rng)
	}
	last := 0
	for r, v := range f.rows {
		if len(v) > 0 && r > last {
			last = r
		}
	}
	out := make([][]any, last)
	for r := 1; r <= last; r++ {
		if v := f.rows[r]; len(v) > 0 {
			out[r-1] = []any{v[0]}
		} else {
			out[r-1] = []any{}
		}
	}
	return out, nil
}

func (f *fakeValues) Update(_ context.Context, rng string, rows [][]any) error {
	f.rows[rowOf(rng)] = rows[0]
	return nil
}

func (f *fakeValues) Clear(_ context.Context, rng string) error {
	delete(f.rows, rowOf(rng))
	return nil
}

func rowOf(rng string) int {
	var row int
	cells := rng[strings.Index(rng, "!")+1:]
	fmt.Sscanf(cells, "A%d:", &row)
	return row
}

func entry(id string, cents int64) core.Entry {
	return core.Entry{
		ID:        id,
		Amount:    core.Money{Cents: cents},
		Type:      core.Expense,
		Category:  core.Groceries,
		Group:     core.Needs,
		Date:      core.NewDate(2025, time.April, 3),
		CreatedAt: time.Date(2025, 4, 3, 8, 0, 0, 0, time.UTC),
	}
}

func TestMirror_UpsertWritesHeaderAndRows(t *testing.T) {
	ctx := context.Background()
	values := newFakeValues()
	m := newMirror(values, "")

	if err := m.Upsert(ctx, entry("a", 1234)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := m.Upsert(ctx, entry("b", 500)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if got := values.rows[1][0]; got != "ID" {
		t.Fatalf("expected header in row 1, got %v", got)
	}
	row := values.rows[2]
	if row[0] != "a" || row[1] != "2025-04-03" || row[4] != "needs" || row[5] != 12.34 {
		t.Errorf("unexpected row 2: %v", row)
	}
	if values.rows[3][0] != "b" {
		t.Errorf("expected b in row 3, got %v", values.rows[3])
	}
}

func TestMirror_UpsertOverwritesExistingRow(t *testing.T) {
	ctx := context.Background()
	values := newFakeValues()
	m := newMirror(values, "Entries")

	_ = m.Upsert(ctx, entry("a", 100))
	_ = m.Upsert(ctx, entry("b", 200))
	if err := m.Upsert(ctx, entry("a", 999)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if len(values.rows) != 3 {
		t.Fatalf("expected header plus two rows, got %d", len(values.rows))
	}
	if values.rows[2][5] != 9.99 {
		t.Errorf("row for a not overwritten: %v", values.rows[2])
	}
}

func TestMirror_DeleteClearsRowAndReusesIt(t *testing.T) {
	ctx := context.Background()
	values := newFakeValues()
	m := newMirror(values, "Entries")

	_ = m.Upsert(ctx, entry("a", 100))
	_ = m.Upsert(ctx, entry("b", 200))
	if err := m.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := values.rows[2]; ok {
		t.Fatalf("row 2 should be cleared")
	}
	if err := m.Delete(ctx, "missing"); err != nil {
		t.Fatalf("deleting an unknown id should succeed: %v", err)
	}

	ids, err := m.IDs(ctx)
	if err != nil || len(ids) != 1 || ids[0] != "b" {
		t.Fatalf("unexpected ids %v err=%v", ids, err)
	}

	_ = m.Upsert(ctx, entry("c", 300))
	if values.rows[2][0] != "c" {
		t.Errorf("expected c to reuse the cleared row, got %v", values.rows)
	}
}

func TestMirror_ReadError(t *testing.T) {
	values := newFakeValues()
	values.getErr = errors.New("quota exceeded")
	m := newMirror(values, "Entries")

	err := m.Upsert(context.Background(), entry("a", 1))
	if !errors.Is(err, values.getErr) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing spreadsheet id" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

const testOAuthClient = `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`

func TestNew_OAuthTokenErrors(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Config{SpreadsheetID: "sheet", OAuthClientJSON: testOAuthClient, OAuthTokenJSON: "{broken"})
	if err == nil || !strings.Contains(err.Error(), "decode oauth token") {
		t.Fatalf("expected token decode error, got %v", err)
	}

	_, err = New(ctx, Config{SpreadsheetID: "sheet", OAuthClientJSON: testOAuthClient, OAuthTokenFile: t.TempDir() + "/missing.json"})
	if err == nil || !strings.Contains(err.Error(), "read oauth token") {
		t.Fatalf("expected token read error, got %v", err)
	}

	_, err = New(ctx, Config{SpreadsheetID: "sheet", OAuthClientJSON: "{}", OAuthTokenJSON: `{"access_token":"x"}`})
	if err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Fatalf("expected oauth config error, got %v", err)
	}
}

func TestNew_OAuthToken(t *testing.T) {
	m, err := New(context.Background(), Config{
		SpreadsheetID:   "sheet",
		OAuthClientJSON: testOAuthClient,
		OAuthTokenJSON:  `{"access_token":"x","token_type":"Bearer","refresh_token":"r"}`,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.sheet != "Entries" {
		t.Fatalf("unexpected default sheet %q", m.sheet)
	}
}
