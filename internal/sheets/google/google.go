package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tesoretto/internal/core"
	ports "tesoretto/internal/sheets"
)

var header = []any{"ID", "Date", "Type", "Category", "Group", "Amount", "Note", "Created"}

// lastColumn is the column letter of the final header cell.
const lastColumn = "H"

type Config struct {
	SpreadsheetID string
	SheetName     string
	// CredentialsJSON takes precedence over CredentialsFile. With neither
	// set GOOGLE_APPLICATION_CREDENTIALS is consulted.
	CredentialsJSON string
	CredentialsFile string

	// OAuth user credentials, used instead of a service account when both
	// a client and a token are given. The token comes from tesoretto-oauth-init.
	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenJSON  string
	OAuthTokenFile  string
}

func (c Config) hasOAuth() bool {
	return (c.OAuthClientJSON != "" || c.OAuthClientFile != "") &&
		(c.OAuthTokenJSON != "" || c.OAuthTokenFile != "")
}

// valuesAPI is the slice of the Sheets values resource the mirror uses.
type valuesAPI interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	Update(ctx context.Context, rng string, rows [][]any) error
	Clear(ctx context.Context, rng string) error
}

// Mirror keeps one row per entry in a single sheet, id in column A.
type Mirror struct {
	values valuesAPI
	sheet  string
	// mu serialises row lookups with the writes that depend on them.
	mu sync.Mutex
}

var _ ports.EntryMirror = (*Mirror)(nil)

func New(ctx context.Context, cfg Config) (*Mirror, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newMirror(&serviceValues{svc: svc, spreadsheetID: cfg.SpreadsheetID}, cfg.SheetName), nil
}

func newMirror(values valuesAPI, sheet string) *Mirror {
	if strings.TrimSpace(sheet) == "" {
		sheet = "Entries"
	}
	return &Mirror{values: values, sheet: sheet}
}

// newSheetsService authenticates with OAuth user credentials when configured,
// otherwise with a service account.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	if cfg.hasOAuth() {
		client, err := oauthClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "Creating Google Sheets service with OAuth user token")
		service, err := gsheet.NewService(ctx, goption.WithHTTPClient(client))
		if err != nil {
			return nil, fmt.Errorf("create sheets service: %w", err)
		}
		return service, nil
	}

	credentialsFile := strings.TrimSpace(cfg.CredentialsFile)
	if cfg.CredentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case cfg.CredentialsJSON != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case credentialsFile != "":
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)
	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func oauthClient(ctx context.Context, cfg Config) (*http.Client, error) {
	clientJSON, err := inlineOrFile(cfg.OAuthClientJSON, cfg.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client: %w", err)
	}
	tokenJSON, err := inlineOrFile(cfg.OAuthTokenJSON, cfg.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	conf, err := goauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}
	// Token refreshes and API calls share the pooled transport.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newPooledHTTPClient())
	return conf.Client(ctx, &tok), nil
}

func inlineOrFile(inline, file string) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		return []byte(inline), nil
	}
	return os.ReadFile(strings.TrimSpace(file))
}

func newPooledHTTPClient() *http.Client {
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			MaxConnsPerHost:       50,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ExpectContinueTimeout: time.Second,
			ForceAttemptHTTP2:     true,
		},
		Timeout: 60 * time.Second,
	}
}

func (m *Mirror) Upsert(ctx context.Context, e core.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids, err := m.readIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		if err := m.values.Update(ctx, m.rowRange(1), [][]any{header}); err != nil {
			return fmt.Errorf("write header to %s: %w", m.sheet, err)
		}
		ids = []string{fmt.Sprint(header[0])}
	}

	row := rowIndex(ids, e.ID)
	if row == 0 {
		row = freeRow(ids)
	}
	if err := m.values.Update(ctx, m.rowRange(row), [][]any{toRow(e)}); err != nil {
		return fmt.Errorf("write entry %s to %s: %w", e.ID, m.rowRange(row), err)
	}
	slog.DebugContext(ctx, "Entry mirrored to sheet", "id", e.ID, "row", row, "sheet", m.sheet)
	return nil
}

func (m *Mirror) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids, err := m.readIDs(ctx)
	if err != nil {
		return err
	}
	row := rowIndex(ids, id)
	if row == 0 {
		slog.DebugContext(ctx, "Entry not present in sheet", "id", id, "sheet", m.sheet)
		return nil
	}
	if err := m.values.Clear(ctx, m.rowRange(row)); err != nil {
		return fmt.Errorf("clear %s: %w", m.rowRange(row), err)
	}
	return nil
}

func (m *Mirror) IDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids, err := m.readIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for i, id := range ids {
		if i == 0 || id == "" {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

// readIDs returns column A, one element per sheet row, header included.
func (m *Mirror) readIDs(ctx context.Context) ([]string, error) {
	rng := fmt.Sprintf("%s!A:A", m.sheet)
	rows, err := m.values.Get(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		if len(row) > 0 {
			ids[i] = strings.TrimSpace(fmt.Sprint(row[0]))
		}
	}
	return ids, nil
}

func (m *Mirror) rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", m.sheet, row, lastColumn, row)
}

// rowIndex returns the 1-based sheet row holding id, or 0. Row 1 is the
// header and never matches.
func rowIndex(ids []string, id string) int {
	for i := 1; i < len(ids); i++ {
		if ids[i] == id {
			return i + 1
		}
	}
	return 0
}

// freeRow reuses the first cleared row, or appends after the last one.
func freeRow(ids []string) int {
	for i := 1; i < len(ids); i++ {
		if ids[i] == "" {
			return i + 1
		}
	}
	return len(ids) + 1
}

func toRow(e core.Entry) []any {
	return []any{
		e.ID,
		e.Date.String(),
		string(e.Type),
		string(e.Category),
		string(e.Group),
		e.Amount.Units(),
		e.Note,
		e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type serviceValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *serviceValues) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceValues) Update(ctx context.Context, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

func (s *serviceValues) Clear(ctx context.Context, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}
