package sheets

import (
	"context"

	"tesoretto/internal/core"
)

// EntryMirror is a one-way copy of the entry store kept in a spreadsheet.
// Rows are keyed by entry id.
type EntryMirror interface {
	// Upsert writes e, overwriting the row that already carries its id.
	Upsert(ctx context.Context, e core.Entry) error
	// Delete clears the row for id. Unknown ids are not an error.
	Delete(ctx context.Context, id string) error
	// IDs lists the entry ids currently present in the sheet.
	IDs(ctx context.Context) ([]string, error)
}
