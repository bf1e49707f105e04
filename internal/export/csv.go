// Package export renders entries as CSV and ships backups to object storage.
package export

import (
	"bufio"
	"io"
	"strings"

	"tesoretto/internal/core"
)

var header = []string{"date", "type", "category", "priority", "amount", "note"}

// WriteCSV writes a header row and one row per entry in the given order.
// Every field is quoted. The priority column carries the category group.
func WriteCSV(w io.Writer, entries []core.Entry) error {
	bw := bufio.NewWriter(w)
	if err := writeRow(bw, header); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			e.Date.String(),
			string(e.Type),
			string(e.Category),
			string(e.Group),
			e.Amount.String(),
			e.Note,
		}
		if err := writeRow(bw, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeRow(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(quote(f)); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
