// package contacts defines the contact source abstraction and its Google
// Sheets implementation.
//
// A source returns spreadsheet rows as-is, header row included. Interpreting
// the rows (dropping the header, skipping blanks) is the send pipeline's job.
package contacts

import "context"

// Row is a single spreadsheet row: a contact name and a raw, untouched phone
// cell. Rows are ephemeral, fetched fresh for every batch.
type Row struct {
	Name  string
	Phone string
}

// Source fetches all contact rows from the configured spreadsheet range.
type Source interface {
	Fetch(ctx context.Context) ([]Row, error)
}
