package contacts

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/desertthunder/wabridge/internal/shared"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// DefaultReadRange covers the name and phone columns of the first sheet.
const DefaultReadRange = "Sheet1!A:B"

// SheetsSource reads contact rows from a Google Sheet using a service account.
type SheetsSource struct {
	svc       *sheets.Service
	sheetID   string
	readRange string
}

// NewSheetsSource builds a SheetsSource from base64-encoded service account
// JSON, a spreadsheet ID, and an A1-notation read range.
//
// The service account only needs the spreadsheets.readonly scope.
func NewSheetsSource(ctx context.Context, credentialsBase64, sheetID, readRange string) (*SheetsSource, error) {
	if credentialsBase64 == "" {
		return nil, fmt.Errorf("%w: GOOGLE_APPLICATION_CREDENTIALS_BASE64 not set", shared.ErrMissingCredentials)
	}
	if sheetID == "" {
		return nil, fmt.Errorf("%w: sheet ID not set", shared.ErrInvalidConfig)
	}
	if readRange == "" {
		readRange = DefaultReadRange
	}

	credentials, err := base64.StdEncoding.DecodeString(strings.TrimSpace(credentialsBase64))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode credentials: %v", shared.ErrMissingCredentials, err)
	}

	jwt, err := google.JWTConfigFromJSON(credentials, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse service account JSON: %v", shared.ErrMissingCredentials, err)
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &SheetsSource{svc: svc, sheetID: sheetID, readRange: readRange}, nil
}

// Fetch retrieves every row in the configured range, header included.
func (s *SheetsSource) Fetch(ctx context.Context) ([]Row, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.sheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", s.sheetID, err)
	}

	return RowsFromValues(resp.Values), nil
}

// RowsFromValues converts the raw cell grid returned by the Sheets API into
// contact rows. Missing cells become empty strings; numeric phone cells are
// stringified the way the sheet displays them.
func RowsFromValues(values [][]any) []Row {
	rows := make([]Row, 0, len(values))
	for _, cells := range values {
		var row Row
		if len(cells) > 0 {
			row.Name = cellString(cells[0])
		}
		if len(cells) > 1 {
			row.Phone = cellString(cells[1])
		}
		rows = append(rows, row)
	}
	return rows
}

func cellString(cell any) string {
	if cell == nil {
		return ""
	}
	if s, ok := cell.(string); ok {
		return s
	}
	return fmt.Sprint(cell)
}
