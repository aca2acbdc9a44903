// Package sheets reads sale records from a Google Sheets tab laid out like
// the products API: one header row, one sale per row.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"vendas/internal/core"
	"vendas/internal/source"
)

const DefaultSheetName = "Vendas"

type Config struct {
	SpreadsheetID string
	SheetName     string
	// Service account credentials, inline JSON wins over the file path.
	CredentialsJSON string
	CredentialsFile string
}

// valueReader abstracts the Values.Get call.
type valueReader interface {
	Values(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
}

type Client struct {
	values        valueReader
	spreadsheetID string
	sheetName     string
}

var _ source.RecordSource = (*Client)(nil)

// New creates a read-only Sheets client using service account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "sheets service")
	}
	return newClient(serviceReader{svc: svc}, cfg), nil
}

func newClient(r valueReader, cfg Config) *Client {
	name := strings.TrimSpace(cfg.SheetName)
	if name == "" {
		name = DefaultSheetName
	}
	return &Client{values: r, spreadsheetID: cfg.SpreadsheetID, sheetName: name}
}

// Fetch reads the whole tab and applies q client-side.
func (c *Client) Fetch(ctx context.Context, q source.Query) ([]core.Sale, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	rng := fmt.Sprintf("%s!A:L", c.sheetName)
	rows, err := c.values.Values(ctx, c.spreadsheetID, rng)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", rng)
	}
	sales, err := parseSales(rows)
	if err != nil {
		if errors.Is(err, core.ErrInvalidDate) {
			return nil, err
		}
		return nil, errors.Wrap(source.ErrMalformedPayload, err.Error())
	}
	return core.Filter(sales, q.Predicates()), nil
}

type serviceReader struct {
	svc *gsheet.Service
}

func (r serviceReader) Values(ctx context.Context, id, rng string) ([][]any, error) {
	resp, err := r.svc.Spreadsheets.Values.Get(id, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credentials := []byte(strings.TrimSpace(cfg.CredentialsJSON))
	if len(credentials) == 0 {
		path := strings.TrimSpace(cfg.CredentialsFile)
		if path == "" {
			path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		}
		if path == "" {
			return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
		}
		var err error
		credentials, err = os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read service account file")
		}
	}

	slog.InfoContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentials),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
}
