package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"

	"vendas/internal/core"
	"vendas/internal/source"

	_ "modernc.org/sqlite"
)

// MemoryDSN keeps the snapshot in process memory, shared by every
// connection of the pool.
const MemoryDSN = "file:vendas?mode=memory&cache=shared"

const (
	tableSales = "sales"
	tableMeta  = "snapshot_meta"

	dayLayout = "2006-01-02"
	// insertBatch stays well under SQLite's bound parameter limit.
	insertBatch = 500
)

var salesColumns = []string{
	"product", "category", "price", "freight", "purchase_date", "purchase_year",
	"rating", "payment_type", "installments", "seller", "location", "region", "lat", "lon",
}

// SQLiteRepository stores a snapshot of the upstream dataset.
type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ source.RecordSource   = (*SQLiteRepository)(nil)
	_ source.SnapshotWriter = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, errors.Wrap(err, "create db directory")
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}
	// An idle connection must survive for the in-memory database to persist.
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "run migrations")
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ReplaceAll swaps the stored snapshot atomically.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, sales []core.Sale) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin snapshot tx")
	}
	defer tx.Rollback()

	if err := execBuilder(ctx, tx, sq.Delete(tableSales)); err != nil {
		return errors.Wrap(err, "clear snapshot")
	}

	for start := 0; start < len(sales); start += insertBatch {
		end := min(start+insertBatch, len(sales))
		ins := sq.Insert(tableSales).Columns(salesColumns...)
		for _, s := range sales[start:end] {
			ins = ins.Values(
				s.Product, s.Category, s.Price, s.Freight,
				s.PurchaseDate.Format(dayLayout), s.PurchaseDate.Year(),
				s.Rating, s.PaymentType, s.Installments, s.Seller,
				s.Location, core.RegionOf(s.Location), s.Lat, s.Lon,
			)
		}
		if err := execBuilder(ctx, tx, ins); err != nil {
			return errors.Wrapf(err, "insert records %d-%d", start, end)
		}
	}

	meta := sq.Insert(tableMeta).
		Options("OR REPLACE").
		Columns("id", "refreshed_at", "records").
		Values(1, time.Now().UTC().Format(time.RFC3339), len(sales))
	if err := execBuilder(ctx, tx, meta); err != nil {
		return errors.Wrap(err, "update snapshot meta")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit snapshot")
	}

	slog.InfoContext(ctx, "Snapshot replaced", "records", len(sales))
	return nil
}

// Fetch returns the stored records matching q, pushing region and year
// down to SQL.
func (r *SQLiteRepository) Fetch(ctx context.Context, q source.Query) ([]core.Sale, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	query := sq.Select(salesColumns...).From(tableSales).OrderBy("id")
	if q.Region != "" {
		query = query.Where(sq.Eq{"region": q.Region})
	}
	if q.Year != 0 {
		query = query.Where(sq.Eq{"purchase_year": q.Year})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build select")
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select sales")
	}
	defer rows.Close()

	sales := make([]core.Sale, 0)
	for rows.Next() {
		var (
			s      core.Sale
			day    string
			year   int
			region string
		)
		if err := rows.Scan(
			&s.Product, &s.Category, &s.Price, &s.Freight, &day, &year,
			&s.Rating, &s.PaymentType, &s.Installments, &s.Seller,
			&s.Location, &region, &s.Lat, &s.Lon,
		); err != nil {
			return nil, errors.Wrap(err, "scan sale")
		}
		if s.PurchaseDate, err = time.Parse(dayLayout, day); err != nil {
			return nil, errors.Wrapf(core.ErrInvalidDate, "stored date %q", day)
		}
		sales = append(sales, s)
	}
	return sales, errors.Wrap(rows.Err(), "iterate sales")
}

// LastRefresh returns when the snapshot was last replaced and its size.
// The zero time means no snapshot was ever taken.
func (r *SQLiteRepository) LastRefresh(ctx context.Context) (time.Time, int, error) {
	sqlStr, args, err := sq.Select("refreshed_at", "records").
		From(tableMeta).
		Where(sq.Eq{"id": 1}).
		ToSql()
	if err != nil {
		return time.Time{}, 0, errors.Wrap(err, "build select")
	}

	var (
		at      string
		records int
	)
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&at, &records)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, 0, nil
	}
	if err != nil {
		return time.Time{}, 0, errors.Wrap(err, "select snapshot meta")
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, 0, errors.Wrapf(err, "parse refreshed_at %q", at)
	}
	return t, records, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execBuilder(ctx context.Context, exec execer, b sq.Sqlizer) error {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "build statement")
	}
	_, err = exec.ExecContext(ctx, sqlStr, args...)
	return err
}
