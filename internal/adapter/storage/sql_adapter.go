package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/rl1809/estate-listings/internal/adapter/storage/migrations"
	"github.com/rl1809/estate-listings/internal/core/domain"
)

const (
	DialectMySQL  = "mysql"
	DialectSQLite = "sqlite"
)

// SQLAdapter persists listings through database/sql. The queries use only
// syntax shared by MySQL and SQLite.
type SQLAdapter struct {
	db      *sql.DB
	dialect string
}

func NewMySQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db, dialect: DialectMySQL}
}

func NewSQLiteAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db, dialect: DialectSQLite}
}

// OpenSQLite opens (creating if needed) a SQLite database file and applies
// the schema migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLAdapter, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY on
	// concurrent transactions.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	adapter := NewSQLiteAdapter(db)
	if err := adapter.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return adapter, nil
}

func (a *SQLAdapter) Dialect() string {
	return a.dialect
}

func (a *SQLAdapter) Migrate(ctx context.Context) error {
	if err := ApplyMigrations(ctx, a.db, migrations.FS); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (a *SQLAdapter) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *SQLAdapter) CreateListing(ctx context.Context, listing domain.Listing) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO listings (id, title, description, status, first_published_at, version, created_at, updated_at, updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.ID, listing.Title, listing.Description, string(listing.Status),
		nullableMillis(listing.FirstPublishedAt), listing.Version,
		toMillis(listing.CreatedAt), toMillis(listing.UpdatedAt), listing.UpdatedBy,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("listing %s already exists: %w", listing.ID, domain.ErrInvalidListing)
		}
		return fmt.Errorf("insert listing: %w", err)
	}

	if err := insertImages(ctx, tx, listing.ID, listing.Images); err != nil {
		return err
	}

	return tx.Commit()
}

func (a *SQLAdapter) GetListing(ctx context.Context, listingID string) (domain.Listing, error) {
	listing, err := scanListing(a.db.QueryRowContext(ctx, `
		SELECT id, title, description, status, first_published_at, version, created_at, updated_at, updated_by
		FROM listings WHERE id = ?`, listingID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Listing{}, fmt.Errorf("listing %s: %w", listingID, domain.ErrListingNotFound)
	}
	if err != nil {
		return domain.Listing{}, fmt.Errorf("query listing: %w", err)
	}

	images, err := a.loadImages(ctx, []string{listingID})
	if err != nil {
		return domain.Listing{}, err
	}
	listing.Images = images[listingID]
	if listing.Images == nil {
		listing.Images = []domain.ListingImage{}
	}
	return listing, nil
}

func (a *SQLAdapter) SaveListing(ctx context.Context, listing *domain.Listing) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE listings
		SET title = ?, description = ?, status = ?, first_published_at = ?,
		    version = version + 1, updated_at = ?, updated_by = ?
		WHERE id = ? AND version = ?`,
		listing.Title, listing.Description, string(listing.Status), nullableMillis(listing.FirstPublishedAt),
		toMillis(listing.UpdatedAt), listing.UpdatedBy,
		listing.ID, listing.Version,
	)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		var found int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM listings WHERE id = ?`, listing.ID).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("listing %s: %w", listing.ID, domain.ErrListingNotFound)
		}
		return fmt.Errorf("listing %s at version %d: %w", listing.ID, listing.Version, domain.ErrConcurrencyConflict)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM listing_images WHERE listing_id = ?`, listing.ID); err != nil {
		return fmt.Errorf("clear images: %w", err)
	}
	if err := insertImages(ctx, tx, listing.ID, listing.Images); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit listing: %w", err)
	}
	listing.Version++
	return nil
}

// ListListings pages by id: the token is the last id of the previous page.
func (a *SQLAdapter) ListListings(ctx context.Context, pageSize int, pageToken string) (domain.ListingPage, error) {
	if pageSize <= 0 {
		return domain.ListingPage{}, fmt.Errorf("page size must be greater than zero")
	}

	const columns = `SELECT id, title, description, status, first_published_at, version, created_at, updated_at, updated_by FROM listings`
	var (
		rows *sql.Rows
		err  error
	)
	if pageToken == "" {
		rows, err = a.db.QueryContext(ctx, columns+` ORDER BY id ASC LIMIT ?`, pageSize+1)
	} else {
		rows, err = a.db.QueryContext(ctx, columns+` WHERE id > ? ORDER BY id ASC LIMIT ?`, pageToken, pageSize+1)
	}
	if err != nil {
		return domain.ListingPage{}, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	page := domain.ListingPage{Listings: make([]domain.Listing, 0, pageSize)}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return domain.ListingPage{}, fmt.Errorf("list listings: %w", err)
		}
		page.Listings = append(page.Listings, listing)
	}
	if err := rows.Err(); err != nil {
		return domain.ListingPage{}, fmt.Errorf("list listings: %w", err)
	}
	if len(page.Listings) > pageSize {
		page.NextPageToken = page.Listings[pageSize-1].ID
		page.Listings = page.Listings[:pageSize]
	}

	ids := make([]string, len(page.Listings))
	for i, l := range page.Listings {
		ids[i] = l.ID
	}
	images, err := a.loadImages(ctx, ids)
	if err != nil {
		return domain.ListingPage{}, err
	}
	for i := range page.Listings {
		page.Listings[i].Images = images[page.Listings[i].ID]
		if page.Listings[i].Images == nil {
			page.Listings[i].Images = []domain.ListingImage{}
		}
	}

	return page, nil
}

func (a *SQLAdapter) loadImages(ctx context.Context, listingIDs []string) (map[string][]domain.ListingImage, error) {
	out := make(map[string][]domain.ListingImage, len(listingIDs))
	if len(listingIDs) == 0 {
		return out, nil
	}

	args := make([]any, len(listingIDs))
	for i, id := range listingIDs {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(listingIDs)), ", ")

	rows, err := a.db.QueryContext(ctx, `
		SELECT listing_id, image_id, url, thumbnail_url, sort_order, alt_text, file_size, content_type
		FROM listing_images WHERE listing_id IN (`+placeholders+`)
		ORDER BY listing_id, sort_order ASC`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var listingID string
		var img domain.ListingImage
		if err := rows.Scan(&listingID, &img.ImageID, &img.URL, &img.ThumbnailURL, &img.SortOrder,
			&img.AltText, &img.FileSize, &img.ContentType); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		out[listingID] = append(out[listingID], img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	return out, nil
}

func insertImages(ctx context.Context, tx *sql.Tx, listingID string, images []domain.ListingImage) error {
	for _, img := range images {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO listing_images (listing_id, image_id, url, thumbnail_url, sort_order, alt_text, file_size, content_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			listingID, img.ImageID, img.URL, img.ThumbnailURL, img.SortOrder, img.AltText, img.FileSize, img.ContentType,
		)
		if err != nil {
			return fmt.Errorf("insert image %s: %w", img.ImageID, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (domain.Listing, error) {
	var (
		l              domain.Listing
		status         string
		firstPublished sql.NullInt64
		createdAt      int64
		updatedAt      int64
	)
	if err := row.Scan(&l.ID, &l.Title, &l.Description, &status, &firstPublished, &l.Version,
		&createdAt, &updatedAt, &l.UpdatedBy); err != nil {
		return domain.Listing{}, err
	}

	parsed, ok := domain.ParseListingStatus(status)
	if !ok {
		return domain.Listing{}, fmt.Errorf("listing %s has unknown status %q", l.ID, status)
	}
	l.Status = parsed
	if firstPublished.Valid {
		t := fromMillis(firstPublished.Int64)
		l.FirstPublishedAt = &t
	}
	l.CreatedAt = fromMillis(createdAt)
	l.UpdatedAt = fromMillis(updatedAt)
	return l, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func nullableMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}
