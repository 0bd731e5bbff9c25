package attachments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when no attachment matches a lookup.
	ErrNotFound = errors.New("attachment not found")

	// ErrInvalid is returned by Insert for records that fail validation.
	ErrInvalid = errors.New("invalid attachment")
)

// SetupSchema creates the attachment tables in the provided database. It is
// idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaAttachments = `
CREATE TABLE IF NOT EXISTS attachments (
    attachment_id INTEGER PRIMARY KEY,
    file_path     TEXT    NOT NULL UNIQUE,
    mime_type     TEXT    NOT NULL,
    width         INTEGER NOT NULL DEFAULT 0,
    height        INTEGER NOT NULL DEFAULT 0,
    alt_text      TEXT    NOT NULL DEFAULT '',
    title         TEXT    NOT NULL DEFAULT ''
);
`
		schemaSizes = `
CREATE TABLE IF NOT EXISTS attachment_sizes (
    attachment_id INTEGER NOT NULL,
    size_name     TEXT    NOT NULL,
    file_path     TEXT    NOT NULL,
    width         INTEGER NOT NULL DEFAULT 0,
    height        INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (attachment_id, size_name)
);
CREATE INDEX IF NOT EXISTS idx_attachment_sizes_file ON attachment_sizes (file_path);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaAttachments); err != nil {
		return fmt.Errorf("could not create attachments schema: %w", err)
	}
	if _, err = tx.Exec(schemaSizes); err != nil {
		return fmt.Errorf("could not create sizes schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// Store reads and writes attachment records. It holds prepared statements for
// the lookups that run on every render, and is safe for concurrent use.
type Store struct {
	db             *sql.DB
	stmtGet        *sql.Stmt
	stmtGetSizes   *sql.Stmt
	stmtFindByFile *sql.Stmt
	stmtList       *sql.Stmt
	logger         *slog.Logger
}

// NewStore prepares the statements used by the Store. SetupSchema must have
// been called on db beforehand.
func NewStore(db *sql.DB) (*Store, error) {
	stmtGet, err := db.Prepare(`SELECT file_path, mime_type, width, height, alt_text, title FROM attachments WHERE attachment_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetSizes, err := db.Prepare(`SELECT size_name, file_path, width, height FROM attachment_sizes WHERE attachment_id = ? ORDER BY width, size_name;`)
	if err != nil {
		return nil, err
	}

	stmtFindByFile, err := db.Prepare(`
SELECT attachment_id FROM attachments WHERE file_path = ?1
UNION ALL
SELECT attachment_id FROM attachment_sizes WHERE file_path = ?1
LIMIT 1;`)
	if err != nil {
		return nil, err
	}

	stmtList, err := db.Prepare(`SELECT attachment_id FROM attachments ORDER BY attachment_id;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:             db,
		stmtGet:        stmtGet,
		stmtGetSizes:   stmtGetSizes,
		stmtFindByFile: stmtFindByFile,
		stmtList:       stmtList,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases the prepared statements held by the Store.
func (s *Store) Close() {
	_ = s.stmtGet.Close()
	_ = s.stmtGetSizes.Close()
	_ = s.stmtFindByFile.Close()
	_ = s.stmtList.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Insert stores a new attachment and its sizes in one transaction and returns
// the assigned ID. A non-zero a.ID is used as the ID instead of letting the
// database assign one.
func (s *Store) Insert(ctx context.Context, a Attachment) (int64, error) {
	if err := validate(a); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var id int64
	if a.ID > 0 {
		err = tx.QueryRowContext(ctx,
			`INSERT INTO attachments (attachment_id, file_path, mime_type, width, height, alt_text, title) VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING attachment_id`,
			a.ID, cleanFile(a.File), a.MimeType, a.Width, a.Height, a.Alt, a.Title).Scan(&id)
	} else {
		err = tx.QueryRowContext(ctx,
			`INSERT INTO attachments (file_path, mime_type, width, height, alt_text, title) VALUES (?, ?, ?, ?, ?, ?) RETURNING attachment_id`,
			cleanFile(a.File), a.MimeType, a.Width, a.Height, a.Alt, a.Title).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert attachment %q: %w", a.File, err)
	}

	for _, size := range a.Sizes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO attachment_sizes (attachment_id, size_name, file_path, width, height) VALUES (?, ?, ?, ?, ?)`,
			id, size.Name, cleanFile(size.File), size.Width, size.Height)
		if err != nil {
			return 0, fmt.Errorf("failed to insert size %q for attachment %d: %w", size.Name, id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit attachment: %w", err)
	}

	s.logger.InfoContext(ctx, "Attachment inserted",
		slog.Int64("attachment_id", id),
		slog.String("file", a.File),
		slog.Int("sizes", len(a.Sizes)),
	)
	return id, nil
}

// Get returns the attachment with the given ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (Attachment, error) {
	a := Attachment{ID: id}
	err := s.stmtGet.QueryRowContext(ctx, id).Scan(&a.File, &a.MimeType, &a.Width, &a.Height, &a.Alt, &a.Title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attachment{}, ErrNotFound
		}
		return Attachment{}, err
	}

	rows, err := s.stmtGetSizes.QueryContext(ctx, id)
	if err != nil {
		return Attachment{}, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	for rows.Next() {
		var size Size
		if err = rows.Scan(&size.Name, &size.File, &size.Width, &size.Height); err != nil {
			return Attachment{}, err
		}
		a.Sizes = append(a.Sizes, size)
	}
	if err = rows.Err(); err != nil {
		return Attachment{}, err
	}
	return a, nil
}

// FindByPath returns the ID of the attachment that owns file, either as its
// original or as one of its size variants. file is relative to the upload
// directory. ErrNotFound is returned when no attachment owns it.
func (s *Store) FindByPath(ctx context.Context, file string) (int64, error) {
	var id int64
	err := s.stmtFindByFile.QueryRowContext(ctx, cleanFile(file)).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return id, nil
}

// List returns every attachment ordered by ID.
func (s *Store) List(ctx context.Context) ([]Attachment, error) {
	rows, err := s.stmtList.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	_ = rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Attachment, 0, len(ids))
	for _, id := range ids {
		a, err := s.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load attachment %d: %w", id, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// Delete removes an attachment record and its sizes. It returns ErrNotFound
// when nothing was deleted.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx, "DELETE FROM attachment_sizes WHERE attachment_id = ?", id); err != nil {
		return fmt.Errorf("failed to remove sizes for attachment %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM attachments WHERE attachment_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to remove attachment %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	s.logger.InfoContext(ctx, "Attachment removed", slog.Int64("attachment_id", id))
	return tx.Commit()
}

func validate(a Attachment) error {
	if strings.TrimSpace(a.File) == "" {
		return fmt.Errorf("%w: file is required", ErrInvalid)
	}
	if a.MimeType == "" {
		return fmt.Errorf("%w: %q has no mime type", ErrInvalid, a.File)
	}
	if a.Width < 0 || a.Height < 0 {
		return fmt.Errorf("%w: %q has negative dimensions %dx%d", ErrInvalid, a.File, a.Width, a.Height)
	}
	seen := make(map[string]struct{}, len(a.Sizes))
	for _, size := range a.Sizes {
		if size.Name == "" || size.Name == FullSize {
			return fmt.Errorf("%w: %q has an invalid size name %q", ErrInvalid, a.File, size.Name)
		}
		if _, dup := seen[size.Name]; dup {
			return fmt.Errorf("%w: %q has duplicate size %q", ErrInvalid, a.File, size.Name)
		}
		if strings.TrimSpace(size.File) == "" {
			return fmt.Errorf("%w: size %q of %q has no file", ErrInvalid, size.Name, a.File)
		}
		if size.Width < 0 || size.Height < 0 {
			return fmt.Errorf("%w: size %q of %q has negative dimensions %dx%d", ErrInvalid, size.Name, a.File, size.Width, size.Height)
		}
		seen[size.Name] = struct{}{}
	}
	return nil
}

// cleanFile normalizes a stored path so lookups match regardless of leading
// slashes or redundant segments.
func cleanFile(file string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(file)), "/")
}
