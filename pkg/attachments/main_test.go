package attachments

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestStore creates a new SQLite database in a temp dir and a Store for testing.
// It uses t.Cleanup to ensure resources are released.
func setupTestStore(t *testing.T) (*sql.DB, *Store) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(s.Close)

	return db, s
}

// sampleAttachment is a landscape photo with three pre-generated sizes.
func sampleAttachment() Attachment {
	return Attachment{
		File:     "2024/05/harbour.jpg",
		MimeType: "image/jpeg",
		Width:    2400,
		Height:   1600,
		Alt:      "Boats in the harbour",
		Title:    "Harbour",
		Sizes: []Size{
			{Name: "thumbnail", File: "2024/05/harbour-150x150.jpg", Width: 150, Height: 150},
			{Name: "medium", File: "2024/05/harbour-300x200.jpg", Width: 300, Height: 200},
			{Name: "large", File: "2024/05/harbour-1024x683.jpg", Width: 1024, Height: 683},
		},
	}
}

// setupTestStoreWithSample is a convenience helper that also inserts sampleAttachment.
func setupTestStoreWithSample(t *testing.T) (context.Context, *Store, int64) {
	_, s := setupTestStore(t)
	ctx := context.Background()
	id, err := s.Insert(ctx, sampleAttachment())
	if err != nil {
		t.Fatalf("setup: Insert() failed: %v", err)
	}
	return ctx, s, id
}
