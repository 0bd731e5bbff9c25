package attachments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

// Manifest is the serializable form of a set of attachments, used to seed a
// database from a JSON file or to back one up.
type Manifest struct {
	Attachments []Attachment `json:"attachments"`
}

// Export writes every attachment in the store to w as an indented JSON Manifest.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	all, err := s.List(ctx)
	if err != nil {
		return fmt.Errorf("could not list attachments for export: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err = enc.Encode(Manifest{Attachments: all}); err != nil {
		return fmt.Errorf("could not encode manifest: %w", err)
	}
	return nil
}

// Import reads a JSON Manifest from r and inserts each attachment. Attachments
// whose ID is set keep it. Import stops at the first failing record and
// returns how many were inserted before it.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return 0, fmt.Errorf("could not decode manifest: %w", err)
	}

	for i, a := range m.Attachments {
		if _, err := s.Insert(ctx, a); err != nil {
			return i, err
		}
	}

	s.logger.InfoContext(ctx, "Manifest imported", slog.Int("count", len(m.Attachments)))
	return len(m.Attachments), nil
}
