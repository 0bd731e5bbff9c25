package media

import (
	"context"
	"errors"
	"log/slog"

	"github.com/CTAG07/Verbena/pkg/attachments"
)

// AttachmentSource is the attachment lookup the helpers delegate to.
// *attachments.Store satisfies it.
type AttachmentSource interface {
	Get(ctx context.Context, id int64) (attachments.Attachment, error)
	FindByPath(ctx context.Context, file string) (int64, error)
}

// AttachmentID returns the ID of the attachment whose original file, or one of
// whose size variants, rawURL points at. ok is false when rawURL is outside the
// upload directory or no attachment owns the file.
func (h *Helpers) AttachmentID(ctx context.Context, rawURL string) (id int64, ok bool, err error) {
	rel, err := h.ResolvePath(rawURL)
	if err != nil {
		if errors.Is(err, ErrOutsideUploads) {
			h.logger.DebugContext(ctx, "attachmentID: url outside uploads", slog.String("url", rawURL))
			return 0, false, nil
		}
		return 0, false, err
	}

	id, err = h.source.FindByPath(ctx, rel)
	if err != nil {
		if errors.Is(err, attachments.ErrNotFound) {
			h.logger.DebugContext(ctx, "attachmentID: no attachment owns file", slog.String("path", rel))
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}

// AttachmentURL returns the public URL of the named size of an attachment.
// Unknown size names resolve to the original file. ok is false when the
// attachment does not exist.
func (h *Helpers) AttachmentURL(ctx context.Context, id int64, size string) (u string, ok bool, err error) {
	a, ok, err := h.attachment(ctx, id)
	if err != nil || !ok {
		return "", ok, err
	}
	u, err = h.fileURL(a.Variant(size).File)
	if err != nil {
		return "", false, err
	}
	return u, true, nil
}

// attachment loads an attachment, reporting a missing or non-positive ID as
// ok == false rather than as an error.
func (h *Helpers) attachment(ctx context.Context, id int64) (attachments.Attachment, bool, error) {
	if id <= 0 {
		return attachments.Attachment{}, false, nil
	}
	a, err := h.source.Get(ctx, id)
	if err != nil {
		if errors.Is(err, attachments.ErrNotFound) {
			h.logger.DebugContext(ctx, "attachment not found", slog.Int64("attachment_id", id))
			return attachments.Attachment{}, false, nil
		}
		return attachments.Attachment{}, false, err
	}
	return a, true, nil
}
