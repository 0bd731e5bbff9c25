package attachments

import "testing"

func TestAttachment_Variant(t *testing.T) {
	a := sampleAttachment()

	if v := a.Variant("medium"); v.File != "2024/05/harbour-300x200.jpg" || v.Width != 300 {
		t.Errorf("Variant(medium) = %+v", v)
	}
	for _, name := range []string{FullSize, "", "does-not-exist"} {
		if v := a.Variant(name); v.Name != FullSize || v.File != a.File {
			t.Errorf("Variant(%q) should fall back to the full size, got %+v", name, v)
		}
	}
}

func TestAttachment_Variants(t *testing.T) {
	vs := sampleAttachment().Variants()
	if len(vs) != 4 {
		t.Fatalf("expected 4 variants, got %d", len(vs))
	}
	for i := 1; i < len(vs); i++ {
		if vs[i-1].Width > vs[i].Width {
			t.Errorf("variants not ordered by width: %+v", vs)
		}
	}
	if vs[3].Name != FullSize {
		t.Errorf("widest variant should be the full size, got %q", vs[3].Name)
	}
}

func TestAttachment_IsImage(t *testing.T) {
	if !(Attachment{MimeType: "image/svg+xml"}).IsImage() {
		t.Error("svg should be an image")
	}
	if (Attachment{MimeType: "application/pdf"}).IsImage() {
		t.Error("pdf should not be an image")
	}
}
