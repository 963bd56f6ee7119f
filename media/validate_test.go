package media

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateUploadSizeBoundary(t *testing.T) {
	if err := ValidateUpload("image", "exact.jpg", MaxUploadBytes, 0); err != nil {
		t.Fatalf("exactly 20MiB should be accepted: %v", err)
	}

	err := ValidateUpload("image", "big.jpg", MaxUploadBytes+1, 0)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if !strings.Contains(vErr.Message, "Dimensiunea curentă: 20.0MB") {
		t.Errorf("message should name the actual size, got %q", vErr.Message)
	}
	if vErr.Field != "image" {
		t.Errorf("Field = %q", vErr.Field)
	}
}

func TestValidateUploadExtensions(t *testing.T) {
	for _, name := range []string{"a.jpg", "a.JPG", "a.jpeg", "a.Png", "a.webp"} {
		if err := ValidateUpload("image", name, 10, 0); err != nil {
			t.Errorf("%s rejected: %v", name, err)
		}
	}
	for _, name := range []string{"a.gif", "a.tiff", "a", "a.jpg.exe"} {
		var vErr *ValidationError
		if err := ValidateUpload("image", name, 10, 0); !errors.As(err, &vErr) {
			t.Errorf("%s accepted, want ValidationError", name)
		}
	}
}

func TestValidateUploadCustomLimit(t *testing.T) {
	limit := int64(5 * 1024 * 1024)
	if err := ValidateUpload("image", "a.jpg", limit, limit); err != nil {
		t.Fatalf("limit should be inclusive: %v", err)
	}
	if err := ValidateUpload("image", "a.jpg", limit+1, limit); err == nil {
		t.Fatal("expected rejection above custom limit")
	}
}
