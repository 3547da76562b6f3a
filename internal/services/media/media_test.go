package media

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/princekumarofficial/familybook/internal/config"
)

func TestObjectKey(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_123)

	tests := []struct {
		name string
		file string
		want string
	}{
		{"plain", "beach.jpg", "accounts/7/1700000000123_0a1b2c3d_beach.jpg"},
		{"spaces", "my photo (1).png", "accounts/7/1700000000123_0a1b2c3d_my_photo_1_.png"},
		{"path traversal", "../../etc/passwd", "accounts/7/1700000000123_0a1b2c3d_passwd"},
		{"unicode", "фото.jpg", "accounts/7/1700000000123_0a1b2c3d_jpg"},
		{"empty", "", "accounts/7/1700000000123_0a1b2c3d_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ObjectKey("7", tt.file, at, "0a1b2c3d"); got != tt.want {
				t.Fatalf("ObjectKey(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

func TestServiceObjectKeyIsUnique(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)
	svc := &Service{now: func() time.Time { return at }}

	tests := []struct {
		name   string
		first  string
		second string
	}{
		{"same name", "image.jpg", "image.jpg"},
		{"names that sanitize alike", "a b.jpg", "a_b.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := svc.ObjectKey("7", tt.first)
			b := svc.ObjectKey("7", tt.second)
			if a == b {
				t.Fatalf("expected distinct keys in the same millisecond, both %q", a)
			}
			if !strings.HasPrefix(a, "accounts/7/1700000000000_") {
				t.Fatalf("unexpected key layout %q", a)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	svc := &Service{config: &config.Media{
		MaxFileSize:      100,
		AllowedMimeTypes: []string{"image/jpeg", "video/mp4"},
	}}

	if err := svc.Validate("image/jpeg", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Validate("image/jpeg", 0); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
	if err := svc.Validate("video/mp4", 101); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if err := svc.Validate("application/pdf", 10); !errors.Is(err, ErrContentType) {
		t.Fatalf("expected ErrContentType, got %v", err)
	}
}

func TestPublicURLWithBase(t *testing.T) {
	svc := &Service{publicBase: "https://cdn.example.com"}
	got := svc.PublicURL("photos", "accounts/1/1_a.jpg")
	if got != "https://cdn.example.com/photos/accounts/1/1_a.jpg" {
		t.Fatalf("unexpected url %q", got)
	}
}
