package utils

import (
	"io"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"proshift/httpServices/identity"
	"proshift/types"
)

func TestIsOwner(t *testing.T) {
	tests := []struct {
		verified, owner string
		want            bool
	}{
		{"a@b.com", "a@b.com", true},
		{"A@B.com ", "a@b.com", true},
		{"a@b.com", "c@d.com", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := IsOwner(tt.verified, tt.owner); got != tt.want {
			t.Errorf("IsOwner(%q, %q) = %v, want %v", tt.verified, tt.owner, got, tt.want)
		}
	}
}

func TestGenerateTrackingID(t *testing.T) {
	at := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	id := GenerateTrackingID(at)
	if !regexp.MustCompile(`^PRS-20250610-[0-9A-F]{8}$`).MatchString(id) {
		t.Errorf("unexpected tracking id %q", id)
	}
	if id == GenerateTrackingID(at) {
		t.Error("expected distinct ids")
	}
}

func TestIsLikelyBase64(t *testing.T) {
	if isLikelyBase64("short") {
		t.Error("short strings are never base64")
	}
	if !isLikelyBase64(strings.Repeat("QUJD", 50)) {
		t.Error("expected base64 detection")
	}
	if isLikelyBase64(strings.Repeat("{\"a\": [1, 2], ", 20)) {
		t.Error("json should not look like base64")
	}
}

func TestCreateSanitizedLogEntry(t *testing.T) {
	var entry types.LogEntry
	app := fiber.New()
	app.Post("/parcels", func(c *fiber.Ctx) error {
		c.Locals(LocalsClaimsKey, &identity.Claims{Email: "Owner@Example.com"})
		if err := c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true}); err != nil {
			return err
		}
		entry = CreateSanitizedLogEntry(c)
		return nil
	})

	req := httptest.NewRequest("POST", "/parcels?x=1", strings.NewReader(`{"title":"Box"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret-token")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	_, _ = io.ReadAll(resp.Body)

	if entry.Method != "POST" || entry.URL != "/parcels?x=1" {
		t.Errorf("unexpected method/url: %s %s", entry.Method, entry.URL)
	}
	if entry.StatusCode != fiber.StatusCreated {
		t.Errorf("StatusCode = %d", entry.StatusCode)
	}
	if entry.RequestBody != `{"title":"Box"}` {
		t.Errorf("RequestBody = %q", entry.RequestBody)
	}
	if strings.Contains(entry.RequestHeaders, "secret-token") {
		t.Error("bearer token leaked into log entry")
	}
	if entry.UserEmail != "owner@example.com" {
		t.Errorf("UserEmail = %q", entry.UserEmail)
	}
}
