package waybill

import (
	"context"
	"errors"
	"testing"
)

func TestExtractJSONFromMarkdown(t *testing.T) {
	want := `{"title":"Books"}`
	inputs := []string{
		"```json\n" + want + "\n```",
		"```\n" + want + "\n```",
		"  " + want + "  ",
	}
	for _, in := range inputs {
		if got := extractJSONFromMarkdown(in); got != want {
			t.Errorf("extractJSONFromMarkdown(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsValidImageType(t *testing.T) {
	for _, ok := range []string{"image/jpeg", "image/png", "image/webp"} {
		if !IsValidImageType(ok) {
			t.Errorf("%s should be accepted", ok)
		}
	}
	for _, bad := range []string{"application/pdf", "image/gif", ""} {
		if IsValidImageType(bad) {
			t.Errorf("%s should be rejected", bad)
		}
	}
}

func TestParse(t *testing.T) {
	p := &Parser{generate: func(_ context.Context, image []byte, mimeType string) (string, error) {
		if mimeType != "image/png" || len(image) == 0 {
			t.Errorf("unexpected input %s (%d bytes)", mimeType, len(image))
		}
		return "```json\n{\"title\":\"Laptop\",\"parcel_type\":\"Non Document\",\"weight\":2.5,\"sender_center\":\"Dhaka\"}\n```", nil
	}}

	draft, err := p.Parse(context.Background(), []byte{1, 2, 3}, "image/png")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if draft.Title != "Laptop" || draft.Weight != 2.5 || draft.SenderCenter != "Dhaka" {
		t.Errorf("unexpected draft %+v", draft)
	}
	if draft.ParcelType != "non-document" {
		t.Errorf("ParcelType = %q, want non-document", draft.ParcelType)
	}
}

func TestParseErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	tests := []struct {
		name string
		text string
		err  error
	}{
		{"model error", "", boom},
		{"empty answer", "   ", nil},
		{"not json", "I cannot read this image", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Parser{generate: func(context.Context, []byte, string) (string, error) {
				return tt.text, tt.err
			}}
			if _, err := p.Parse(context.Background(), []byte{1}, "image/png"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewParserRequiresKey(t *testing.T) {
	if _, err := NewParser(context.Background(), "", "gemini-2.5-flash"); err == nil {
		t.Error("expected error without API key")
	}
}
