package waybill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	parcelTypes "proshift/types/parcel"
)

// MaxImageSize is the largest waybill photo accepted (10MB)
const MaxImageSize = 10 * 1024 * 1024

const prompt = `Analyze this parcel waybill or handwritten delivery note and extract the following information. Return ONLY valid JSON.

If a field is missing or unclear, use an empty string (or 0 for weight).

Required JSON format:
{
"title": string,            // Short description of the parcel contents
"parcel_type": string,      // "document" or "non-document"
"weight": number,           // Weight in kg
"sender_name": string,
"sender_contact": string,   // Sender phone number
"sender_region": string,
"sender_center": string,    // Pickup service center
"sender_address": string,   // Combine address lines into a single readable string
"receiver_name": string,
"receiver_contact": string,
"receiver_region": string,
"receiver_center": string,
"receiver_address": string
}`

var ErrEmptyResponse = errors.New("no content generated by OCR")

// generateFunc sends the prompt and image to the model and returns its text answer
type generateFunc func(ctx context.Context, image []byte, mimeType string) (string, error)

// Parser turns a waybill photo into a draft parcel using a Gemini vision model
type Parser struct {
	generate generateFunc
}

// NewParser creates the Gemini client once; it is safe for concurrent use
func NewParser(ctx context.Context, apiKey, model string) (*Parser, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Parser{generate: func(ctx context.Context, image []byte, mimeType string) (string, error) {
		content := &genai.Content{
			Parts: []*genai.Part{
				{Text: prompt},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
			},
		}

		result, err := client.Models.GenerateContent(ctx, model, []*genai.Content{content}, &genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0.1)),
		})
		if err != nil {
			return "", fmt.Errorf("failed to generate content with OCR: %w", err)
		}
		if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
			return "", ErrEmptyResponse
		}
		return result.Candidates[0].Content.Parts[0].Text, nil
	}}, nil
}

// Parse extracts a draft parcel from an image
func (p *Parser) Parse(ctx context.Context, image []byte, mimeType string) (*parcelTypes.WaybillDraft, error) {
	text, err := p.generate(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	jsonText := extractJSONFromMarkdown(text)
	var draft parcelTypes.WaybillDraft
	if err := json.Unmarshal([]byte(jsonText), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	draft.ParcelType = normalizeParcelType(draft.ParcelType)
	return &draft, nil
}

// IsValidImageType checks if the provided content type is an accepted image type
func IsValidImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/jpg", "image/png", "image/webp":
		return true
	default:
		return false
	}
}

// extractJSONFromMarkdown strips a ```json fence if the model added one
func extractJSONFromMarkdown(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") && strings.HasSuffix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) > 2 {
			return strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	return text
}

func normalizeParcelType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "document":
		return "document"
	case "non-document", "non document", "nondocument", "parcel":
		return "non-document"
	default:
		return ""
	}
}
