package utils

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"proshift/httpServices/identity"
	"proshift/types"
)

// LocalsClaimsKey is where the identity middleware stores *identity.Claims
const LocalsClaimsKey = "decoded"

// NormalizeEmail lower-cases and trims an email for storage and comparison
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsOwner reports whether the verified email owns a resource stored under ownerEmail
func IsOwner(verifiedEmail, ownerEmail string) bool {
	v := NormalizeEmail(verifiedEmail)
	return v != "" && v == NormalizeEmail(ownerEmail)
}

// GenerateTrackingID returns an id like PRS-20250610-1A2B3C4D
func GenerateTrackingID(at time.Time) string {
	short := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("PRS-%s-%s", at.Format("20060102"), short)
}

func StringPtr(s string) *string {
	return &s
}

// Claims returns the verified identity attached by the identity middleware
func Claims(c *fiber.Ctx) (*identity.Claims, bool) {
	claims, ok := c.Locals(LocalsClaimsKey).(*identity.Claims)
	return claims, ok && claims != nil
}

// CallerEmail is the normalized email of the verified caller, or "" when unauthenticated
func CallerEmail(c *fiber.Ctx) string {
	if claims, ok := Claims(c); ok {
		return NormalizeEmail(claims.Email)
	}
	return ""
}

// sanitizeRequestBody sanitizes request body for file uploads and large content
func sanitizeRequestBody(c *fiber.Ctx) string {
	contentType := c.Get("Content-Type")
	if strings.Contains(contentType, "multipart/form-data") {
		formData := make(map[string]interface{})

		if form, err := c.MultipartForm(); err == nil {
			for key, values := range form.Value {
				if len(values) > 0 {
					formData[key] = values[0]
				}
			}

			// Keep file metadata only
			for key, files := range form.File {
				fileInfo := make([]map[string]interface{}, len(files))
				for i, file := range files {
					fileInfo[i] = map[string]interface{}{
						"filename": file.Filename,
						"size":     file.Size,
						"content":  "[FILE_CONTENT_REMOVED]",
					}
				}
				formData[key] = fileInfo
			}
		}

		if jsonBytes, err := json.Marshal(formData); err == nil {
			return string(jsonBytes)
		}
		return "[MULTIPART_FORM_DATA]"
	}

	body := string(c.Body())
	if len(body) > 1000 && (strings.Contains(body, "data:image/") ||
		strings.Contains(body, "base64") ||
		isLikelyBase64(body)) {
		return "[LARGE_REQUEST_BODY_WITH_POSSIBLE_FILE_CONTENT]"
	}

	return body
}

// isLikelyBase64 detects if content looks like base64
func isLikelyBase64(content string) bool {
	if len(content) < 100 {
		return false
	}

	base64Chars := 0
	for _, char := range content {
		if (char >= 'A' && char <= 'Z') ||
			(char >= 'a' && char <= 'z') ||
			(char >= '0' && char <= '9') ||
			char == '+' || char == '/' || char == '=' {
			base64Chars++
		}
	}

	return float64(base64Chars)/float64(len(content)) > 0.8
}

// requestHeaders renders the request headers with the bearer token masked
func requestHeaders(c *fiber.Ctx) string {
	var b strings.Builder
	c.Request().Header.VisitAll(func(key, value []byte) {
		k := string(key)
		v := string(value)
		if strings.EqualFold(k, fiber.HeaderAuthorization) || strings.EqualFold(k, fiber.HeaderCookie) {
			v = "[REDACTED]"
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	})
	return b.String()
}

// CreateSanitizedLogEntry copies everything the async logger needs out of the
// request context, since fiber reuses the context after the handler returns.
func CreateSanitizedLogEntry(c *fiber.Ctx) types.LogEntry {
	responseHeaders := make([]byte, len(c.Response().Header.Header()))
	copy(responseHeaders, c.Response().Header.Header())

	return types.LogEntry{
		Method:          string([]byte(c.Method())),
		URL:             string([]byte(c.OriginalURL())),
		RequestBody:     sanitizeRequestBody(c),
		ResponseBody:    string(append([]byte(nil), c.Response().Body()...)),
		RequestHeaders:  requestHeaders(c),
		ResponseHeaders: string(responseHeaders),
		StatusCode:      c.Response().StatusCode(),
		UserEmail:       CallerEmail(c),
		CreatedAt:       time.Now(),
	}
}
