package utils

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/microcosm-cc/bluemonday"
)

// Size limits (in bytes)
const (
	MaxPayloadSize  = 256 * 1024 // Launch payloads and data updates
	MaxPayloadDepth = 20
)

// String length limits
const (
	MaxIDLength          = 128
	MaxTitleLength       = 256
	MaxPathLength        = 2048
	MaxNameLength        = 256
	MaxDescriptionLength = 2048
	MaxGeometry          = 100_000
)

var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	titlePolicy = bluemonday.StrictPolicy()
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidatePath validates a deep-link initial path hint
func ValidatePath(path string) error {
	if err := ValidateString(path, "initialPath", 0, MaxPathLength, false); err != nil {
		return err
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		return fmt.Errorf("initialPath must start with '/'")
	}
	return nil
}

// ValidateGeometry rejects negative sizes and absurd coordinates
func ValidateGeometry(x, y, width, height *int) error {
	for name, v := range map[string]*int{"x": x, "y": y} {
		if v != nil && (*v > MaxGeometry || *v < -MaxGeometry) {
			return fmt.Errorf("%s out of range", name)
		}
	}
	for name, v := range map[string]*int{"width": width, "height": height} {
		if v != nil && (*v < 0 || *v > MaxGeometry) {
			return fmt.Errorf("%s out of range", name)
		}
	}
	return nil
}

// ValidatePayload checks that an opaque payload is serializable, small and shallow
func ValidatePayload(payload any) error {
	if payload == nil {
		return nil
	}
	data, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("payload is not serializable: %w", err)
	}
	if len(data) > MaxPayloadSize {
		return fmt.Errorf("payload size %d bytes exceeds maximum %d bytes", len(data), MaxPayloadSize)
	}
	return ValidateJSONDepth(payload, MaxPayloadDepth)
}

// ValidateJSONDepth checks if JSON nesting depth is within limits
func ValidateJSONDepth(data any, maxDepth int) error {
	return checkDepth(data, 0, maxDepth)
}

func checkDepth(data any, currentDepth int, maxDepth int) error {
	if currentDepth > maxDepth {
		return fmt.Errorf("JSON nesting depth %d exceeds maximum %d", currentDepth, maxDepth)
	}

	switch v := data.(type) {
	case map[string]any:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	case []any:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	}

	return nil
}

// SanitizeTitle strips markup from a user supplied window title and bounds its length
func SanitizeTitle(title string) string {
	clean := strings.TrimSpace(html.UnescapeString(titlePolicy.Sanitize(title)))
	if utf8.RuneCountInString(clean) > MaxTitleLength {
		clean = string([]rune(clean)[:MaxTitleLength])
	}
	return clean
}
