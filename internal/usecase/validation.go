package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fieldhq/lead-dispatch/internal/geo"
)

// Input limits, matching what the ingestion sources are allowed to carry.
const (
	MaxQueryLength = 200
	MaxNameLength  = 500
	MaxPhoneLength = 20
	MaxEmailLength = 100
)

var (
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{6,20}$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// sanitizeString strips control characters and enforces a length cap.
func sanitizeString(text string, maxLength int) string {
	cleaned := controlChars.ReplaceAllString(text, "")
	if len(cleaned) > maxLength {
		cleaned = cleaned[:maxLength]
	}
	return strings.TrimSpace(cleaned)
}

func isValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.TrimSpace(phone))
}

func isValidEmail(email string) bool {
	return emailPattern.MatchString(strings.ToLower(strings.TrimSpace(email)))
}

func isValidCoordinate(lat, lon float64) bool {
	return geo.Coordinate{Lat: lat, Lon: lon}.Valid()
}

// parseSkills splits a comma-separated skills field into normalized tokens.
func parseSkills(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
