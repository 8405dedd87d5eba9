// Package persistence contains helpers shared by record store implementations.
package persistence

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/Rob190501/iWalk/internal/domain"
)

const cursorLayout = "2006-01-02"

// EncodeCursor serialises the cursor to a string token.
func EncodeCursor(c *domain.Cursor) string {
	if c == nil {
		return ""
	}
	raw := "day|" + c.Date.UTC().Format(cursorLayout)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses the encoded cursor token. An empty token yields a nil cursor.
func DecodeCursor(token string) (*domain.Cursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[0] != "day" {
		return nil, fmt.Errorf("invalid cursor format")
	}
	day, err := time.Parse(cursorLayout, parts[1])
	if err != nil {
		return nil, err
	}
	return &domain.Cursor{Date: day}, nil
}

// ClampLimit bounds page sizes requested by callers.
func ClampLimit(limit, fallback, max int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}
