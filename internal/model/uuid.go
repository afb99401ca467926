package model

import (
	"encoding/base32"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateShortID generates a short, URL-safe tree ID using UUID v4 encoded in base32.
func GenerateShortID() string {
	id := uuid.New()
	// 16 bytes -> 26 base32 characters
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(id[:])
	return strings.ToLower(encoded)
}

// ValidateTreeID reports whether id looks like a tree identifier.
// Short IDs, UUIDs and the numeric IDs of older hosted records are all accepted.
func ValidateTreeID(id string) bool {
	if len(id) == 0 || len(id) > 64 {
		return false
	}
	for _, c := range id {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_') {
			return false
		}
	}
	return true
}

// NewToken returns an opaque course or resource identifier: a prefix, the
// current Unix milliseconds, and a short random suffix. Collisions are
// possible but negligible.
func NewToken(prefix string) string {
	suffix, err := gonanoid.Generate(tokenAlphabet, 6)
	if err != nil {
		suffix = strconv.FormatInt(time.Now().UnixNano()%1_000_000, 36)
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), suffix)
}

// NormalizeID converts an identifier that may arrive as a number or a string
// into its canonical string form. All identifier comparisons go through it.
func NormalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return normalizeNumber(id.String())
	case int:
		return strconv.Itoa(id)
	case int32:
		return strconv.FormatInt(int64(id), 10)
	case int64:
		return strconv.FormatInt(id, 10)
	case uint:
		return strconv.FormatUint(uint64(id), 10)
	case uint32:
		return strconv.FormatUint(uint64(id), 10)
	case uint64:
		return strconv.FormatUint(id, 10)
	case float32:
		return formatFloat(float64(id))
	case float64:
		return formatFloat(id)
	case fmt.Stringer:
		return strings.TrimSpace(id.String())
	default:
		return strings.TrimSpace(fmt.Sprint(id))
	}
}

func normalizeNumber(s string) string {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return formatFloat(f)
	}
	return s
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
