package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

const cursorPrefix = "id:"

var errCursorFormat = errors.New("invalid cursor format")

// Params carries the raw limit and cursor a client sent.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the last row of the previous page. Listings are ordered by
// id descending, so the next page starts strictly below ID.
type Cursor struct {
	ID uint64
}

// Window is the resolved query range for one page.
type Window struct {
	BeforeID uint64
	Limit    int
}

// Fetch is the row count to request: one extra row reveals whether another
// page exists.
func (w Window) Fetch() int {
	return w.Limit + 1
}

// Resolve clamps the limit and decodes the cursor.
func (p Params) Resolve() (Window, error) {
	w := Window{Limit: NormalizeLimit(p.Limit)}
	cursor, err := ParseCursor(p.Cursor)
	if err != nil {
		return Window{}, err
	}
	if cursor != nil {
		w.BeforeID = cursor.ID
	}
	return w, nil
}

// Trim cuts rows down to the window limit and returns the cursor for the
// following page, or "" when rows is the last page.
func Trim[T any](w Window, rows []T, id func(T) uint64) ([]T, string) {
	if len(rows) <= w.Limit {
		return rows, ""
	}
	rows = rows[:w.Limit]
	return rows, EncodeCursor(Cursor{ID: id(rows[len(rows)-1])})
}

func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func EncodeCursor(cursor Cursor) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatUint(cursor.ID, 10)))
}

// ParseCursor returns nil for a blank value.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	raw, ok := strings.CutPrefix(string(decoded), cursorPrefix)
	if !ok {
		return nil, errCursorFormat
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, errCursorFormat
	}
	return &Cursor{ID: id}, nil
}
