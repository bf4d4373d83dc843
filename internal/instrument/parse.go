package instrument

import (
	"math"
	"strconv"
	"strings"
)

// ParseFunc turns a raw reply into a number.
type ParseFunc func(raw []byte) (float64, error)

// ParseDistance accepts a reply holding exactly one decimal number,
// optionally surrounded by whitespace and line terminators.
func ParseDistance(raw []byte) (float64, error) {
	return parseNumber(string(raw), strings.TrimSpace(string(raw)))
}

// ParseFirstLine parses the number before the first line break.
// The interferometer appends status lines to some replies.
func ParseFirstLine(raw []byte) (float64, error) {
	text := strings.TrimLeft(string(raw), " \t\r\n")
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		text = text[:i]
	}

	return parseNumber(string(raw), strings.TrimSpace(text))
}

func parseNumber(raw, text string) (float64, error) {
	if text == "" {
		return 0, &ParseError{Response: raw, Err: ErrEmptyResponse}
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, &ParseError{Response: raw, Err: err}
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &ParseError{Response: raw, Err: ErrNotFinite}
	}

	return value, nil
}
