package validation

import (
	"errors"
	"strings"
	"time"
)

// ErrControlChars is returned when temporary text contains a newline or carriage return.
// The eraser returns to column zero with '\r' and cannot reach a previous line.
var ErrControlChars = errors.New("temporary text can't contain a newline or carriage return")

// ErrNegativeDisplayTime is returned when a display time below zero is configured.
var ErrNegativeDisplayTime = errors.New("display time can't be less than 0")

// ErrNegativeWidth is returned when a maximum line width below zero is configured.
var ErrNegativeWidth = errors.New("max width can't be less than 0")

// ValidateText checks text destined for the console. Persistent text is written
// as-is and accepts every character; temporary text must stay on one line.
func ValidateText(text string, persistent bool) error {
	if persistent {
		return nil
	}
	if strings.ContainsAny(text, "\n\r") {
		return ErrControlChars
	}
	return nil
}

// ValidateDisplayTime rejects negative display times. Zero means unset.
func ValidateDisplayTime(d time.Duration) error {
	if d < 0 {
		return ErrNegativeDisplayTime
	}
	return nil
}

// ValidateWidth rejects negative widths. Zero disables truncation.
func ValidateWidth(n int) error {
	if n < 0 {
		return ErrNegativeWidth
	}
	return nil
}
