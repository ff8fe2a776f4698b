package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?1?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}`)
)

// Redact replaces emails with [EMAIL] and phone numbers with [PHONE], then
// cuts the result to max runes (max <= 0 keeps everything). Names are kept.
func Redact(text string, max int) string {
	text = emailRe.ReplaceAllString(text, "[EMAIL]")
	text = phoneRe.ReplaceAllString(text, "[PHONE]")
	if max > 0 {
		if r := []rune(text); len(r) > max {
			return string(r[:max]) + "..."
		}
	}
	return text
}

// Fingerprint returns a short stable hash of a contact value so records can
// be correlated in logs without printing the value.
func Fingerprint(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:6])
}
