// Package delivery sends rendered reports through an email transport,
// or hands them back to the caller when no transport is configured.
package delivery

import (
	"regexp"
	"strings"

	"github.com/abhimit04/job-new-agent/internal/model"
)

// local@domain.tld shape. Syntactic gate only: the transport does its
// own validation, but malformed addresses must be rejected before any
// transport call happens.
var addressRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateAddress checks that addr is local@domain.tld shaped.
// Returns the trimmed address or model.ErrInvalidRecipient.
func ValidateAddress(addr string) (string, error) {
	trimmed := strings.TrimSpace(addr)
	if !addressRegex.MatchString(trimmed) {
		return "", model.ErrInvalidRecipient
	}
	return trimmed, nil
}
