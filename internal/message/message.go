// package message contains the pure per-recipient transforms: phone
// normalization into a sendable address and template personalization.
package message

import (
	"strings"

	"github.com/desertthunder/wabridge/internal/shared"
)

// AddressSuffix is the recipient-domain suffix the send capability requires.
const AddressSuffix = "@s.whatsapp.net"

// defaultCountryCode is prepended to bare 10-digit numbers. This is a policy
// choice inherited from the spreadsheet's audience (Indian mobile numbers),
// not a general E.164 rule.
const defaultCountryCode = "91"

// NormalizePhone converts a raw spreadsheet phone cell into a canonical
// recipient address.
//
// The value is trimmed, stripped of every character that is not a digit or a
// leading '+', the '+' is dropped, bare 10-digit numbers get the default
// country code, and the result is suffixed with [AddressSuffix] unless it
// already carries it. No further validation happens here; the send capability
// is the final arbiter of whether an address is deliverable.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", shared.ErrMissingPhone
	}

	var b strings.Builder
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}

	phone := b.String()
	phone = strings.TrimPrefix(phone, "+")

	if len(phone) == 10 && !strings.HasPrefix(phone, defaultCountryCode) {
		phone = defaultCountryCode + phone
	}

	if !strings.HasSuffix(phone, AddressSuffix) {
		phone += AddressSuffix
	}

	return phone, nil
}

// Render personalizes a message template by replacing every occurrence of the
// literal placeholder {name} with the recipient's name.
//
// No other placeholders are recognized and the placeholder cannot be escaped.
func Render(template, name string) string {
	return strings.ReplaceAll(template, "{name}", name)
}
