// FilePath: internal/deviceid/deviceid.go

// Package deviceid normalizes and validates the public identifiers devices
// present: either a MAC address in any common notation or a TS-prefixed
// QR-encoded code. The canonical MAC form is uppercase, colon-separated.
package deviceid

import (
	"regexp"
	"strings"
)

var (
	macRe    = regexp.MustCompile(`^[0-9A-F]{2}(:[0-9A-F]{2}){5}$`)
	qrCodeRe = regexp.MustCompile(`^TS-[A-Z0-9]{8,16}$`)
	hex12Re  = regexp.MustCompile(`^[0-9A-F]{12}$`)
)

// Canonicalize maps a raw scanned or typed identifier onto its canonical form
// and reports whether it looks like a plausible identifier for this product.
// The check is purely syntactic; whether the id is registered is a directory
// concern.
func Canonicalize(raw string) (canonical string, isMAC bool, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", false, false
	}

	// MAC notations: colons, dashes, or 12 bare hex digits.
	compact := strings.NewReplacer(":", "", "-", "", ".", "").Replace(s)
	if hex12Re.MatchString(compact) {
		var groups []string
		for i := 0; i < 12; i += 2 {
			groups = append(groups, compact[i:i+2])
		}
		mac := strings.Join(groups, ":")
		if macRe.MatchString(mac) {
			return mac, true, true
		}
	}

	if qrCodeRe.MatchString(s) {
		return s, false, true
	}

	return s, false, false
}

// IsValid reports whether raw is a plausible public device identifier.
func IsValid(raw string) bool {
	_, _, ok := Canonicalize(raw)
	return ok
}
