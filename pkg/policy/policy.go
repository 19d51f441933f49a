// Package policy decides who may delete guestbook entries.
package policy

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// DeletePolicy reports whether actingName may delete entries.
type DeletePolicy func(actingName string) bool

// AdminName allows exactly one display name.
func AdminName(name string) DeletePolicy {
	want := []byte(name)
	return func(actingName string) bool {
		if name == "" {
			return false
		}
		return subtle.ConstantTimeCompare([]byte(actingName), want) == 1
	}
}

// AdminNameHash allows the display name whose bcrypt hash is given, so the
// privileged name itself need not appear in configuration.
func AdminNameHash(hash string) DeletePolicy {
	h := []byte(hash)
	return func(actingName string) bool {
		if actingName == "" {
			return false
		}
		return bcrypt.CompareHashAndPassword(h, []byte(actingName)) == nil
	}
}

// HashName produces a value usable with AdminNameHash.
func HashName(name string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(name), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// DenyAll is used when no privileged identity is configured.
func DenyAll(string) bool { return false }

// FromConfig prefers the hashed form when both are set.
func FromConfig(name, hash string) DeletePolicy {
	switch {
	case hash != "":
		return AdminNameHash(hash)
	case name != "":
		return AdminName(name)
	default:
		return DenyAll
	}
}
