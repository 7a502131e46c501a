// README: Human-facing order code generation (GS-XXXX).
package order

import (
	"crypto/rand"
	"strings"
)

const (
	codePrefix = "GS-"
	codeLength = 4

	// codeAlphabet excludes I and O so codes are unambiguous when read
	// aloud or written down.
	codeAlphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"
)

// GenerateCode returns a fresh human-facing code of the form GS-XXXX.
// Uniqueness is enforced by the store's unique index; the creator
// regenerates on conflict.
func GenerateCode() string {
	var b [codeLength]byte
	_, _ = rand.Read(b[:])
	out := make([]byte, codeLength)
	for i, v := range b {
		out[i] = codeAlphabet[int(v)%len(codeAlphabet)]
	}
	return codePrefix + string(out)
}

// CodeFromID deterministically synthesizes a code from a record identity,
// for historical records persisted before codes existed.
func CodeFromID(id string) string {
	out := make([]byte, 0, codeLength)
	for _, c := range strings.ToUpper(id) {
		if len(out) == codeLength {
			break
		}
		if strings.ContainsRune(codeAlphabet, c) {
			out = append(out, byte(c))
		}
	}
	for len(out) < codeLength {
		out = append(out, codeAlphabet[0])
	}
	return codePrefix + string(out)
}
