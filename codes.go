package main

import (
	"crypto/rand"
	"errors"
)

// Room codes have to survive being read aloud and typed on a phone,
// so the alphabet drops 0/O, 1/I/L.
const (
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeLength   = 4

	// The code space holds ~900k combinations, so a collision streak this
	// long means the registry is pathologically full, not unlucky.
	maxCodeAttempts = 1000
)

var errCodesExhausted = errors.New("room code space exhausted")

func randomCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	out := make([]byte, codeLength)
	for i := range out {
		out[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}

	return string(out)
}

// generateCode draws fresh random codes until one is not present in taken.
func generateCode(taken func(string) bool) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := randomCode()
		if !taken(code) {
			return code, nil
		}
	}

	return "", errCodesExhausted
}
