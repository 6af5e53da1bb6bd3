package domain

import (
	"crypto/rand"
	"fmt"
	"io"
)

const (
	// CodeLength is the length of a reservation code.
	CodeLength = 8
	// codeAlphabet omits 0/O and 1/I, which customers misread. Its 32
	// symbols map onto 5 random bits without modulo bias.
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// CodeGenerator produces candidate reservation codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// RandomCodeGenerator draws codes from a random source, crypto/rand by default.
type RandomCodeGenerator struct {
	Source io.Reader
}

// Generate returns a fresh random code.
func (g RandomCodeGenerator) Generate() (string, error) {
	src := g.Source
	if src == nil {
		src = rand.Reader
	}
	buf := make([]byte, CodeLength)
	if _, err := io.ReadFull(src, buf); err != nil {
		return "", fmt.Errorf("read random code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[b&31]
	}
	return string(buf), nil
}

// IsValidCode reports whether s has the shape of a reservation code.
func IsValidCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isCodeChar(s[i]) {
			return false
		}
	}
	return true
}

func isCodeChar(c byte) bool {
	for i := 0; i < len(codeAlphabet); i++ {
		if codeAlphabet[i] == c {
			return true
		}
	}
	return false
}
