package access

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
)

const maxGenerateTries = 100

var errNoAcceptableCode = errors.New("no acceptable access code generated")

// CodeGenerator produces numeric keypad codes that are hard to guess by
// pattern
type CodeGenerator struct {
	length int
	rand   io.Reader
}

// NewCodeGenerator creates a generator for codes of the given number of digits
func NewCodeGenerator(length int) *CodeGenerator {
	if length < 4 {
		length = 4
	}
	return &CodeGenerator{length: length, rand: rand.Reader}
}

// Generate returns a random acceptable code
func (g *CodeGenerator) Generate() (string, error) {
	ten := big.NewInt(10)
	digits := make([]byte, g.length)
	for range maxGenerateTries {
		for i := range digits {
			n, err := rand.Int(g.rand, ten)
			if err != nil {
				return "", err
			}
			digits[i] = byte('0' + n.Int64())
		}
		if code := string(digits); Acceptable(code) {
			return code, nil
		}
	}
	return "", errNoAcceptableCode
}

// Acceptable reports whether code avoids the rejected patterns: a single
// repeated digit, a strictly increasing or decreasing run, digits repeated in
// pairs (1122) and an alternating period of two (1212).
func Acceptable(code string) bool {
	if len(code) < 2 {
		return false
	}
	return !sameDigit(code) &&
		!monotonic(code) &&
		!paired(code) &&
		!alternating(code)
}

func sameDigit(code string) bool {
	for i := 1; i < len(code); i++ {
		if code[i] != code[0] {
			return false
		}
	}
	return true
}

func monotonic(code string) bool {
	up, down := true, true
	for i := 1; i < len(code); i++ {
		if code[i] <= code[i-1] {
			up = false
		}
		if code[i] >= code[i-1] {
			down = false
		}
	}
	return up || down
}

func paired(code string) bool {
	if len(code)%2 != 0 {
		return false
	}
	for i := 0; i < len(code); i += 2 {
		if code[i] != code[i+1] {
			return false
		}
	}
	return true
}

func alternating(code string) bool {
	if len(code) < 4 {
		return false
	}
	for i := 2; i < len(code); i++ {
		if code[i] != code[i-2] {
			return false
		}
	}
	return true
}
