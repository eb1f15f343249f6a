package glsl

import (
	"strconv"
	"strings"
)

// parseIntLiteral parses a GLSL integer literal lexeme, stripping any
// trailing 'u'/'U' suffix.
func parseIntLiteral(lexeme string) int32 {
	s := strings.TrimRight(lexeme, "uU")
	v, _ := strconv.ParseInt(s, 10, 64)
	return int32(v)
}

// parseFloatLiteral parses a GLSL float literal lexeme, stripping any
// trailing 'f'/'F' suffix.
func parseFloatLiteral(lexeme string) float32 {
	s := strings.TrimRight(lexeme, "fF")
	v, _ := strconv.ParseFloat(s, 32)
	return float32(v)
}
