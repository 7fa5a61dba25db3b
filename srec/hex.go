package srec

import "golang.org/x/exp/constraints"

// HexDigit returns the value of a single hex digit. Anything that is not
// 0-9, A-F or a-f decodes to 0.
func HexDigit(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	}

	return 0
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

// IsHex reports whether s is non-empty and made only of hex digits.
func IsHex[S ~string | ~[]byte](s S) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}

	return true
}

// HexValue folds HexDigit over s, most significant digit first. Digits that
// do not fit in T are shifted out; callers bound len(s) to the width of T.
func HexValue[T constraints.Unsigned, S ~string | ~[]byte](s S) T {
	var v T
	for i := 0; i < len(s); i++ {
		v = v<<4 | T(HexDigit(s[i]))
	}

	return v
}

// ParseHex decodes s as a 32-bit unsigned hex number. It never fails: an
// empty string is 0 and non-hex characters count as 0.
func ParseHex(s string) uint32 {
	return HexValue[uint32](s)
}
