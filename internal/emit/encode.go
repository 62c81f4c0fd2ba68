// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package emit writes a lowered target pipeline to its two output
// formats: line-oriented table_add commands and an equivalent JSON
// document, plus the multicast-group file the data plane installs
// alongside them.
package emit

import (
	"fmt"
	"strings"

	"grimm.is/camus/internal/camuserr"
	"grimm.is/camus/internal/queryconst"
)

// maxValue returns 2^width - 1, the inclusive upper bound of an unsigned
// field of width bits, for widths 1 through 62. Any other width
// (including an unset width of 0) yields 2^63 - 1.
func maxValue(width int) int64 {
	if width <= 0 || width >= 63 {
		return int64((uint64(1) << 63) - 1)
	}
	return (int64(1) << uint(width)) - 1
}

// numericValue extracts the unsigned integer a Number/IPv4/MAC constant
// carries, applying the ±1 adjustment needed to express the inclusive
// bound of an Lt/Gt threshold. adjust is 0, -1, or +1.
func numericValue(c queryconst.Const, adjust int64) (int64, error) {
	switch c.Kind() {
	case queryconst.KindNumber:
		v, err := c.ToInt()
		if err != nil {
			return 0, err
		}
		return v + adjust, nil
	case queryconst.KindIPv4:
		return int64(c.IPv4Value()) + adjust, nil
	case queryconst.KindMAC:
		return int64(c.MACValue()) + adjust, nil
	default:
		return 0, camuserr.Errorf(camuserr.KindInvariant, "cannot encode %s constant as a numeric value", c.Kind())
	}
}

// decimalString renders a constant as the unsigned-decimal form the
// command file and JSON both use for Number/MAC/IPv4 values, and the
// 128-bit assembled decimal for IPv6, and a width-padded big-endian
// integer for String.
func decimalString(c queryconst.Const, width int) (string, error) {
	switch c.Kind() {
	case queryconst.KindNumber, queryconst.KindMAC:
		v, err := numericValue(c, 0)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d", v), nil
	case queryconst.KindIPv4:
		return fmt.Sprintf("%d", c.IPv4Value()), nil
	case queryconst.KindIPv6:
		return ipv6Decimal(c), nil
	case queryconst.KindString:
		return stringDecimal(c.StringValue(), width), nil
	default:
		return "", camuserr.Errorf(camuserr.KindInvariant, "cannot encode %s constant", c.Kind())
	}
}

// dottedQuad renders an IPv4 constant in human-readable dotted-quad form.
func dottedQuad(c queryconst.Const) string {
	v := c.IPv4Value()
	return fmt.Sprintf("%d.%d.%d.%d", byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// ipv6Decimal assembles the four 32-bit limbs (high limb leftmost) into a
// single 128-bit unsigned decimal.
func ipv6Decimal(c queryconst.Const) string {
	limbs := c.IPv6Limbs()
	// 128-bit value as two uint64 halves; decimal conversion via repeated
	// division since Go has no native 128-bit integer type.
	hi := uint64(limbs[0])<<32 | uint64(limbs[1])
	lo := uint64(limbs[2])<<32 | uint64(limbs[3])
	return uint128Decimal(hi, lo)
}

// uint128Decimal converts a 128-bit unsigned value, given as two 64-bit
// halves (hi most significant), to its base-10 string form.
func uint128Decimal(hi, lo uint64) string {
	if hi == 0 {
		return fmt.Sprintf("%d", lo)
	}
	var digits []byte
	for hi != 0 || lo != 0 {
		// divide (hi:lo) by 10
		rem := uint64(0)
		newHi := hi / 10
		rem = hi % 10
		combined := rem<<32 | (lo >> 32)
		newLoHigh := combined / 10
		rem = combined % 10
		combined = rem<<32 | (lo & 0xFFFFFFFF)
		newLoLow := combined / 10
		rem = combined % 10
		lo = newLoHigh<<32 | newLoLow
		hi = newHi
		digits = append([]byte{byte('0' + rem)}, digits...)
	}
	return string(digits)
}

// stringDecimal right-pads s with spaces to width/8 bytes and renders the
// result as a big-endian integer in decimal.
func stringDecimal(s string, width int) string {
	n := width / 8
	if n <= 0 {
		n = len(s)
	}
	padded := s
	if len(padded) < n {
		padded += strings.Repeat(" ", n-len(padded))
	} else if len(padded) > n {
		padded = padded[:n]
	}
	var hi, lo uint64
	for i := 0; i < len(padded); i++ {
		carry := uint64(byte(padded[i]))
		// shift (hi:lo) left 8 bits and OR in carry
		hi = hi<<8 | lo>>56
		lo = lo<<8 | carry
	}
	return uint128Decimal(hi, lo)
}
