// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package queryconst implements the closed set of literal value kinds
// atomic predicates compare against. The variant set is fixed by design;
// pattern matching on Kind is expected to be exhaustive throughout the
// compiler.
package queryconst

import (
	"fmt"
	"net"
	"strings"

	"grimm.is/camus/internal/camuserr"
)

// Kind discriminates the QueryConst variants.
type Kind int

const (
	KindNumber Kind = iota
	KindIPv4
	KindIPv6
	KindMAC
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindIPv4:
		return "ipv4"
	case KindIPv6:
		return "ipv6"
	case KindMAC:
		return "mac"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Const is the tagged union of literal values a predicate can compare a
// field against.
type Const struct {
	kind Kind
	num  int64     // Number, IPv4 (as uint32), MAC (as u48)
	ip6  [4]uint32 // IPv6 limbs, high limb first
	str  string
}

// Number builds a Number constant.
func Number(n int64) Const { return Const{kind: KindNumber, num: n} }

// IPv4 builds an IPv4 constant from its 32-bit big-endian value.
func IPv4(v uint32) Const { return Const{kind: KindIPv4, num: int64(v)} }

// IPv4FromString parses a dotted-quad string into an IPv4 constant.
func IPv4FromString(s string) (Const, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return Const{}, camuserr.Errorf(camuserr.KindShape, "invalid IPv4 literal %q", s)
	}
	v4 := ip.To4()
	if v4 == nil {
		return Const{}, camuserr.Errorf(camuserr.KindShape, "%q is not an IPv4 address", s)
	}
	return IPv4(uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])), nil
}

// IPv6 builds an IPv6 constant from its four 32-bit limbs, high limb first.
func IPv6(a, b, c, d uint32) Const {
	return Const{kind: KindIPv6, ip6: [4]uint32{a, b, c, d}}
}

// IPv6FromString parses a colon-hex string into an IPv6 constant.
func IPv6FromString(s string) (Const, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return Const{}, camuserr.Errorf(camuserr.KindShape, "invalid IPv6 literal %q", s)
	}
	v6 := ip.To16()
	if v6 == nil || ip.To4() != nil {
		return Const{}, camuserr.Errorf(camuserr.KindShape, "%q is not an IPv6 address", s)
	}
	var limbs [4]uint32
	for i := 0; i < 4; i++ {
		limbs[i] = uint32(v6[i*4])<<24 | uint32(v6[i*4+1])<<16 | uint32(v6[i*4+2])<<8 | uint32(v6[i*4+3])
	}
	return IPv6(limbs[0], limbs[1], limbs[2], limbs[3]), nil
}

// MAC builds a MAC constant from its 48-bit value.
func MAC(v uint64) Const { return Const{kind: KindMAC, num: int64(v & 0xFFFFFFFFFFFF)} }

// MACFromString parses a colon-hex MAC string ("aa:bb:cc:dd:ee:ff").
func MACFromString(s string) (Const, error) {
	hw, err := net.ParseMAC(s)
	if err != nil || len(hw) != 6 {
		return Const{}, camuserr.Errorf(camuserr.KindShape, "invalid MAC literal %q", s)
	}
	var v uint64
	for _, b := range hw {
		v = v<<8 | uint64(b)
	}
	return MAC(v), nil
}

// String builds a String constant.
func String(s string) Const { return Const{kind: KindString, str: s} }

// Kind returns the variant tag.
func (c Const) Kind() Kind { return c.kind }

// IPv4Value returns the raw 32-bit value of an IPv4 constant.
func (c Const) IPv4Value() uint32 { return uint32(c.num) }

// IPv6Limbs returns the four 32-bit limbs of an IPv6 constant, high limb first.
func (c Const) IPv6Limbs() [4]uint32 { return c.ip6 }

// MACValue returns the raw 48-bit value of a MAC constant.
func (c Const) MACValue() uint64 { return uint64(c.num) }

// StringValue returns the raw value of a String constant.
func (c Const) StringValue() string { return c.str }

// ToInt is defined only for Number; it is a hard error otherwise.
func (c Const) ToInt() (int64, error) {
	if c.kind != KindNumber {
		return 0, camuserr.Errorf(camuserr.KindInvariant, "to_int is undefined for %s constants", c.kind)
	}
	return c.num, nil
}

// numericTier reports whether c belongs to the Number/IPv4/MAC family
// that shares a single numeric order for algebraic purposes.
func numericTier(k Kind) bool {
	return k == KindNumber || k == KindIPv4 || k == KindMAC
}

// tierRank orders the three comparison tiers: numeric family first,
// strings second, IPv6 last (any IPv6 is greater than any non-IPv6).
func tierRank(k Kind) int {
	switch {
	case numericTier(k):
		return 0
	case k == KindString:
		return 1
	default: // KindIPv6
		return 2
	}
}

// Compare implements QueryConst's total order. IPv6 values compare
// lexicographically on their four limbs; any IPv6 is greater than any
// non-IPv6; Number/IPv4/MAC compare numerically on their shared
// underlying integer; strings compare after integers and lexicographically
// among themselves.
func Compare(a, b Const) int {
	ra, rb := tierRank(a.kind), tierRank(b.kind)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case 0:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		default:
			return 0
		}
	case 1:
		return strings.Compare(a.str, b.str)
	default:
		for i := 0; i < 4; i++ {
			if a.ip6[i] != b.ip6[i] {
				if a.ip6[i] < b.ip6[i] {
					return -1
				}
				return 1
			}
		}
		return 0
	}
}

// Equal reports whether a and b compare equal under Compare.
func Equal(a, b Const) bool { return Compare(a, b) == 0 }

// Min returns the lesser of a, b under Compare.
func Min(a, b Const) Const {
	if Compare(a, b) <= 0 {
		return a
	}
	return b
}

// Max returns the greater of a, b under Compare.
func Max(a, b Const) Const {
	if Compare(a, b) >= 0 {
		return a
	}
	return b
}

// String renders a human-readable form, used for diagnostics only (the
// emitter has its own width/format-aware rendering).
func (c Const) String() string {
	switch c.kind {
	case KindNumber:
		return fmt.Sprintf("%d", c.num)
	case KindIPv4:
		v := uint32(c.num)
		return fmt.Sprintf("%d.%d.%d.%d", byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	case KindIPv6:
		return fmt.Sprintf("%x:%x:%x:%x", c.ip6[0], c.ip6[1], c.ip6[2], c.ip6[3])
	case KindMAC:
		v := uint64(c.num)
		return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
			byte(v>>40), byte(v>>32), byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	case KindString:
		return c.str
	default:
		return "<invalid>"
	}
}
