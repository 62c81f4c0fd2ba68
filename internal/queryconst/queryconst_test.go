// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package queryconst

import "testing"

func TestIPv4FromStringRoundTrip(t *testing.T) {
	c, err := IPv4FromString("192.168.1.1")
	if err != nil {
		t.Fatalf("IPv4FromString: %v", err)
	}
	want := uint32(192)<<24 | uint32(168)<<16 | uint32(1)<<8 | uint32(1)
	if c.IPv4Value() != want {
		t.Errorf("IPv4Value() = %#x, want %#x", c.IPv4Value(), want)
	}
	if got := c.String(); got != "192.168.1.1" {
		t.Errorf("String() = %q, want %q", got, "192.168.1.1")
	}
}

func TestIPv4FromStringRejectsIPv6(t *testing.T) {
	if _, err := IPv4FromString("::1"); err == nil {
		t.Error("expected an error for an IPv6 literal")
	}
}

func TestIPv6FromStringRejectsIPv4(t *testing.T) {
	if _, err := IPv6FromString("10.0.0.1"); err == nil {
		t.Error("expected an error for an IPv4 literal")
	}
}

func TestMACFromStringRoundTrip(t *testing.T) {
	c, err := MACFromString("aa:bb:cc:dd:ee:ff")
	if err != nil {
		t.Fatalf("MACFromString: %v", err)
	}
	if c.MACValue() != 0xaabbccddeeff {
		t.Errorf("MACValue() = %#x, want %#x", c.MACValue(), 0xaabbccddeeff)
	}
}

func TestToIntOnlyDefinedForNumber(t *testing.T) {
	if _, err := Number(42).ToInt(); err != nil {
		t.Errorf("ToInt() on a Number constant returned an error: %v", err)
	}
	if _, err := String("x").ToInt(); err == nil {
		t.Error("expected ToInt() on a String constant to error")
	}
}

func TestCompareTierOrdering(t *testing.T) {
	n := Number(10)
	s := String("a")
	v6, err := IPv6FromString("::1")
	if err != nil {
		t.Fatalf("IPv6FromString: %v", err)
	}
	if Compare(n, s) >= 0 {
		t.Error("a numeric-tier constant should compare less than a string")
	}
	if Compare(s, v6) >= 0 {
		t.Error("a string should compare less than any IPv6 constant")
	}
	if Compare(n, v6) >= 0 {
		t.Error("a numeric-tier constant should compare less than any IPv6 constant")
	}
}

func TestCompareNumericFamilyShareOrder(t *testing.T) {
	// Number and IPv4 compare on the same underlying integer.
	ip, err := IPv4FromString("0.0.0.10")
	if err != nil {
		t.Fatalf("IPv4FromString: %v", err)
	}
	if !Equal(Number(10), ip) {
		t.Error("Number(10) and IPv4 0.0.0.10 should compare equal in the numeric tier")
	}
}

func TestMinMax(t *testing.T) {
	a, b := Number(3), Number(7)
	if !Equal(Min(a, b), a) {
		t.Error("Min(3, 7) should be 3")
	}
	if !Equal(Max(a, b), b) {
		t.Error("Max(3, 7) should be 7")
	}
}

func TestIPv6StringRendersLimbs(t *testing.T) {
	c := IPv6(0x20010db8, 0, 0, 1)
	got := c.String()
	if got == "" {
		t.Error("IPv6 String() should not be empty")
	}
}
