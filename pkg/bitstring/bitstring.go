// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package bitstring provides an ordered, mutable sequence of binary symbols
// together with the integer encode/decode helpers used to turn actions and
// percepts into predictor input.
package bitstring

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// Sentinel errors for the bitstring package.
var (
	// ErrInvalidEncoding is returned when parsing a string containing
	// anything other than '0' and '1'.
	ErrInvalidEncoding = errors.New("invalid bit encoding")

	// ErrEmptySequence is returned when popping from an empty Bitstring.
	ErrEmptySequence = errors.New("bitstring is empty")

	// ErrValueOverflow is returned when a value does not fit a fixed width.
	ErrValueOverflow = errors.New("value does not fit in width")
)

// Bit is a single binary symbol.
type Bit uint8

const (
	Zero Bit = 0
	One  Bit = 1
)

// BitFromBool returns One for true and Zero for false.
func BitFromBool(b bool) Bit {
	if b {
		return One
	}
	return Zero
}

// String returns "0" or "1".
func (b Bit) String() string {
	if b == One {
		return "1"
	}
	return "0"
}

// Bitstring is an ordered sequence of bits, indexed from the front.
//
// The zero value is an empty sequence ready to use. Bitstring has value
// semantics only through Clone; copying the struct shares storage.
//
// Thread Safety: Not safe for concurrent use.
type Bitstring struct {
	bits []Bit
}

// New returns an empty Bitstring.
func New() Bitstring {
	return Bitstring{}
}

// Empty returns an empty Bitstring. It is an alias of New.
func Empty() Bitstring {
	return New()
}

// FromBits returns a Bitstring holding a copy of the given bits.
func FromBits(in ...Bit) Bitstring {
	out := make([]Bit, len(in))
	copy(out, in)
	return Bitstring{bits: out}
}

// FromUint64 encodes value as its minimal big-endian binary expansion.
//
// Description:
//
//	The result has no leading zero bit, except that 0 encodes as the
//	single bit Zero. For value > 0 the length is bits.Len64(value).
//
// Examples:
//
//	FromUint64(6).String()  // "110"
//	FromUint64(0).String()  // "0"
func FromUint64(value uint64) Bitstring {
	width := bits.Len64(value)
	if width == 0 {
		width = 1
	}
	return fromUint64(value, width)
}

// FromUint64Width encodes value big-endian using exactly width bits.
//
// Inputs:
//   - value: The value to encode.
//   - width: Number of bits, 0..64.
//
// Outputs:
//   - Bitstring: The encoding, left-padded with Zero.
//   - error: ErrValueOverflow if value needs more than width bits.
func FromUint64Width(value uint64, width int) (Bitstring, error) {
	if width < 0 || width > 64 || bits.Len64(value) > width {
		return Bitstring{}, fmt.Errorf("%w: %d in %d bits", ErrValueOverflow, value, width)
	}
	return fromUint64(value, width), nil
}

func fromUint64(value uint64, width int) Bitstring {
	out := make([]Bit, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = Bit(value & 1)
		value >>= 1
	}
	return Bitstring{bits: out}
}

// FromString parses a string of '0' and '1' characters.
//
// Outputs:
//   - Bitstring: The parsed sequence.
//   - error: Wraps ErrInvalidEncoding naming the first offending character.
func FromString(s string) (Bitstring, error) {
	out := make([]Bit, 0, len(s))
	for i, r := range s {
		switch r {
		case '0':
			out = append(out, Zero)
		case '1':
			out = append(out, One)
		default:
			return Bitstring{}, fmt.Errorf("%w: %q at offset %d", ErrInvalidEncoding, r, i)
		}
	}
	return Bitstring{bits: out}, nil
}

// MustFromString is like FromString but panics on malformed input. It is
// meant for literals in tests and tables.
func MustFromString(s string) Bitstring {
	b, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Len returns the number of bits.
func (b Bitstring) Len() int {
	return len(b.bits)
}

// Bit returns the bit at position i. Panics if i is out of range.
func (b Bitstring) Bit(i int) Bit {
	if i < 0 || i >= len(b.bits) {
		panic(fmt.Sprintf("bitstring: index %d out of range [0, %d)", i, len(b.bits)))
	}
	return b.bits[i]
}

// Bits returns a copy of the underlying bits.
func (b Bitstring) Bits() []Bit {
	out := make([]Bit, len(b.bits))
	copy(out, b.bits)
	return out
}

// Push appends bit to the end of the sequence.
func (b *Bitstring) Push(bit Bit) {
	b.bits = append(b.bits, bit)
}

// Pop removes and returns the last bit.
func (b *Bitstring) Pop() (Bit, error) {
	n := len(b.bits)
	if n == 0 {
		return Zero, ErrEmptySequence
	}
	last := b.bits[n-1]
	b.bits = b.bits[:n-1]
	return last, nil
}

// Append pushes every bit of other, in order.
func (b *Bitstring) Append(other Bitstring) {
	b.bits = append(b.bits, other.bits...)
}

// Clone returns an independent copy.
func (b Bitstring) Clone() Bitstring {
	return FromBits(b.bits...)
}

// Uint64 decodes the sequence as a big-endian unsigned integer.
// Only the last 64 bits contribute if the sequence is longer.
func (b Bitstring) Uint64() uint64 {
	var v uint64
	for _, bit := range b.bits {
		v = v<<1 | uint64(bit)
	}
	return v
}

// String renders the sequence as '0'/'1' characters.
func (b Bitstring) String() string {
	var sb strings.Builder
	sb.Grow(len(b.bits))
	for _, bit := range b.bits {
		if bit == One {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
