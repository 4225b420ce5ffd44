// Package varint is a thin wrapper around github.com/multiformats/go-varint,
// isolating multiaddr's binary codec from that dependency's exact API so
// the rest of the tree names this package rather than go-varint directly.
package varint

import gvarint "github.com/multiformats/go-varint"

// ErrOverflow is returned when a decoded value would not fit in 64 bits.
var ErrOverflow = gvarint.ErrOverflow

// ErrUnderflow is returned when b ends before a varint is fully read.
var ErrUnderflow = gvarint.ErrUnderflow

// UvarintSize reports how many bytes Append would write for v.
func UvarintSize(v uint64) int { return gvarint.UvarintSize(v) }

// Append encodes v as an unsigned varint and returns buf with it appended.
func Append(buf []byte, v uint64) []byte {
	tmp := make([]byte, gvarint.UvarintSize(v))
	n := gvarint.PutUvarint(tmp, v)
	return append(buf, tmp[:n]...)
}

// Read decodes an unsigned varint from the head of b, returning the value
// and the number of bytes consumed.
func Read(b []byte) (uint64, int, error) {
	return gvarint.FromUvarint(b)
}
