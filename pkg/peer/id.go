// Package peer implements the PeerId identity type used throughout the
// stack: a 32-byte value intended to match an Ed25519 public key,
// produced by the authenticate upgrade and carried by every connection,
// multiaddr "peer" component, and behavior event.
package peer

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/mr-tron/base58/base58"
)

// Size is the fixed byte length of a PeerId.
const Size = 32

// ErrInvalidLength is returned when decoding bytes of the wrong size.
var ErrInvalidLength = errors.New("peer: invalid id length")

// ID is a 32-byte peer identity. The zero value is not a valid peer id;
// callers obtain one from an authenticate upgrade or from parsing.
type ID [Size]byte

// FromBytes copies b into a new ID. b must be exactly Size bytes.
func FromBytes(b []byte) (ID, error) {
	var id ID
	if len(b) != Size {
		return id, ErrInvalidLength
	}
	copy(id[:], b)
	return id, nil
}

// Bytes returns a copy of the raw 32 bytes.
func (id ID) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, id[:])
	return out
}

// String renders the base58 form, the human-readable representation used
// in multiaddr "peer" components and log output.
func (id ID) String() string {
	return base58.Encode(id[:])
}

// ShortString renders a truncated form suitable for logging.
func (id ID) ShortString() string {
	s := id.String()
	if len(s) <= 10 {
		return s
	}
	return s[:6] + ".." + s[len(s)-4:]
}

// Hex renders the raw bytes as lowercase hex, occasionally useful in tests.
func (id ID) Hex() string {
	return hex.EncodeToString(id[:])
}

// Decode parses a base58-encoded peer id.
func Decode(s string) (ID, error) {
	b, err := base58.Decode(s)
	if err != nil {
		var zero ID
		return zero, err
	}
	return FromBytes(b)
}

// IsZero reports whether id is the zero value (never a valid identity).
func (id ID) IsZero() bool {
	return id == ID{}
}

// NewRandom returns a freshly-random ID, standing in for the real
// authenticate upgrade's Ed25519 keypair derivation (key agreement
// itself is out of scope here; see internal/transport/plaintext).
func NewRandom() (ID, error) {
	var id ID
	if _, err := rand.Read(id[:]); err != nil {
		return ID{}, err
	}
	return id, nil
}
