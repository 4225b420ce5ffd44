package ma

import (
	"errors"
	"fmt"
	"strings"
)

// Multiaddr is an immutable byte-encoded sequence of protocol components.
type Multiaddr struct {
	bytes []byte
}

// Empty is the zero-length multiaddr.
var Empty = Multiaddr{}

// ErrInvalidMultiaddr is returned by parsing functions on malformed input.
var ErrInvalidMultiaddr = errors.New("ma: invalid multiaddr")

// NewMultiaddr parses the human-readable "/tag/value/..." form.
func NewMultiaddr(s string) (Multiaddr, error) {
	if s == "" {
		return Empty, nil
	}
	if !strings.HasPrefix(s, "/") {
		return Multiaddr{}, fmt.Errorf("%w: must start with /", ErrInvalidMultiaddr)
	}
	parts := strings.Split(s, "/")[1:]
	var out []byte
	circuits := 0
	for len(parts) > 0 {
		p, rest, err := parseProtocolFromParts(parts)
		if err != nil {
			return Multiaddr{}, err
		}
		if p.Code == CodeCircuit {
			circuits++
			if circuits > 1 {
				return Multiaddr{}, ErrMultipleCircuit
			}
		}
		out, err = p.WriteBytes(out)
		if err != nil {
			return Multiaddr{}, err
		}
		parts = rest
	}
	return Multiaddr{bytes: out}, nil
}

// NewMultiaddrBytes wraps raw bytes, validating that they decode cleanly.
func NewMultiaddrBytes(b []byte) (Multiaddr, error) {
	m := Multiaddr{bytes: append([]byte(nil), b...)}
	if _, err := m.Protocols(); err != nil {
		return Multiaddr{}, err
	}
	return m, nil
}

// Bytes returns the raw binary encoding. Callers must not mutate it.
func (m Multiaddr) Bytes() []byte { return m.bytes }

// Empty reports whether m has zero components.
func (m Multiaddr) Empty() bool { return len(m.bytes) == 0 }

// Len returns the number of components.
func (m Multiaddr) Len() int {
	n, _ := m.Protocols()
	return len(n)
}

// Protocols decodes and returns every component in order.
func (m Multiaddr) Protocols() ([]Protocol, error) {
	var out []Protocol
	b := m.bytes
	circuits := 0
	for len(b) > 0 {
		p, n, err := ReadProtocol(b)
		if err != nil {
			return nil, err
		}
		if p.Code == CodeCircuit {
			circuits++
			if circuits > 1 {
				return nil, ErrMultipleCircuit
			}
		}
		out = append(out, p)
		b = b[n:]
	}
	return out, nil
}

// String renders the human-readable form.
func (m Multiaddr) String() string {
	protos, err := m.Protocols()
	if err != nil {
		return "<invalid multiaddr>"
	}
	var sb strings.Builder
	for _, p := range protos {
		p.writeHuman(&sb)
	}
	return sb.String()
}

// Encapsulate appends other's components, returning a new Multiaddr.
func (m Multiaddr) Encapsulate(other Multiaddr) Multiaddr {
	out := append(append([]byte(nil), m.bytes...), other.bytes...)
	return Multiaddr{bytes: out}
}

// WithPeer appends a /peer/<id> component.
func (m Multiaddr) WithPeer(id []byte) (Multiaddr, error) {
	p := Protocol{Code: CodePeer, Value: id}
	b, err := p.WriteBytes(append([]byte(nil), m.bytes...))
	if err != nil {
		return Multiaddr{}, err
	}
	return Multiaddr{bytes: b}, nil
}

// IsCircuit reports whether m contains a /circuit component.
func (m Multiaddr) IsCircuit() bool {
	protos, err := m.Protocols()
	if err != nil {
		return false
	}
	for _, p := range protos {
		if p.Code == CodeCircuit {
			return true
		}
	}
	return false
}

// SplitCircuit splits a relayed address of the form
// <relay-addr>/peer/<relay-id>/circuit/peer/<dst-id> into its relay
// address (including the relay's peer component) and destination peer id
// bytes. Returns ok=false if m is not a circuit address.
func (m Multiaddr) SplitCircuit() (relay Multiaddr, dst Protocol, ok bool) {
	protos, err := m.Protocols()
	if err != nil {
		return Multiaddr{}, Protocol{}, false
	}
	circuitIdx := -1
	for i, p := range protos {
		if p.Code == CodeCircuit {
			circuitIdx = i
			break
		}
	}
	if circuitIdx < 0 || circuitIdx+2 > len(protos) {
		return Multiaddr{}, Protocol{}, false
	}
	dstProtos := protos[circuitIdx+1:]
	if len(dstProtos) != 1 || dstProtos[0].Code != CodePeer {
		return Multiaddr{}, Protocol{}, false
	}
	relayProtos := protos[:circuitIdx]
	var relayBytes []byte
	for _, p := range relayProtos {
		relayBytes, err = p.WriteBytes(relayBytes)
		if err != nil {
			return Multiaddr{}, Protocol{}, false
		}
	}
	return Multiaddr{bytes: relayBytes}, dstProtos[0], true
}

// Equal reports byte-equality.
func (m Multiaddr) Equal(other Multiaddr) bool {
	return string(m.bytes) == string(other.bytes)
}
