// Package ma implements Multiaddr: an immutable, byte-encoded sequence of
// protocol components (ip4/ip6/dns*/tcp/udp/quic/ws/tls/http/peer/circuit),
// with a varint(code)||value binary encoding and a human-readable
// "/tag/value/..." form. Grounded on the original volans-core multiaddr
// and protocol codecs; codes and value widths are part of the wire
// contract and must not drift from them.
package ma

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/cariers/volans/pkg/peer"
	"github.com/cariers/volans/pkg/varint"
)

// Code identifies a protocol component.
type Code int

const (
	CodeIP4     Code = 4
	CodeTCP     Code = 6
	CodeIP6     Code = 41
	CodeDNS     Code = 53
	CodeDNS4    Code = 54
	CodeDNS6    Code = 55
	CodeUDP     Code = 273
	CodeUnix    Code = 400
	CodeTLS     Code = 448
	CodeSNI     Code = 449
	CodeQUIC    Code = 460
	CodeWS      Code = 477
	CodeHTTP    Code = 480
	CodePath    Code = 481
	CodePeer    Code = 421
	CodeCircuit Code = 290
	CodeMemory  Code = 777
)

// tag is the lowercase human-readable name for each code.
var tag = map[Code]string{
	CodeIP4: "ip4", CodeTCP: "tcp", CodeIP6: "ip6",
	CodeDNS: "dns", CodeDNS4: "dns4", CodeDNS6: "dns6",
	CodeUDP: "udp", CodeUnix: "unix", CodeTLS: "tls",
	CodeSNI: "sni", CodeQUIC: "quic", CodeWS: "ws",
	CodeHTTP: "http", CodePath: "x-with-path", CodePeer: "peer",
	CodeCircuit: "circuit", CodeMemory: "memory",
}

var tagToCode = func() map[string]Code {
	m := make(map[string]Code, len(tag))
	for c, t := range tag {
		m[t] = c
	}
	return m
}()

var (
	ErrInvalidProtocol = errors.New("ma: invalid protocol")
	ErrInvalidValue    = errors.New("ma: invalid protocol value")
	ErrMultipleCircuit = errors.New("ma: multiaddr has more than one circuit component")
)

// Protocol is one decoded component of a Multiaddr: a code plus its value.
// The value's meaning depends on the code: fixed 4/16-byte address,
// 2-byte big-endian port, 8-byte big-endian memory value, length-prefixed
// text, 32-byte peer id, or empty for zero-width components (ws, http,
// tls, quic, unix, circuit).
type Protocol struct {
	Code  Code
	Value []byte
}

// Tag returns the lowercase human-readable protocol name.
func (p Protocol) Tag() string {
	if t, ok := tag[p.Code]; ok {
		return t
	}
	return fmt.Sprintf("unknown(%d)", p.Code)
}

func zeroWidth(c Code) bool {
	switch c {
	case CodeWS, CodeHTTP, CodeTLS, CodeQUIC, CodeUnix, CodeCircuit:
		return true
	default:
		return false
	}
}

// WriteBytes appends the binary encoding of p (varint(code) || value) to buf.
func (p Protocol) WriteBytes(buf []byte) ([]byte, error) {
	buf = appendUvarint(buf, uint64(p.Code))
	switch p.Code {
	case CodeIP4:
		if len(p.Value) != 4 {
			return nil, ErrInvalidValue
		}
		return append(buf, p.Value...), nil
	case CodeIP6:
		if len(p.Value) != 16 {
			return nil, ErrInvalidValue
		}
		return append(buf, p.Value...), nil
	case CodeTCP, CodeUDP:
		if len(p.Value) != 2 {
			return nil, ErrInvalidValue
		}
		return append(buf, p.Value...), nil
	case CodeMemory:
		if len(p.Value) != 8 {
			return nil, ErrInvalidValue
		}
		return append(buf, p.Value...), nil
	case CodePeer:
		if len(p.Value) != peer.Size {
			return nil, ErrInvalidValue
		}
		return append(buf, p.Value...), nil
	case CodeDNS, CodeDNS4, CodeDNS6, CodeSNI, CodePath:
		buf = appendUvarint(buf, uint64(len(p.Value)))
		return append(buf, p.Value...), nil
	default:
		if zeroWidth(p.Code) {
			return buf, nil
		}
		// Unknown code: treat as length-prefixed opaque bytes.
		buf = appendUvarint(buf, uint64(len(p.Value)))
		return append(buf, p.Value...), nil
	}
}

func appendUvarint(buf []byte, v uint64) []byte {
	return varint.Append(buf, v)
}

// ReadProtocol reads one component from b, returning the component and the
// number of bytes consumed.
func ReadProtocol(b []byte) (Protocol, int, error) {
	code, n, err := varint.Read(b)
	if err != nil {
		return Protocol{}, 0, fmt.Errorf("ma: reading code: %w", err)
	}
	c := Code(code)
	rest := b[n:]
	switch c {
	case CodeIP4:
		if len(rest) < 4 {
			return Protocol{}, 0, ErrInvalidValue
		}
		return Protocol{Code: c, Value: append([]byte(nil), rest[:4]...)}, n + 4, nil
	case CodeIP6:
		if len(rest) < 16 {
			return Protocol{}, 0, ErrInvalidValue
		}
		return Protocol{Code: c, Value: append([]byte(nil), rest[:16]...)}, n + 16, nil
	case CodeTCP, CodeUDP:
		if len(rest) < 2 {
			return Protocol{}, 0, ErrInvalidValue
		}
		return Protocol{Code: c, Value: append([]byte(nil), rest[:2]...)}, n + 2, nil
	case CodeMemory:
		if len(rest) < 8 {
			return Protocol{}, 0, ErrInvalidValue
		}
		return Protocol{Code: c, Value: append([]byte(nil), rest[:8]...)}, n + 8, nil
	case CodePeer:
		if len(rest) < peer.Size {
			return Protocol{}, 0, ErrInvalidValue
		}
		return Protocol{Code: c, Value: append([]byte(nil), rest[:peer.Size]...)}, n + peer.Size, nil
	case CodeWS, CodeHTTP, CodeTLS, CodeQUIC, CodeUnix, CodeCircuit:
		return Protocol{Code: c}, n, nil
	default:
		l, ln, err := varint.Read(rest)
		if err != nil {
			return Protocol{}, 0, fmt.Errorf("ma: reading length: %w", err)
		}
		rest = rest[ln:]
		if uint64(len(rest)) < l {
			return Protocol{}, 0, ErrInvalidValue
		}
		return Protocol{Code: c, Value: append([]byte(nil), rest[:l]...)}, n + ln + int(l), nil
	}
}

// Human-readable rendering.

func (p Protocol) writeHuman(sb *strings.Builder) {
	sb.WriteByte('/')
	sb.WriteString(p.Tag())
	switch p.Code {
	case CodeIP4:
		sb.WriteByte('/')
		sb.WriteString(net.IP(p.Value).String())
	case CodeIP6:
		sb.WriteByte('/')
		sb.WriteString(net.IP(p.Value).String())
	case CodeTCP, CodeUDP:
		sb.WriteByte('/')
		sb.WriteString(strconv.Itoa(int(binary.BigEndian.Uint16(p.Value))))
	case CodeMemory:
		sb.WriteByte('/')
		sb.WriteString(strconv.FormatUint(binary.BigEndian.Uint64(p.Value), 10))
	case CodePeer:
		id, _ := peer.FromBytes(p.Value)
		sb.WriteByte('/')
		sb.WriteString(id.String())
	case CodeDNS, CodeDNS4, CodeDNS6, CodeSNI:
		sb.WriteByte('/')
		sb.WriteString(string(p.Value))
	case CodePath:
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(string(p.Value)))
	default:
		if !zeroWidth(p.Code) {
			sb.WriteByte('/')
			sb.WriteString(url.PathEscape(string(p.Value)))
		}
	}
}

// parseProtocolFromParts consumes parts[0] as a tag and as many following
// parts as the tag's value requires, returning the remainder.
func parseProtocolFromParts(parts []string) (Protocol, []string, error) {
	if len(parts) == 0 {
		return Protocol{}, nil, ErrInvalidProtocol
	}
	t := parts[0]
	code, ok := tagToCode[t]
	if !ok {
		return Protocol{}, nil, fmt.Errorf("%w: %q", ErrInvalidProtocol, t)
	}
	rest := parts[1:]
	need := func(n int) ([]string, []string, error) {
		if len(rest) < n {
			return nil, nil, fmt.Errorf("%w: %q missing value", ErrInvalidProtocol, t)
		}
		return rest[:n], rest[n:], nil
	}
	switch code {
	case CodeIP4:
		v, r, err := need(1)
		if err != nil {
			return Protocol{}, nil, err
		}
		ip := net.ParseIP(v[0]).To4()
		if ip == nil {
			return Protocol{}, nil, fmt.Errorf("%w: bad ip4 %q", ErrInvalidValue, v[0])
		}
		return Protocol{Code: code, Value: ip}, r, nil
	case CodeIP6:
		v, r, err := need(1)
		if err != nil {
			return Protocol{}, nil, err
		}
		ip := net.ParseIP(v[0]).To16()
		if ip == nil {
			return Protocol{}, nil, fmt.Errorf("%w: bad ip6 %q", ErrInvalidValue, v[0])
		}
		return Protocol{Code: code, Value: ip}, r, nil
	case CodeTCP, CodeUDP:
		v, r, err := need(1)
		if err != nil {
			return Protocol{}, nil, err
		}
		port, err := strconv.ParseUint(v[0], 10, 16)
		if err != nil {
			return Protocol{}, nil, fmt.Errorf("%w: bad port %q", ErrInvalidValue, v[0])
		}
		buf := make([]byte, 2)
		binary.BigEndian.PutUint16(buf, uint16(port))
		return Protocol{Code: code, Value: buf}, r, nil
	case CodeMemory:
		v, r, err := need(1)
		if err != nil {
			return Protocol{}, nil, err
		}
		n, err := strconv.ParseUint(v[0], 10, 64)
		if err != nil {
			return Protocol{}, nil, fmt.Errorf("%w: bad memory %q", ErrInvalidValue, v[0])
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, n)
		return Protocol{Code: code, Value: buf}, r, nil
	case CodePeer:
		v, r, err := need(1)
		if err != nil {
			return Protocol{}, nil, err
		}
		id, err := peer.Decode(v[0])
		if err != nil {
			return Protocol{}, nil, fmt.Errorf("%w: bad peer %q: %v", ErrInvalidValue, v[0], err)
		}
		return Protocol{Code: code, Value: id.Bytes()}, r, nil
	case CodeDNS, CodeDNS4, CodeDNS6, CodeSNI:
		v, r, err := need(1)
		if err != nil {
			return Protocol{}, nil, err
		}
		return Protocol{Code: code, Value: []byte(v[0])}, r, nil
	case CodePath:
		v, r, err := need(1)
		if err != nil {
			return Protocol{}, nil, err
		}
		decoded, err := url.PathUnescape(v[0])
		if err != nil {
			return Protocol{}, nil, fmt.Errorf("%w: bad path %q", ErrInvalidValue, v[0])
		}
		return Protocol{Code: code, Value: []byte(decoded)}, r, nil
	default:
		// ws/http/tls/quic/unix/circuit: zero-width
		return Protocol{Code: code}, rest, nil
	}
}
