package ws

import (
	"fmt"
	"net"
	"strconv"

	"github.com/cariers/volans/pkg/ma"
)

// parsed is the decoded form of a /.../tcp/port[/tls]/ws multiaddr.
type parsed struct {
	host   string
	port   int
	secure bool
}

// parseAddr decodes addr's host, port, and TLS component. It accepts an
// ip4/ip6/dns/dns4/dns6 component followed by tcp, an optional tls, and a
// trailing ws.
func parseAddr(addr ma.Multiaddr) (parsed, error) {
	protos, err := addr.Protocols()
	if err != nil {
		return parsed{}, err
	}
	if len(protos) < 3 {
		return parsed{}, ErrNoWS
	}

	var p parsed
	switch protos[0].Code {
	case ma.CodeIP4, ma.CodeIP6:
		p.host = net.IP(protos[0].Value).String()
	case ma.CodeDNS, ma.CodeDNS4, ma.CodeDNS6:
		p.host = string(protos[0].Value)
	default:
		return parsed{}, ErrNoIP
	}

	if protos[1].Code != ma.CodeTCP {
		return parsed{}, ErrNoTCPPort
	}
	p.port = int(protos[1].Value[0])<<8 | int(protos[1].Value[1])

	rest := protos[2:]
	if len(rest) == 2 && rest[0].Code == ma.CodeTLS && rest[1].Code == ma.CodeWS {
		p.secure = true
		return p, nil
	}
	if len(rest) == 1 && rest[0].Code == ma.CodeWS {
		return p, nil
	}
	return parsed{}, ErrNoWS
}

// dialURL renders addr as a ws:// or wss:// URL string.
func dialURL(addr ma.Multiaddr) (string, error) {
	p, err := parseAddr(addr)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if p.secure {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, p.host, p.port), nil
}

// fromNetAddr renders a TCP-ish net.Addr back into a /ip4|ip6/tcp/ws
// multiaddr. Accepted connections never carry the dial side's DNS name
// or TLS choice, so the listener's own bound multiaddr supplies secure.
func fromNetAddr(addr net.Addr, secure bool) (ma.Multiaddr, error) {
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return ma.Multiaddr{}, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return ma.Multiaddr{}, err
	}
	ip := net.ParseIP(host)
	tag := "ip4"
	if ip != nil && ip.To4() == nil {
		tag = "ip6"
	}
	s := fmt.Sprintf("/%s/%s/tcp/%d", tag, host, port)
	if secure {
		s += "/tls"
	}
	s += "/ws"
	return ma.NewMultiaddr(s)
}
