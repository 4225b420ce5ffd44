package ws

import "errors"

var (
	// ErrTransportClosed is returned by Dial/Listen once Close has run.
	ErrTransportClosed = errors.New("ws: transport closed")

	// ErrNoTCPPort is returned when a multiaddr carries no /tcp component.
	ErrNoTCPPort = errors.New("ws: address has no tcp component")

	// ErrNoIP is returned when a multiaddr carries neither /ip4, /ip6,
	// /dns4, /dns6 nor /dns.
	ErrNoIP = errors.New("ws: address has no ip4, ip6, or dns component")

	// ErrNoWS is returned when a multiaddr's final component (after an
	// optional /tls) is not /ws.
	ErrNoWS = errors.New("ws: address has no ws component")
)
