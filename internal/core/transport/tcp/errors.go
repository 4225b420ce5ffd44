package tcp

import "errors"

var (
	// ErrTransportClosed is returned by Dial/Listen once Close has run.
	ErrTransportClosed = errors.New("tcp: transport closed")

	// ErrNoTCPPort is returned when a multiaddr carries no /tcp component.
	ErrNoTCPPort = errors.New("tcp: address has no tcp component")

	// ErrNoIP is returned when a multiaddr carries neither /ip4 nor /ip6.
	ErrNoIP = errors.New("tcp: address has no ip4 or ip6 component")
)
