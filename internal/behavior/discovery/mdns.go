package discovery

import (
	"context"
	"fmt"
	"net"

	"github.com/pion/mdns/v2"
	"golang.org/x/net/ipv4"
)

// mdnsServer wraps the single pion/mdns/v2 server/resolver this
// package needs: advertise ServiceName on the local segment and query
// for it. The library is a minimal A-record responder/resolver (it has
// no DNS-SD PTR/TXT records), so every node on the segment answers
// queries for the same ServiceName; a successful query only yields an
// address, not the answering peer's identity - that's left for the
// identify behavior to establish once a connection is made. This
// public surface (mdns.Server/mdns.Config/QueryAddr) is reconstructed
// from training knowledge, not read from a vendored copy of the
// package; see DESIGN.md.
type mdnsServer struct {
	conn *mdns.Server
}

func newMdnsServer() (*mdnsServer, error) {
	addr, err := net.ResolveUDPAddr("udp4", mdns.DefaultAddressIPv4)
	if err != nil {
		return nil, fmt.Errorf("discovery: resolving mdns multicast addr: %w", err)
	}
	sock, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("discovery: listening mdns multicast: %w", err)
	}
	conn, err := mdns.Server(ipv4.NewPacketConn(sock), nil, &mdns.Config{
		LocalNames: []string{ServiceName + "."},
	})
	if err != nil {
		sock.Close()
		return nil, fmt.Errorf("discovery: starting mdns server: %w", err)
	}
	return &mdnsServer{conn: conn}, nil
}

func (s *mdnsServer) Close() error {
	return s.conn.Close()
}

// query resolves ServiceName once, returning whichever peer answers
// first.
func (s *mdnsServer) query(ctx context.Context) (net.Addr, error) {
	_, addr, err := s.conn.QueryAddr(ctx, ServiceName+".")
	if err != nil {
		return nil, err
	}
	return addr, nil
}
