package discovery

import (
	"fmt"
	"net"

	"github.com/cariers/volans/pkg/ma"
)

// addrToMultiaddr turns whatever address family mDNS handed back into
// a dialable /ip4or6/.../tcp/port multiaddr, assuming port since bare
// address resolution doesn't carry one.
func addrToMultiaddr(addr net.Addr, port int) (ma.Multiaddr, error) {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		// Some net.Addr implementations (e.g. *net.IPAddr) have no port
		// component at all.
		host = addr.String()
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return ma.Multiaddr{}, fmt.Errorf("discovery: unparseable mdns address %q", addr.String())
	}
	proto := "ip4"
	if ip.To4() == nil {
		proto = "ip6"
	}
	return ma.NewMultiaddr(fmt.Sprintf("/%s/%s/tcp/%d", proto, ip.String(), port))
}
