package tcp

import (
	"net"
	"strconv"

	"github.com/cariers/volans/pkg/ma"
)

// toTCPAddr extracts the IP and port components from addr. It reads the
// leading ip4/ip6 component followed by a tcp component, rejecting
// anything else at the head of the address.
func toTCPAddr(addr ma.Multiaddr) (*net.TCPAddr, error) {
	protos, err := addr.Protocols()
	if err != nil {
		return nil, err
	}
	if len(protos) < 2 {
		return nil, ErrNoTCPPort
	}
	var ip net.IP
	switch protos[0].Code {
	case ma.CodeIP4, ma.CodeIP6:
		ip = net.IP(protos[0].Value)
	default:
		return nil, ErrNoIP
	}
	if protos[1].Code != ma.CodeTCP {
		return nil, ErrNoTCPPort
	}
	port := int(protos[1].Value[0])<<8 | int(protos[1].Value[1])
	return &net.TCPAddr{IP: ip, Port: port}, nil
}

// fromTCPAddr renders a net.TCPAddr back into a multiaddr, choosing ip4
// or ip6 based on the address's actual form.
func fromTCPAddr(addr *net.TCPAddr) (ma.Multiaddr, error) {
	ip4 := addr.IP.To4()
	tag := "ip4"
	host := addr.IP.String()
	if ip4 != nil {
		host = ip4.String()
	} else {
		tag = "ip6"
	}
	return ma.NewMultiaddr("/" + tag + "/" + host + "/tcp/" + strconv.Itoa(addr.Port))
}
