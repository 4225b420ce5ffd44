package bridge

import "errors"

// errStatus turns a BridgeStatus.Err string back into an error.
func errStatus(msg string) error {
	if msg == "" {
		return ErrRelayRefused
	}
	return errors.New("bridge: " + msg)
}

var (
	ErrRelayRefused       = errors.New("bridge: relay refused to bridge")
	ErrDestinationUnknown = errors.New("bridge: relay has no connection to destination")
	ErrTimeout            = errors.New("bridge: timed out")
)
