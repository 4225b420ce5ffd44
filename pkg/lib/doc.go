// Package lib collects infrastructure helpers that don't belong to any
// single architectural component:
//
//   - log: structured logging wrapper over log/slog
//
// Example:
//
//	import "github.com/cariers/volans/pkg/lib/log"
package lib
