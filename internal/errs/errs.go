// Package errs defines the error kinds shared across the control and data
// path surfaces (spec §7). RPC handlers translate these to gRPC status
// codes; classifiers never surface them and pass packets through instead.
package errs

import "errors"

var (
	// ErrConfig marks an invalid argument supplied by an RPC client.
	ErrConfig = errors.New("config error")
	// ErrResourceExhausted marks a capacity limit being hit (a map or a
	// BackendList is full).
	ErrResourceExhausted = errors.New("resource exhausted")
	// ErrRouteLookup marks a failed netlink route resolution.
	ErrRouteLookup = errors.New("route lookup error")
	// ErrMapIO marks a failed syscall against one of the shared BPF maps.
	ErrMapIO = errors.New("map io error")
	// ErrTransport marks a TLS/transport setup failure.
	ErrTransport = errors.New("transport error")
	// ErrNotFound marks a missing key; delete paths treat this as success.
	ErrNotFound = errors.New("not found")
)
