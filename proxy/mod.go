// Package proxy defines the primitives of the server that exposes the host to
// the clients.
package proxy

import (
	"net"
	"net/http"
)

// Proxy defines the primitives to implement an http server that handles client
// side requests.
type Proxy interface {
	// Listen starts the proxy server. This call is assumed to be blocking.
	Listen()

	// Stop stops the proxy server.
	Stop()

	// Mount attaches the handler to every path under the pattern.
	Mount(pattern string, handler http.Handler)

	// GetAddr returns the address the server is listening on, or nil if it is
	// not listening yet.
	GetAddr() net.Addr
}
