// Package server provides HTTP routing, middleware, and the handlers for the
// bulk-messaging bridge API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # API Surface
//
//	GET  /               → liveness text
//	GET  /get-qr-status  → current session state + pairing artifact
//	POST /send-messages  → run one batch with the posted template
//
// Both JSON endpoints sit behind the shared-secret [APIKeyAuth] middleware
// (exact-match x-api-key header), plus CORS, rate limiting, security headers,
// and request logging.
//
// # Front-end Forwarder
//
// [Forwarder] is the serverless-function layer the browser actually talks to:
// it injects the API key, fixes backend addresses missing a protocol, forwards
// the backend's status code and JSON body unchanged, and converts non-JSON
// upstream responses into a 502.
package server
