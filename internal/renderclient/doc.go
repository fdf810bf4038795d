// Package renderclient is the wire adapter for the remote render service.
// It speaks JSON-RPC 2.0 over HTTP for composition CRUD, render control,
// preview stills, and intent parsing, plus plain GETs for discovery and
// health.
//
// Failures are typed: a network failure or non-success HTTP status becomes
// a *TransportError, a well-formed RPC error envelope becomes a
// *ProtocolError. The client never retries; retry policy belongs to the
// orchestrator.
//
// Progress subscriptions share one push-stream connection. The connection
// opens lazily on the first subscription and closes when the last
// subscriber unsubscribes; incoming messages are routed to the subscriber
// registered for the embedded job id.
package renderclient
