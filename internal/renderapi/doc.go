// Package renderapi defines the wire surface shared by the render client
// and the render service: the JSON-RPC 2.0 envelope posted to /rpc, the
// method names, the parameter and result payloads, the discovery and health
// documents, and the progress event pushed over /events/progress.
//
// Both sides import this package so request and response shapes can never
// drift apart.
package renderapi
