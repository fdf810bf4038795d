// Package rendersim is a development-time stand-in for the remote render
// service. It serves the full wire surface: JSON-RPC composition CRUD and
// render control on /rpc, discovery and health documents, and an NDJSON
// progress stream on /events/progress.
//
// Jobs advance on a configurable tick through queued, rendering, encoding,
// and completed, publishing every transition to stream subscribers. No
// pixels are rendered beyond solid-color preview stills; the simulator
// fabricates progress so the editor core can be exercised offline and in
// tests.
package rendersim
