// Package remotesync moves JSON documents between the node and a remote
// document store over HTTP.
//
// Documents are addressed by path. Every URL is built the same way: the
// store host, one "/" separator, the path with a ".json" suffix, then the
// optional "?auth=<secret>" token as the final component:
//
//	remotesync.BuildURL("http://dev.local", "sensors/current", "abc123")
//	// http://dev.local/sensors/current.json?auth=abc123
//
// # Sync Operations
//
// Put, Post, Get and Patch each make exactly one attempt and return an int:
//
//   - a positive HTTP status code when the store answered (including non-2xx)
//   - StatusNoLink (-1) when the link was down and nothing was sent
//   - a lower negative Status constant when the transport failed
//
// The link is checked immediately before every request through the
// LinkChecker passed to NewClient. Nothing is retried, queued or replayed;
// a failed write is simply lost and the next cycle sends fresh state.
//
// Response sinks passed to Post and Get are written only when the returned
// code is positive:
//
//	var body []byte
//	if code := client.Get("lightControl", &body); remotesync.IsSuccess(code) {
//	    // decode body
//	}
//
// # Error Handling
//
// Transport failures are classified by ClassifyTransportError. The most
// recent one is available from LastError for CLI troubleshooting output;
// the auth token is redacted from it and from debug logs.
package remotesync
