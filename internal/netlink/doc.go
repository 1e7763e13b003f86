// Package netlink manages the node's wireless network link.
//
// A Link wraps a Radio driver in a small state machine
// (disconnected → connecting → connected | timed out). Connect blocks the
// caller while it polls the radio, reporting one progress event per poll to
// an operator.Notifier. IsConnected always asks the radio directly, so sync
// code can gate each request on the live status.
//
// Three radios are provided:
//
//   - NMCLIRadio: joins an access point through NetworkManager (Linux)
//   - HostRadio: the OS manages the link; status is a TCP probe of the uplink
//   - SimRadio: deterministic simulator for development and tests
//
// The connect loop takes its time from an injected Clock so tests can run it
// without sleeping.
package netlink
