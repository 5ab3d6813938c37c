// Package webhooks resolves subscribers for record events and delivers signed
// HTTP callbacks to their endpoints.
//
// A delivery moves through pending -> attempting -> (retrying -> attempting)*
// -> delivered|failed. Each attempt issues a GET ping first and falls back to
// a JSON POST when the GET does not return 2xx. The delivery ledger mirrors
// every transition but never drives it: ledger write failures are logged and
// the attempt loop continues on in-memory state.
package webhooks
