// Package core contains the webhook delivery domain: endpoints, subscriptions,
// delivery ledger records, the wire envelope, and the contracts that storage,
// transport and queue adapters implement. Adapters depend on core; core does
// not depend on any adapter.
package core
