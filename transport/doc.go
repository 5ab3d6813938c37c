// Package transport issues the outbound HTTP requests for webhook attempts.
package transport
