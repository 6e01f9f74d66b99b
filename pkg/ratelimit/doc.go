// Package ratelimit paces requests to the remote host.
//
// Interval spaces consecutive asset downloads by a fixed courtesy delay and
// TokenBucket caps pagination requests per minute. Both honour context
// cancellation while waiting.
package ratelimit
