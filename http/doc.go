// Package http implements the transport port used by the executor: one network
// exchange per call, with no retry logic of its own.
//
// Transport failures are returned as *TransportError carrying an ErrorCode.
// The codes mirror the platform URL-loading error numbers so retry policies can
// classify failures without inspecting Go network error types:
//   - CodeTimedOut (-1001): client timeout or deadline exceeded
//   - CodeCannotFindHost (-1003): DNS resolution failed
//   - CodeCannotConnectToHost (-1004): connection refused or host unreachable
//   - CodeNetworkConnectionLost (-1005): connection reset or closed mid-exchange
//   - CodeNotConnectedToInternet (-1009): no route to any network
//
// Upload and download variants report progress as a fraction in [0,1]. Values
// are derived from byte counts and are not guaranteed to be monotonic across
// redirects.
//
// Requests may be throttled with a token-bucket limiter (Builder.WithRateLimit).
package http
