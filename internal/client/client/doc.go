// Package client talks to the remote notes service over JSON/HTTP.
//
// Client is the contract used by the rest of the application; HTTPClient is
// its implementation. The session is kept in a cookie jar, so after Login or
// Signup every request is authenticated.
//
// # Errors
//
// Failures are reported with sentinels matched by errors.Is:
//
//   - ErrUnavailable / ErrTransport: no HTTP response (network, timeout, bad body).
//   - ErrRemoteRejected: the server answered with a non-2xx status; the
//     concrete *RemoteError carries the status and message.
//   - ErrNotAuthenticated: a 401 response, or no session at all.
package client
