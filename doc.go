// Package sessions provides a session and identity verification layer
// (JWT credential issuance and refresh, stateful repositories, HTTP and
// websocket entry guards) plus the single use token flows accounts need
// to prove mailbox ownership.
//
// Session lifecycle:
//   - Sign up and sign in open a session by issuing an access/refresh
//     pair and installing the refresh credential in the CredentialStore
//     under the account id. One credential exists per account; a new
//     sign in supersedes the previous session.
//   - Refresh decodes the presented access token only to recover the
//     account id, then verifies the STORED refresh credential and mints
//     a fresh access token from its claims. Sign out deletes the stored
//     credential, which is also how revocation works.
//
// Entry guards:
//   - Guard runs the shared checks every authenticated surface needs:
//     credential verification, live account lookup, verified email
//     standing, ban list. The guardware middleware carries it over
//     HTTP routes and WSGuard over websocket handshakes, so bans and
//     revocations take effect on the next request on both transports.
//
// Verification tokens:
//   - Password reset and email verification share one single use token
//     table with at most one outstanding token per account. Tokens are
//     consumed by deletion and expire on a configurable window anchored
//     at creation.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the session
//     flows to describe sign ups, sign ins, refreshes, resets, and the
//     stale account sweep. Sinks run best-effort (errors are logged) so
//     you can forward to a database or queue without blocking session
//     traffic.
package sessions
