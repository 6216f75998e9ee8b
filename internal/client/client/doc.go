// Package client contains the transport half of the matchmate client.
//
// # Overview
//
// The package provides:
//  1. The backend contract used by the state containers (see Client):
//     login/register, own-profile fetch/create/update, search, favourites.
//  2. An HTTP/JSON implementation (see HTTPClient) that injects the bearer
//     token per call, tags each request with an X-Request-ID, records
//     Prometheus request metrics, and maps failures to errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) opening the
//     SQLite state file and applying the embedded goose migrations.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable. Non-2xx responses are *RemoteError
// values carrying one human-readable message; they match
// common.ErrRemoteRejected and, by status, ErrUnauthorized or
// ErrPaymentRequired with errors.Is.
//
// Timeouts and retries belong here, not in the containers: HTTPClient applies
// the configured per-request timeout and never retries.
package client
