// Package cli provides the interactive matchmate command-line client.
//
// It wires configuration, local storage, the event bus, the HTTP transport
// and the four state containers (session, profile, search, favourites), and
// runs a REPL on top of them. Typical flow: log in, complete the profile,
// set age filters, search, and collect favourites.
//
// Session changes made by another client process on the same store (via the
// Redis bus, when configured) are followed: the containers drop state that
// belongs to a different user.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, Bootstrap and runREPL for details.
package cli
