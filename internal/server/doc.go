// Package server holds the HTTP plumbing shared by the OAuth login flow and the web surface.
//
// # Routing
//
// [Router] registers method/path pairs and [Handler] values, which list their own routes.
// [MuxRouter] is backed by github.com/gorilla/mux, so a path hit with the wrong method gets a 405.
// Middleware added with Use runs in the order it was added: the first one sees the request first.
// [Logging] writes one line per request and [Recover] turns panics into a 500.
//
// # Login callback
//
// [OAuthHandler] serves the redirect from Spotify. Requests with the wrong state are turned away untouched.
// The first one with the right state trades the code for a token and publishes the only [OAuthResult].
// `playgen auth login` mounts it on the address from the [server] config section
// (localhost:8502 unless changed) and stops listening once a result arrives.
//
// # Lifecycle
//
// [Serve] and [ListenAndServe] block until the context ends, then shut the [http.Server] down.
package server
