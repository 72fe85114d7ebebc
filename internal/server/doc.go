// Package server implements the HTTP server and handlers for image-drop:
// user registration, password login issuing bearer tokens, and the
// token-guarded image upload endpoint. It wires the routes, the in-memory
// user store, and the blob storage backend, and provides lifecycle helpers
// used by tests and the production binary.
package server
