// Package server provides the HTTP server for dbc-connect.
//
// the server is configured through environment variables
// (see internal/config/config.go for details)
//
// The package wires
//   - the login flow, which turns an identity provider token into a server side session
//   - the /api routes, which call the directory, gateway and identity provider on behalf of the signed-in participant
//   - common infrastructure handlers (health, version, docs)
//
// middleware is in internal/server/middleware
package server
