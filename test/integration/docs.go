// Package integration contains end-to-end tests for dbc-server.
//
// These tests sign users in against a running server backed by a temporary postgres database
// (migrations applied) and check the accounts and sessions that result. The directory, gateway
// and identity provider are replaced by an in-process fake network (see fakeNetwork), which also
// serves the JWK set the identity tokens are signed with.
//
// The client and auth packages are tested separately. Fix failures there first.
package integration
