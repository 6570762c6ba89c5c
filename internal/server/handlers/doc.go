// Package handlers provides the HTTP handlers for the dbc-connect service.
//
// Infrastructure handlers (health, version, docs) have no dependencies. The login handlers
// exchange an identity token for a session cookie, and the network handlers call the directory,
// gateway and identity services on behalf of the signed-in participant.
package handlers
