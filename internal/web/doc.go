// ABOUTME: Package documentation for the web package
// ABOUTME: Describes the HTTP surface and its auth guard composition

// Package web is the HTTP surface of mandi-gateway.
//
// Every gated route passes through requireAuth (or requireAuthJSON for API
// endpoints), which loads the cookie-bound session and re-verifies the stored
// token before admitting the request. Role-gated routes additionally pass
// through requireRole or requireRoleJSON. Handlers act on the session identity
// attached to the request context.
package web
