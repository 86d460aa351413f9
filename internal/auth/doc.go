// Package auth verifies externally-issued session tokens for mandi-gateway.
//
// # Token Model
//
// Visitors authenticate against an external identity issuer which hands the
// browser an HS256-signed JWT. The gateway never talks to the issuer at
// runtime; it verifies tokens locally against the shared signing secret.
//
// Claims extracted into an Identity: sub (required), email, user_metadata,
// app_metadata, aud, role, iat, exp.
//
// # Clock Skew
//
// Expiry and issued-at are enforced with a symmetric 60 second leeway
// (Leeway) so that issuer and verifier clocks may drift without rejecting
// valid tokens. A token whose exp is 30 seconds in the past still verifies;
// one 61 seconds in the past does not.
//
// # Audience
//
// Audience claim checking is disabled by default and opt-in via
// WithAudience. This is a deliberate looseness carried over from the
// deployed system, surfaced as configuration rather than silently picked.
//
// # Revocation
//
// There is no server-side revocation list. The web layer re-verifies the
// stored token on every gated request, so an expired or re-signed token
// tears the session down on the next request rather than lingering until
// the session itself expires.
package auth
