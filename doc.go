// Package identity provides the identity and authorization core for
// PhotoFlow-style applications: credential hashing, scope-tagged bearer
// tokens, a read-through identity cache, and composable authorization
// guards.
//
// Tokens:
//   - TokenService issues and verifies HS256 JWTs tagged with a Scope
//     (access, email confirmation, password reset). A token is only
//     accepted by the operation whose scope it was minted with, and
//     verification distinguishes malformed, signature-invalid, expired,
//     and scope-mismatch failures so callers can react differently.
//
// Identity cache:
//   - Cache resolves a subject email to a Snapshot through a pluggable
//     CacheBackend. Misses are collapsed per key with a single-flight
//     group so concurrent callers share one backing-store load. Entries
//     expire at write-time + TTL regardless of read activity.
//
// Guards:
//   - Service.Guard composes the standard check chain (authenticate,
//     resolve, active, role membership) into a GuardFn that protected
//     operations run before doing work. The confirmed-email check is a
//     separate, narrower guard.
//
// Lifecycle flows:
//   - Email confirmation and password reset are command handlers built
//     on scoped tokens. Reset tokens embed the identity's credential
//     version, so a token replayed after a successful reset is rejected
//     as stale.
package identity
