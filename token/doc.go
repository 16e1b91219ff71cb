// Package token inspects access tokens issued by the remote API.
//
// Tokens are never verified cryptographically on this side of the wire: the
// backend is the only party holding signing keys. The [Inspector] only decodes
// the claims segment to decide whether a held token is still worth sending;
// the header is not inspected, so a missing or unknown alg does not matter.
//
// # Fail-safe bias
//
// Any decode failure (empty token, wrong segment count, bad base64, bad JSON,
// missing or non-numeric exp) reports the token as expired. Treating a valid
// token as expired costs one extra refresh; treating an expired token as valid
// sends a request that is certain to fail.
//
// # What this package must NOT do
//
//   - Verify signatures or hold key material.
//   - Perform I/O.
//   - Import goSession or session.
package token
