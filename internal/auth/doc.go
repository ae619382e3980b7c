// Package auth provides credential verification and signed claims tokens.
//
// Passwords are hashed with bcrypt at the default cost after a minimum
// length check. Tokens are HS256 JWTs signed with one symmetric secret,
// carrying {subject account id, role, expiry}; expiry is always exactly 24
// hours from issuance. Verification collapses every failure mode into
// ErrInvalidToken.
//
// A single fixed secret and one expiry window trade flexibility for the
// simplicity appropriate to a single-installation desktop tool.
package auth
