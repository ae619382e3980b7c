// Package service is the authorization-gated operation layer exposed to the
// shell.
//
// Every operation follows one template: verify the bearer token (except
// login and bootstrap), apply the static role policy, delegate to the
// store, and shape the response. Failures form a closed taxonomy of kinds
// (see Kind); no operation retries internally, and every failure is the
// terminal outcome of that single call.
//
// All store access is serialized through one process-wide mutex, held for
// the full duration of each call including nested account lookups. The
// service holds no record state of its own across calls.
package service
