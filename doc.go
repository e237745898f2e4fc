// Package auth provides stateless customer authentication on top of opaque,
// store-resolved access tokens with sliding expiry, plus the companion
// password reset token lifecycle.
//
// Access tokens:
//   - AccessTokenService issues one token per customer (a new login replaces
//     the previous token), validates presented tokens lazily against the
//     configured timeout, and slides the validity window forward when a
//     token is used close to its expiry. Dormant tokens expire after one
//     timeout of inactivity; active customers never re-authenticate.
//
// Password resets:
//   - PasswordResetService issues single-use reset tokens and consumes them
//     when the password actually changes. Finalize always clears any live
//     access token, forcing a fresh login after a password change.
//
// Orchestration:
//   - Auther sits above the credential verifier and both token services and
//     runs the post-login side effects: the cart merge hook and the
//     ActivitySink trace events. Hooks are best-effort, their failures are
//     logged and never roll back a login. FederatedLogin trusts an external
//     provider's assertion and registers first-time customers through the
//     Registrar collaborator.
//
// The authenticated customer travels explicitly via WithContext/FromContext;
// there is no ambient process-wide identity.
package auth
