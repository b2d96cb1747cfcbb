// Package auth implements account registration, email confirmation,
// credential login, and revocable bearer sessions for the quiz platform.
//
// Sessions are HS256 JWTs with no expiry; every issued token is also
// stored server side, and a token is only honored while its row exists.
// Logout is row deletion, which makes single device and all device
// logout cheap and immediate.
package auth
