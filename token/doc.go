// Package token decodes access tokens on the client side and signs them in the
// mock backend.
//
// Client-side decoding never verifies the signature. The identity it yields is
// for display only and must not drive authorization decisions; the server that
// issued the token over a trusted transport remains the authority.
package token
