// Package tlsroots builds the trust store used to reach the backend over
// HTTPS.
//
// The pool starts from the system roots; a PEM bundle named by
// server.ca adds private CAs, as used by staging backends behind an
// internal certificate authority.
package tlsroots
