// Package pkcs1 decodes and encodes RSA keys in the PKCS#1 DER format (RFC 8017, appendix A.1.1 and A.1.2).
//
// Decoding never copies: every component of a decoded key is a sub-slice of the
// input buffer and stays valid only as long as that buffer is left untouched.
// Callers that keep a component beyond the input's lifetime must copy it.
//
// Components are exposed as unsigned big-endian magnitudes. The decoder checks
// DER well-formedness only; it does not check that the numbers form a usable
// RSA key.
package pkcs1
