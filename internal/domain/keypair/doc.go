// Package keypair implements the RSA key pair entity: construction from a freshly generated key or from PKCS#1 DER,
// reference counted lifecycle with zeroing of key material on destruction, and the validation layer in front of the
// encrypt, decrypt, sign and verify operations of a pluggable Backend.
package keypair
