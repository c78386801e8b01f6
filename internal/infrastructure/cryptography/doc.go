// Package cryptography provides the keypair.Backend implementations: a software backend built on crypto/rsa
// and a PKCS#11 backend for hardware tokens and SoftHSM.
package cryptography
