package keypair

import "github.com/MGTheTrain/crypto-rsa/internal/pkg/validators"

const (
	// MinSupportedKeySize is the smallest modulus size in bits a key pair accepts.
	MinSupportedKeySize = validators.MinRSAKeySize
	// MaxSupportedKeySize is the largest modulus size in bits a key pair accepts.
	MaxSupportedKeySize = validators.MaxRSAKeySize
)

// Handle is an opaque backend key reference. It is owned by exactly one RSAKeyPair and released through Backend.Release.
type Handle interface {
	// BlockSize returns the modulus size in bytes.
	BlockSize() int
}

// Backend performs the RSA mathematics on behalf of an RSAKeyPair.
// Implementations report failures as plain errors; the key pair maps them to ErrSystemCallFailure or ErrInvalidArgument.
type Backend interface {
	// Generate creates a fresh key of keySizeBits and returns handles to its private and public halves.
	Generate(keySizeBits int) (private Handle, public Handle, err error)

	// ImportPrivate materializes a private key from PKCS#1 RSAPrivateKey DER.
	ImportPrivate(der []byte) (Handle, error)

	// DerivePublic returns a handle to the public half of a private key.
	DerivePublic(private Handle) (Handle, error)

	// ImportPublic materializes a public key from PKCS#1 RSAPublicKey DER.
	ImportPublic(der []byte) (Handle, error)

	// Export returns the PKCS#1 DER encoding of the key behind h.
	Export(h Handle) ([]byte, error)

	// IsAlgorithmSupported reports whether alg can be used for op with the key behind h.
	IsAlgorithmSupported(h Handle, op OperationKind, alg Algorithm) bool

	Encrypt(h Handle, alg EncryptionAlgorithm, plaintext []byte) ([]byte, error)
	Decrypt(h Handle, alg EncryptionAlgorithm, ciphertext []byte) ([]byte, error)
	Sign(h Handle, alg SigningAlgorithm, digest []byte) ([]byte, error)

	// Verify reports whether signature is valid for digest. A mismatch is (false, nil), not an error.
	Verify(h Handle, alg SigningAlgorithm, digest, signature []byte) (bool, error)

	// Release frees the resources behind h. It is called exactly once per handle.
	Release(h Handle)
}
