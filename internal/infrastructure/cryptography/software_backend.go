package cryptography

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"errors"
	"fmt"
	"hash"
	"math/big"

	"github.com/MGTheTrain/crypto-rsa/internal/domain/keypair"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/logger"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/pkcs1"
)

// softwareKey is the keypair.Handle of the software backend. private is nil for public keys.
type softwareKey struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
}

func (k *softwareKey) BlockSize() int {
	return k.public.Size()
}

// SoftwareBackend implements keypair.Backend with the Go standard library RSA implementation.
// Its handles are immutable and safe for concurrent use.
type SoftwareBackend struct {
	logger logger.Logger
}

// NewSoftwareBackend creates and returns a new instance of SoftwareBackend
func NewSoftwareBackend(logger logger.Logger) *SoftwareBackend {
	return &SoftwareBackend{logger: logger}
}

// Generate generates an RSA key of keySizeBits.
func (b *SoftwareBackend) Generate(keySizeBits int) (keypair.Handle, keypair.Handle, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, keySizeBits)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate RSA keys: %w", err)
	}
	b.logger.Debug("Generated RSA key of ", keySizeBits, " bits")

	return &softwareKey{private: privateKey, public: &privateKey.PublicKey},
		&softwareKey{public: &privateKey.PublicKey}, nil
}

// ImportPrivate parses a PKCS#1 RSAPrivateKey and checks that its components form a consistent key.
func (b *SoftwareBackend) ImportPrivate(der []byte) (keypair.Handle, error) {
	decoded, err := pkcs1.DecodePrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}

	e, err := publicExponent(decoded.PublicExponent)
	if err != nil {
		return nil, err
	}

	privateKey := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: new(big.Int).SetBytes(decoded.Modulus), E: e},
		D:         new(big.Int).SetBytes(decoded.PrivateExponent),
		Primes: []*big.Int{
			new(big.Int).SetBytes(decoded.Prime1),
			new(big.Int).SetBytes(decoded.Prime2),
		},
	}
	if err := privateKey.Validate(); err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	privateKey.Precompute()

	crt := []struct {
		name   string
		stored []byte
		want   *big.Int
	}{
		{"exponent1", decoded.Exponent1, privateKey.Precomputed.Dp},
		{"exponent2", decoded.Exponent2, privateKey.Precomputed.Dq},
		{"coefficient", decoded.Coefficient, privateKey.Precomputed.Qinv},
	}
	for _, c := range crt {
		if new(big.Int).SetBytes(c.stored).Cmp(c.want) != 0 {
			return nil, fmt.Errorf("invalid private key: inconsistent %s", c.name)
		}
	}

	return &softwareKey{private: privateKey, public: &privateKey.PublicKey}, nil
}

// DerivePublic returns the public half of a private key handle.
func (b *SoftwareBackend) DerivePublic(private keypair.Handle) (keypair.Handle, error) {
	key, err := asSoftwareKey(private)
	if err != nil {
		return nil, err
	}
	if key.private == nil {
		return nil, errors.New("handle holds no private key")
	}
	return &softwareKey{public: key.public}, nil
}

// ImportPublic parses a PKCS#1 RSAPublicKey.
func (b *SoftwareBackend) ImportPublic(der []byte) (keypair.Handle, error) {
	decoded, err := pkcs1.DecodePublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}

	e, err := publicExponent(decoded.PublicExponent)
	if err != nil {
		return nil, err
	}

	n := new(big.Int).SetBytes(decoded.Modulus)
	if n.Sign() == 0 || n.Bit(0) == 0 {
		return nil, errors.New("invalid public key: modulus must be odd and positive")
	}

	return &softwareKey{public: &rsa.PublicKey{N: n, E: e}}, nil
}

// Export encodes the key behind h as PKCS#1 DER.
func (b *SoftwareBackend) Export(h keypair.Handle) ([]byte, error) {
	key, err := asSoftwareKey(h)
	if err != nil {
		return nil, err
	}
	if key.private != nil {
		return x509.MarshalPKCS1PrivateKey(key.private), nil
	}
	return x509.MarshalPKCS1PublicKey(key.public), nil
}

// IsAlgorithmSupported reports whether alg fits op and whether the modulus is large enough for its padding.
func (b *SoftwareBackend) IsAlgorithmSupported(h keypair.Handle, op keypair.OperationKind, alg keypair.Algorithm) bool {
	key, err := asSoftwareKey(h)
	if err != nil {
		return false
	}
	if (op == keypair.OperationDecrypt || op == keypair.OperationSign) && key.private == nil {
		return false
	}

	switch alg := alg.(type) {
	case keypair.EncryptionAlgorithm:
		if op != keypair.OperationEncrypt && op != keypair.OperationDecrypt {
			return false
		}
		switch alg {
		case keypair.EncryptionPKCS1v15:
			return key.BlockSize() >= 11
		case keypair.EncryptionOAEPSHA256:
			return key.BlockSize() >= 2*sha256.Size+2
		case keypair.EncryptionOAEPSHA512:
			return key.BlockSize() >= 2*sha512.Size+2
		}
	case keypair.SigningAlgorithm:
		if op != keypair.OperationSign && op != keypair.OperationVerify {
			return false
		}
		switch alg {
		case keypair.SigningPKCS1v15SHA256:
			return true
		case keypair.SigningPSSSHA256:
			return key.BlockSize() >= 2*sha256.Size+2
		}
	}
	return false
}

// Encrypt encrypts plaintext with the public key behind h.
func (b *SoftwareBackend) Encrypt(h keypair.Handle, alg keypair.EncryptionAlgorithm, plaintext []byte) ([]byte, error) {
	key, err := asSoftwareKey(h)
	if err != nil {
		return nil, err
	}

	if alg == keypair.EncryptionPKCS1v15 {
		return rsa.EncryptPKCS1v15(rand.Reader, key.public, plaintext)
	}
	newHash, err := oaepHash(alg)
	if err != nil {
		return nil, err
	}
	return rsa.EncryptOAEP(newHash(), rand.Reader, key.public, plaintext, nil)
}

// Decrypt decrypts ciphertext with the private key behind h.
func (b *SoftwareBackend) Decrypt(h keypair.Handle, alg keypair.EncryptionAlgorithm, ciphertext []byte) ([]byte, error) {
	key, err := asPrivateSoftwareKey(h)
	if err != nil {
		return nil, err
	}

	if alg == keypair.EncryptionPKCS1v15 {
		return rsa.DecryptPKCS1v15(rand.Reader, key.private, ciphertext)
	}
	newHash, err := oaepHash(alg)
	if err != nil {
		return nil, err
	}
	return rsa.DecryptOAEP(newHash(), rand.Reader, key.private, ciphertext, nil)
}

// Sign signs a SHA-256 digest with the private key behind h.
func (b *SoftwareBackend) Sign(h keypair.Handle, alg keypair.SigningAlgorithm, digest []byte) ([]byte, error) {
	key, err := asPrivateSoftwareKey(h)
	if err != nil {
		return nil, err
	}

	switch alg {
	case keypair.SigningPKCS1v15SHA256:
		return rsa.SignPKCS1v15(rand.Reader, key.private, crypto.SHA256, digest)
	case keypair.SigningPSSSHA256:
		return rsa.SignPSS(rand.Reader, key.private, crypto.SHA256, digest, pssOptions)
	default:
		return nil, fmt.Errorf("unknown signing algorithm %v", alg)
	}
}

// Verify checks a signature over a SHA-256 digest with the public key behind h.
func (b *SoftwareBackend) Verify(h keypair.Handle, alg keypair.SigningAlgorithm, digest, signature []byte) (bool, error) {
	key, err := asSoftwareKey(h)
	if err != nil {
		return false, err
	}

	switch alg {
	case keypair.SigningPKCS1v15SHA256:
		err = rsa.VerifyPKCS1v15(key.public, crypto.SHA256, digest, signature)
	case keypair.SigningPSSSHA256:
		err = rsa.VerifyPSS(key.public, crypto.SHA256, digest, signature, pssOptions)
	default:
		return false, fmt.Errorf("unknown signing algorithm %v", alg)
	}

	if errors.Is(err, rsa.ErrVerification) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Release drops the key references held by h.
func (b *SoftwareBackend) Release(h keypair.Handle) {
	if key, ok := h.(*softwareKey); ok {
		key.private = nil
	}
}

var pssOptions = &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: crypto.SHA256}

func oaepHash(alg keypair.EncryptionAlgorithm) (func() hash.Hash, error) {
	switch alg {
	case keypair.EncryptionOAEPSHA256:
		return sha256.New, nil
	case keypair.EncryptionOAEPSHA512:
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("unknown encryption algorithm %v", alg)
	}
}

func asSoftwareKey(h keypair.Handle) (*softwareKey, error) {
	key, ok := h.(*softwareKey)
	if !ok || key == nil || key.public == nil {
		return nil, fmt.Errorf("handle %T does not belong to the software backend", h)
	}
	return key, nil
}

func asPrivateSoftwareKey(h keypair.Handle) (*softwareKey, error) {
	key, err := asSoftwareKey(h)
	if err != nil {
		return nil, err
	}
	if key.private == nil {
		return nil, errors.New("handle holds no private key")
	}
	return key, nil
}

// publicExponent converts a PKCS#1 exponent magnitude to the int crypto/rsa expects.
func publicExponent(magnitude []byte) (int, error) {
	e := new(big.Int).SetBytes(magnitude)
	if !e.IsInt64() || e.Int64() < 3 || e.Int64() > 1<<31-1 || e.Bit(0) == 0 {
		return 0, errors.New("invalid public key: unsupported public exponent")
	}
	return int(e.Int64()), nil
}
