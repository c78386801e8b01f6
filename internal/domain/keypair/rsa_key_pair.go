package keypair

import (
	"bytes"
	"fmt"
	"sync/atomic"

	"github.com/MGTheTrain/crypto-rsa/internal/pkg/logger"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/validators"
)

// RSAKeyPair is an RSA key bound to one Backend.
//
// Key material is fixed after construction, so a key pair may be used from
// several goroutines at once as long as the backend tolerates it. Ownership is
// shared through Acquire and Release; the last Release zeroes the exported key
// bytes and releases the backend handles. Using a key pair after its last
// Release panics.
type RSAKeyPair struct {
	refCount atomic.Int32

	keySizeBits int
	publicKey   []byte
	privateKey  []byte

	privateHandle Handle
	publicHandle  Handle

	backend Backend
	logger  logger.Logger
}

func newRSAKeyPair(backend Backend, logger logger.Logger) *RSAKeyPair {
	if backend == nil {
		panic("keypair: nil backend")
	}
	return &RSAKeyPair{backend: backend, logger: logger}
}

// GenerateRandom creates a key pair holding a freshly generated key of keySizeBits.
// keySizeBits must lie within [MinSupportedKeySize, MaxSupportedKeySize] and be a multiple of 8.
func GenerateRandom(backend Backend, logger logger.Logger, keySizeBits int) (_ *RSAKeyPair, err error) {
	if !validators.IsValidRSAKeySize(int64(keySizeBits)) {
		return nil, fmt.Errorf("%w: key size %d must be a multiple of 8 within [%d, %d]",
			ErrInvalidArgument, keySizeBits, MinSupportedKeySize, MaxSupportedKeySize)
	}

	kp := newRSAKeyPair(backend, logger)
	defer kp.cleanupOnError(&err)

	kp.privateHandle, kp.publicHandle, err = backend.Generate(keySizeBits)
	if err != nil {
		return nil, kp.systemCallFailure("generate key pair", err)
	}

	if kp.privateKey, err = kp.export(kp.privateHandle, "private"); err != nil {
		return nil, err
	}
	if kp.publicKey, err = kp.export(kp.publicHandle, "public"); err != nil {
		return nil, err
	}

	kp.keySizeBits = kp.privateHandle.BlockSize() * 8
	if kp.keySizeBits != keySizeBits {
		return nil, fmt.Errorf("%w: backend generated a %d bit key, requested %d",
			ErrSystemCallFailure, kp.keySizeBits, keySizeBits)
	}

	kp.refCount.Store(1)
	kp.logger.Info("Generated RSA key pair of ", keySizeBits, " bits")
	return kp, nil
}

// NewFromPrivateKeyPKCS1 creates a key pair from a PKCS#1 RSAPrivateKey. der is copied.
func NewFromPrivateKeyPKCS1(backend Backend, logger logger.Logger, der []byte) (_ *RSAKeyPair, err error) {
	if len(der) == 0 {
		return nil, fmt.Errorf("%w: empty private key", ErrInvalidArgument)
	}

	kp := newRSAKeyPair(backend, logger)
	defer kp.cleanupOnError(&err)

	kp.privateKey = bytes.Clone(der)

	kp.privateHandle, err = backend.ImportPrivate(kp.privateKey)
	if err != nil {
		kp.logger.Warn("Backend rejected RSA private key: ", err)
		return nil, fmt.Errorf("%w: private key rejected: %w", ErrInvalidArgument, err)
	}

	kp.publicHandle, err = backend.DerivePublic(kp.privateHandle)
	if err != nil {
		return nil, kp.systemCallFailure("derive public key", err)
	}

	if kp.publicKey, err = kp.export(kp.publicHandle, "public"); err != nil {
		return nil, err
	}

	if err = kp.setKeySizeFrom(kp.privateHandle); err != nil {
		return nil, err
	}

	kp.refCount.Store(1)
	kp.logger.Info("Imported RSA private key of ", kp.keySizeBits, " bits")
	return kp, nil
}

// NewFromPublicKeyPKCS1 creates a public-only key pair from a PKCS#1 RSAPublicKey. der is copied.
// Decrypt, Sign and PrivateKey fail with ErrMissingRequiredKeyComponent on the result.
func NewFromPublicKeyPKCS1(backend Backend, logger logger.Logger, der []byte) (_ *RSAKeyPair, err error) {
	if len(der) == 0 {
		return nil, fmt.Errorf("%w: empty public key", ErrInvalidArgument)
	}

	kp := newRSAKeyPair(backend, logger)
	defer kp.cleanupOnError(&err)

	kp.publicKey = bytes.Clone(der)

	kp.publicHandle, err = backend.ImportPublic(kp.publicKey)
	if err != nil {
		kp.logger.Warn("Backend rejected RSA public key: ", err)
		return nil, fmt.Errorf("%w: public key rejected: %w", ErrInvalidArgument, err)
	}

	if err = kp.setKeySizeFrom(kp.publicHandle); err != nil {
		return nil, err
	}

	kp.refCount.Store(1)
	kp.logger.Info("Imported RSA public key of ", kp.keySizeBits, " bits")
	return kp, nil
}

func (kp *RSAKeyPair) setKeySizeFrom(h Handle) error {
	bits := h.BlockSize() * 8
	if !validators.IsValidRSAKeySize(int64(bits)) {
		return fmt.Errorf("%w: key size %d outside [%d, %d]",
			ErrInvalidArgument, bits, MinSupportedKeySize, MaxSupportedKeySize)
	}
	kp.keySizeBits = bits
	return nil
}

func (kp *RSAKeyPair) export(h Handle, kind string) ([]byte, error) {
	der, err := kp.backend.Export(h)
	if err != nil {
		return nil, kp.systemCallFailure("export "+kind+" key", err)
	}
	if len(der) == 0 {
		return nil, fmt.Errorf("%w: backend exported an empty %s key", ErrSystemCallFailure, kind)
	}
	return der, nil
}

// cleanupOnError destroys a partially built key pair when construction fails.
func (kp *RSAKeyPair) cleanupOnError(err *error) {
	if *err != nil {
		kp.destroy()
	}
}

func (kp *RSAKeyPair) systemCallFailure(op string, err error) error {
	kp.logger.Error("RSA backend failed to ", op, ": ", err)
	return fmt.Errorf("%w: %s: %w", ErrSystemCallFailure, op, err)
}

// Acquire adds a reference and returns kp.
func (kp *RSAKeyPair) Acquire() *RSAKeyPair {
	for {
		n := kp.refCount.Load()
		if n <= 0 {
			panic("keypair: Acquire on a released key pair")
		}
		if kp.refCount.CompareAndSwap(n, n+1) {
			return kp
		}
	}
}

// Release drops a reference. Dropping the last one destroys the key pair.
func (kp *RSAKeyPair) Release() {
	n := kp.refCount.Add(-1)
	switch {
	case n == 0:
		kp.destroy()
	case n < 0:
		panic("keypair: Release on a released key pair")
	}
}

func (kp *RSAKeyPair) destroy() {
	clear(kp.privateKey)
	clear(kp.publicKey)
	kp.privateKey = nil
	kp.publicKey = nil

	if kp.privateHandle != nil {
		kp.backend.Release(kp.privateHandle)
		kp.privateHandle = nil
	}
	if kp.publicHandle != nil {
		kp.backend.Release(kp.publicHandle)
		kp.publicHandle = nil
	}
}

func (kp *RSAKeyPair) mustBeLive() {
	if kp.refCount.Load() <= 0 {
		panic("keypair: use of a released key pair")
	}
}

// KeySizeBits returns the modulus size in bits.
func (kp *RSAKeyPair) KeySizeBits() int {
	return kp.keySizeBits
}

// HasPrivateKey reports whether the key pair holds the private half.
func (kp *RSAKeyPair) HasPrivateKey() bool {
	kp.mustBeLive()
	return kp.privateHandle != nil
}

// PublicKey returns the PKCS#1 RSAPublicKey bytes. The slice is owned by kp and must not be modified
// or used after the last Release. format is accepted for forward compatibility; only
// KeyExportFormatPKCS1 exists.
func (kp *RSAKeyPair) PublicKey(format KeyExportFormat) ([]byte, error) {
	kp.mustBeLive()
	return kp.publicKey, nil
}

// PrivateKey returns the PKCS#1 RSAPrivateKey bytes under the same ownership rules as PublicKey.
func (kp *RSAKeyPair) PrivateKey(format KeyExportFormat) ([]byte, error) {
	kp.mustBeLive()
	if len(kp.privateKey) == 0 {
		return nil, fmt.Errorf("%w: key pair holds no private key", ErrMissingRequiredKeyComponent)
	}
	return kp.privateKey, nil
}
