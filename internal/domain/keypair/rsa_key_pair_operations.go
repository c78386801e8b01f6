package keypair

import (
	"fmt"
)

// Output buffers: every operation that produces bytes takes an out slice and
// appends the result to it without growing it. A nil out gets a freshly
// allocated slice of the exact result size. When the spare capacity of a
// non-nil out is too small the operation fails with ErrShortBuffer and out is
// not written to.

// BlockLength returns the RSA block size in bytes, which is also the ciphertext length.
func (kp *RSAKeyPair) BlockLength() int {
	return kp.keySizeBits / 8
}

// SignatureLength returns the signature size in bytes.
func (kp *RSAKeyPair) SignatureLength() int {
	return kp.keySizeBits / 8
}

// MaxEncryptPlaintextSize returns the largest plaintext Encrypt accepts for alg.
// It panics if alg is not a declared EncryptionAlgorithm.
func (kp *RSAKeyPair) MaxEncryptPlaintextSize(alg EncryptionAlgorithm) int {
	n := kp.BlockLength()
	switch alg {
	case EncryptionPKCS1v15:
		return n - 11
	case EncryptionOAEPSHA256:
		return n - 2*32 - 2
	case EncryptionOAEPSHA512:
		return n - 2*64 - 2
	default:
		panic(fmt.Sprintf("keypair: unknown encryption algorithm %v", alg))
	}
}

// Encrypt encrypts plaintext with the public key and appends the ciphertext to out.
func (kp *RSAKeyPair) Encrypt(alg EncryptionAlgorithm, plaintext, out []byte) ([]byte, error) {
	kp.mustBeLive()
	if !alg.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, alg)
	}
	if kp.publicHandle == nil {
		return nil, fmt.Errorf("%w: encrypt needs a public key", ErrMissingRequiredKeyComponent)
	}
	if limit := kp.MaxEncryptPlaintextSize(alg); len(plaintext) > limit {
		return nil, fmt.Errorf("%w: %d byte plaintext exceeds %d bytes for %v",
			ErrBufferTooLargeForAlgorithm, len(plaintext), limit, alg)
	}
	if err := kp.checkSupported(kp.publicHandle, OperationEncrypt, alg); err != nil {
		return nil, err
	}
	if err := checkCapacity(out, kp.BlockLength()); err != nil {
		return nil, err
	}

	ciphertext, err := kp.backend.Encrypt(kp.publicHandle, alg, plaintext)
	if err != nil {
		return nil, kp.systemCallFailure("encrypt", err)
	}
	return appendResult(out, ciphertext)
}

// Decrypt decrypts a single-block ciphertext with the private key and appends the plaintext to out.
func (kp *RSAKeyPair) Decrypt(alg EncryptionAlgorithm, ciphertext, out []byte) ([]byte, error) {
	kp.mustBeLive()
	if !alg.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, alg)
	}
	if kp.privateHandle == nil {
		return nil, fmt.Errorf("%w: decrypt needs a private key", ErrMissingRequiredKeyComponent)
	}
	if len(ciphertext) != kp.BlockLength() {
		return nil, fmt.Errorf("%w: ciphertext is %d bytes, want %d",
			ErrInvalidArgument, len(ciphertext), kp.BlockLength())
	}
	if err := kp.checkSupported(kp.privateHandle, OperationDecrypt, alg); err != nil {
		return nil, err
	}

	plaintext, err := kp.backend.Decrypt(kp.privateHandle, alg, ciphertext)
	if err != nil {
		return nil, kp.systemCallFailure("decrypt", err)
	}
	defer clear(plaintext)

	return appendResult(out, plaintext)
}

// Sign signs digest with the private key and appends the signature to out.
// The digest length is left to the backend and algorithm to check.
func (kp *RSAKeyPair) Sign(alg SigningAlgorithm, digest, out []byte) ([]byte, error) {
	kp.mustBeLive()
	if !alg.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, alg)
	}
	if kp.privateHandle == nil {
		return nil, fmt.Errorf("%w: sign needs a private key", ErrMissingRequiredKeyComponent)
	}
	if err := kp.checkSupported(kp.privateHandle, OperationSign, alg); err != nil {
		return nil, err
	}
	if err := checkCapacity(out, kp.SignatureLength()); err != nil {
		return nil, err
	}

	signature, err := kp.backend.Sign(kp.privateHandle, alg, digest)
	if err != nil {
		return nil, kp.systemCallFailure("sign", err)
	}
	return appendResult(out, signature)
}

// Verify checks signature over digest with the public key.
// It returns nil only when the signature is cryptographically valid.
func (kp *RSAKeyPair) Verify(alg SigningAlgorithm, digest, signature []byte) error {
	kp.mustBeLive()
	if !alg.Valid() {
		return fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, alg)
	}
	if kp.publicHandle == nil {
		return fmt.Errorf("%w: verify needs a public key", ErrMissingRequiredKeyComponent)
	}
	if err := kp.checkSupported(kp.publicHandle, OperationVerify, alg); err != nil {
		return err
	}

	valid, err := kp.backend.Verify(kp.publicHandle, alg, digest, signature)
	if err != nil {
		return kp.systemCallFailure("verify", err)
	}
	if !valid {
		return ErrSignatureValidationFailed
	}
	return nil
}

func (kp *RSAKeyPair) checkSupported(h Handle, op OperationKind, alg Algorithm) error {
	if !kp.backend.IsAlgorithmSupported(h, op, alg) {
		return fmt.Errorf("%w: %v is not available to %s with this key", ErrUnsupportedAlgorithm, alg, op)
	}
	return nil
}

func checkCapacity(out []byte, n int) error {
	if out != nil && cap(out)-len(out) < n {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, n, cap(out)-len(out))
	}
	return nil
}

func appendResult(out, result []byte) ([]byte, error) {
	if out == nil {
		out = make([]byte, 0, len(result))
	}
	if err := checkCapacity(out, len(result)); err != nil {
		return nil, err
	}
	return append(out, result...), nil
}
