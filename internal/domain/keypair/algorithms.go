package keypair

import (
	"fmt"
	"strings"
)

// Algorithm is implemented by EncryptionAlgorithm and SigningAlgorithm.
type Algorithm interface {
	fmt.Stringer
	isAlgorithm()
}

// EncryptionAlgorithm selects the padding scheme used by Encrypt and Decrypt.
type EncryptionAlgorithm int

const (
	EncryptionPKCS1v15 EncryptionAlgorithm = iota + 1
	EncryptionOAEPSHA256
	EncryptionOAEPSHA512
)

var encryptionAlgorithmNames = map[EncryptionAlgorithm]string{
	EncryptionPKCS1v15:   "PKCS1_5",
	EncryptionOAEPSHA256: "OAEP_SHA256",
	EncryptionOAEPSHA512: "OAEP_SHA512",
}

func (a EncryptionAlgorithm) String() string {
	if name, ok := encryptionAlgorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("EncryptionAlgorithm(%d)", int(a))
}

// Valid reports whether a is one of the declared encryption algorithms.
func (a EncryptionAlgorithm) Valid() bool {
	_, ok := encryptionAlgorithmNames[a]
	return ok
}

func (EncryptionAlgorithm) isAlgorithm() {}

// SigningAlgorithm selects the signature scheme used by Sign and Verify.
type SigningAlgorithm int

const (
	SigningPKCS1v15SHA256 SigningAlgorithm = iota + 1
	SigningPSSSHA256
)

var signingAlgorithmNames = map[SigningAlgorithm]string{
	SigningPKCS1v15SHA256: "PKCS1_5_SHA256",
	SigningPSSSHA256:      "PSS_SHA256",
}

func (a SigningAlgorithm) String() string {
	if name, ok := signingAlgorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("SigningAlgorithm(%d)", int(a))
}

// Valid reports whether a is one of the declared signing algorithms.
func (a SigningAlgorithm) Valid() bool {
	_, ok := signingAlgorithmNames[a]
	return ok
}

func (SigningAlgorithm) isAlgorithm() {}

// ParseEncryptionAlgorithm maps a name such as "OAEP_SHA256" (case-insensitive) to its EncryptionAlgorithm.
func ParseEncryptionAlgorithm(name string) (EncryptionAlgorithm, error) {
	for alg, n := range encryptionAlgorithmNames {
		if strings.EqualFold(n, name) {
			return alg, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown encryption algorithm %q", ErrUnsupportedAlgorithm, name)
}

// ParseSigningAlgorithm maps a name such as "PSS_SHA256" (case-insensitive) to its SigningAlgorithm.
func ParseSigningAlgorithm(name string) (SigningAlgorithm, error) {
	for alg, n := range signingAlgorithmNames {
		if strings.EqualFold(n, name) {
			return alg, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown signing algorithm %q", ErrUnsupportedAlgorithm, name)
}

// OperationKind names the operation an algorithm is probed for.
type OperationKind int

const (
	OperationEncrypt OperationKind = iota + 1
	OperationDecrypt
	OperationSign
	OperationVerify
)

func (o OperationKind) String() string {
	switch o {
	case OperationEncrypt:
		return "encrypt"
	case OperationDecrypt:
		return "decrypt"
	case OperationSign:
		return "sign"
	case OperationVerify:
		return "verify"
	default:
		return fmt.Sprintf("OperationKind(%d)", int(o))
	}
}

// KeyExportFormat selects the encoding returned by PublicKey and PrivateKey.
type KeyExportFormat int

const (
	// KeyExportFormatPKCS1 is PKCS#1 DER (RSAPublicKey / RSAPrivateKey).
	KeyExportFormatPKCS1 KeyExportFormat = iota
)
