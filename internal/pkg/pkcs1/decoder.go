package pkcs1

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

var (
	// ErrMalformedASN1 is returned when the input is not a well-formed PKCS#1 DER structure.
	ErrMalformedASN1 = errors.New("malformed ASN.1 encountered")

	// ErrUnsupportedKeyFormat is returned for well-formed keys of a version other than two-prime (version 0).
	ErrUnsupportedKeyFormat = errors.New("unsupported key format")
)

// PrivateKey holds the components of an RSAPrivateKey structure.
type PrivateKey struct {
	Version         int
	Modulus         []byte
	PublicExponent  []byte
	PrivateExponent []byte
	Prime1          []byte
	Prime2          []byte
	Exponent1       []byte
	Exponent2       []byte
	Coefficient     []byte
}

// PublicKey holds the components of an RSAPublicKey structure.
type PublicKey struct {
	Modulus        []byte
	PublicExponent []byte
}

type namedComponent struct {
	name string
	dst  *[]byte
}

// components lists the INTEGER fields following the version in the order RFC 8017 mandates.
func (k *PrivateKey) components() []namedComponent {
	return []namedComponent{
		{"modulus", &k.Modulus},
		{"publicExponent", &k.PublicExponent},
		{"privateExponent", &k.PrivateExponent},
		{"prime1", &k.Prime1},
		{"prime2", &k.Prime2},
		{"exponent1", &k.Exponent1},
		{"exponent2", &k.Exponent2},
		{"coefficient", &k.Coefficient},
	}
}

func (k *PublicKey) components() []namedComponent {
	return []namedComponent{
		{"modulus", &k.Modulus},
		{"publicExponent", &k.PublicExponent},
	}
}

// DecodePrivateKey parses a DER encoded RSAPrivateKey.
//
// Only version 0 (two-prime) keys are accepted; any other version yields
// ErrUnsupportedKeyFormat. A missing or mistyped field, a negative or
// non-minimal INTEGER, and any byte after the coefficient yield ErrMalformedASN1.
// On error no key is returned.
func DecodePrivateKey(der []byte) (*PrivateKey, error) {
	input := cryptobyte.String(der)

	var seq cryptobyte.String
	if !input.ReadASN1(&seq, asn1.SEQUENCE) {
		return nil, fmt.Errorf("%w: expected RSAPrivateKey SEQUENCE", ErrMalformedASN1)
	}

	var version cryptobyte.String
	if !seq.ReadASN1(&version, asn1.INTEGER) {
		return nil, fmt.Errorf("%w: missing version", ErrMalformedASN1)
	}
	if len(version) != 1 || version[0] != 0 {
		return nil, fmt.Errorf("%w: RSAPrivateKey version must be 0", ErrUnsupportedKeyFormat)
	}

	var key PrivateKey
	if err := readComponents(&seq, key.components()); err != nil {
		return nil, err
	}
	if err := checkFullyConsumed(seq, input); err != nil {
		return nil, err
	}

	return &key, nil
}

// DecodePublicKey parses a DER encoded RSAPublicKey.
func DecodePublicKey(der []byte) (*PublicKey, error) {
	input := cryptobyte.String(der)

	var seq cryptobyte.String
	if !input.ReadASN1(&seq, asn1.SEQUENCE) {
		return nil, fmt.Errorf("%w: expected RSAPublicKey SEQUENCE", ErrMalformedASN1)
	}

	var key PublicKey
	if err := readComponents(&seq, key.components()); err != nil {
		return nil, err
	}
	if err := checkFullyConsumed(seq, input); err != nil {
		return nil, err
	}

	return &key, nil
}

func readComponents(seq *cryptobyte.String, components []namedComponent) error {
	for _, c := range components {
		if !readUnsignedInteger(seq, c.dst) {
			return fmt.Errorf("%w: missing or invalid %s", ErrMalformedASN1, c.name)
		}
	}
	return nil
}

func checkFullyConsumed(seq, input cryptobyte.String) error {
	if !seq.Empty() {
		return fmt.Errorf("%w: unexpected fields after last component", ErrMalformedASN1)
	}
	if !input.Empty() {
		return fmt.Errorf("%w: trailing data after key", ErrMalformedASN1)
	}
	return nil
}

// readUnsignedInteger reads a non-negative, minimally encoded INTEGER and
// stores its magnitude without the DER sign octet. out aliases s.
func readUnsignedInteger(s *cryptobyte.String, out *[]byte) bool {
	var v cryptobyte.String
	if !s.ReadASN1(&v, asn1.INTEGER) || len(v) == 0 {
		return false
	}
	if v[0]&0x80 != 0 {
		return false
	}
	if len(v) > 1 && v[0] == 0 {
		if v[1]&0x80 == 0 {
			return false
		}
		v = v[1:]
	}
	*out = v
	return true
}
