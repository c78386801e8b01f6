package pkcs1

import (
	"fmt"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// EncodePrivateKey serializes key as a DER RSAPrivateKey. Every component must be non-empty.
func EncodePrivateKey(key *PrivateKey) ([]byte, error) {
	components := key.components()
	if err := checkComponentsPresent(components); err != nil {
		return nil, err
	}

	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(int64(key.Version))
		addComponents(b, components)
	})
	return b.Bytes()
}

// EncodePublicKey serializes key as a DER RSAPublicKey.
func EncodePublicKey(key *PublicKey) ([]byte, error) {
	components := key.components()
	if err := checkComponentsPresent(components); err != nil {
		return nil, err
	}

	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		addComponents(b, components)
	})
	return b.Bytes()
}

func checkComponentsPresent(components []namedComponent) error {
	for _, c := range components {
		if len(*c.dst) == 0 {
			return fmt.Errorf("%w: empty %s", ErrMalformedASN1, c.name)
		}
	}
	return nil
}

func addComponents(b *cryptobyte.Builder, components []namedComponent) {
	for _, c := range components {
		b.AddASN1BigInt(new(big.Int).SetBytes(*c.dst))
	}
}
