package keys

import (
	"context"
	"errors"

	"github.com/MGTheTrain/crypto-rsa/internal/domain/keypair"
)

// ErrKeyPairNotFound is returned when no metadata exists for a key pair ID.
var ErrKeyPairNotFound = errors.New("key pair not found")

// KeyPairService creates RSA key pairs on the configured backend and tracks their metadata.
type KeyPairService interface {
	// Generate creates a key pair of keySize bits and records its metadata.
	// The caller owns the returned key pair and must Release it.
	Generate(ctx context.Context, keySize int) (*keypair.RSAKeyPair, *KeyPairMeta, error)

	// ImportPrivate creates a key pair from a PKCS#1 RSAPrivateKey and records its metadata.
	ImportPrivate(ctx context.Context, der []byte) (*keypair.RSAKeyPair, *KeyPairMeta, error)

	// ImportPublic creates a public-only key pair from a PKCS#1 RSAPublicKey and records its metadata.
	ImportPublic(ctx context.Context, der []byte) (*keypair.RSAKeyPair, *KeyPairMeta, error)

	// Open rebuilds a public-only key pair from the stored public key of keyPairID.
	Open(ctx context.Context, keyPairID string) (*keypair.RSAKeyPair, error)

	// List retrieves key pair metadata considering a query filter when set.
	List(ctx context.Context, query *KeyPairQuery) ([]*KeyPairMeta, error)

	// GetByID retrieves the metadata of a key pair by its unique ID.
	GetByID(ctx context.Context, keyPairID string) (*KeyPairMeta, error)

	// DeleteByID deletes the metadata of a key pair by its unique ID.
	DeleteByID(ctx context.Context, keyPairID string) error
}

// KeyPairRepository defines the interface for KeyPairMeta persistence
type KeyPairRepository interface {
	Create(ctx context.Context, meta *KeyPairMeta) error
	List(ctx context.Context, query *KeyPairQuery) ([]*KeyPairMeta, error)
	GetByID(ctx context.Context, keyPairID string) (*KeyPairMeta, error)
	DeleteByID(ctx context.Context, keyPairID string) error
}
