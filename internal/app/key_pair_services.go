package app

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/MGTheTrain/crypto-rsa/internal/domain/keypair"
	"github.com/MGTheTrain/crypto-rsa/internal/domain/keys"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/logger"

	"github.com/google/uuid"
)

// keyPairService implements the KeyPairService interface
type keyPairService struct {
	backend     keypair.Backend
	backendType string
	repo        keys.KeyPairRepository
	logger      logger.Logger
}

// NewKeyPairService creates a new keyPairService instance. backendType is recorded in the
// metadata of every key pair and must name the implementation behind backend.
func NewKeyPairService(backend keypair.Backend, backendType string, repo keys.KeyPairRepository, logger logger.Logger) (keys.KeyPairService, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend must not be nil")
	}
	if repo == nil {
		return nil, fmt.Errorf("repository must not be nil")
	}

	return &keyPairService{
		backend:     backend,
		backendType: backendType,
		repo:        repo,
		logger:      logger,
	}, nil
}

// Generate creates a key pair of keySize bits and records its metadata.
func (s *keyPairService) Generate(ctx context.Context, keySize int) (*keypair.RSAKeyPair, *keys.KeyPairMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	kp, err := keypair.GenerateRandom(s.backend, s.logger, keySize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	return s.record(ctx, kp)
}

// ImportPrivate creates a key pair from a PKCS#1 RSAPrivateKey and records its metadata.
func (s *keyPairService) ImportPrivate(ctx context.Context, der []byte) (*keypair.RSAKeyPair, *keys.KeyPairMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	kp, err := keypair.NewFromPrivateKeyPKCS1(s.backend, s.logger, der)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to import private key: %w", err)
	}
	return s.record(ctx, kp)
}

// ImportPublic creates a public-only key pair from a PKCS#1 RSAPublicKey and records its metadata.
func (s *keyPairService) ImportPublic(ctx context.Context, der []byte) (*keypair.RSAKeyPair, *keys.KeyPairMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	kp, err := keypair.NewFromPublicKeyPKCS1(s.backend, s.logger, der)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to import public key: %w", err)
	}
	return s.record(ctx, kp)
}

// record stores the metadata of kp. On failure kp is released.
func (s *keyPairService) record(ctx context.Context, kp *keypair.RSAKeyPair) (*keypair.RSAKeyPair, *keys.KeyPairMeta, error) {
	publicKey, err := kp.PublicKey(keypair.KeyExportFormatPKCS1)
	if err != nil {
		kp.Release()
		return nil, nil, err
	}

	meta := &keys.KeyPairMeta{
		ID:              uuid.NewString(),
		KeySize:         kp.KeySizeBits(),
		HasPrivateKey:   kp.HasPrivateKey(),
		Backend:         s.backendType,
		PublicKey:       bytes.Clone(publicKey),
		DateTimeCreated: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, meta); err != nil {
		kp.Release()
		return nil, nil, fmt.Errorf("failed to record key pair metadata: %w", err)
	}

	s.logger.Info("Recorded key pair ", meta.ID)
	return kp, meta, nil
}

// Open rebuilds a public-only key pair from the stored public key of keyPairID.
func (s *keyPairService) Open(ctx context.Context, keyPairID string) (*keypair.RSAKeyPair, error) {
	meta, err := s.repo.GetByID(ctx, keyPairID)
	if err != nil {
		return nil, err
	}

	kp, err := keypair.NewFromPublicKeyPKCS1(s.backend, s.logger, meta.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to open key pair %s: %w", keyPairID, err)
	}
	return kp, nil
}

// List retrieves key pair metadata considering a query filter when set.
func (s *keyPairService) List(ctx context.Context, query *keys.KeyPairQuery) ([]*keys.KeyPairMeta, error) {
	metas, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list key pairs: %w", err)
	}
	return metas, nil
}

// GetByID retrieves the metadata of a key pair by its unique ID.
func (s *keyPairService) GetByID(ctx context.Context, keyPairID string) (*keys.KeyPairMeta, error) {
	return s.repo.GetByID(ctx, keyPairID)
}

// DeleteByID deletes the metadata of a key pair by its unique ID.
func (s *keyPairService) DeleteByID(ctx context.Context, keyPairID string) error {
	if err := s.repo.DeleteByID(ctx, keyPairID); err != nil {
		return err
	}
	s.logger.Info("Deleted key pair ", keyPairID)
	return nil
}
