//go:build unit
// +build unit

package app

import (
	"context"
	"crypto/x509"
	"errors"
	"testing"

	"github.com/MGTheTrain/crypto-rsa/internal/domain/keypair"
	"github.com/MGTheTrain/crypto-rsa/internal/domain/keys"
	"github.com/MGTheTrain/crypto-rsa/internal/infrastructure/cryptography"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/config"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupKeyPairService(t *testing.T) (keys.KeyPairService, *MockKeyPairRepository) {
	t.Helper()
	logger := testutil.SetupTestLogger(t)
	repo := new(MockKeyPairRepository)

	service, err := NewKeyPairService(cryptography.NewSoftwareBackend(logger), config.BackendTypeSoftware, repo, logger)
	require.NoError(t, err)
	return service, repo
}

func TestNewKeyPairService(t *testing.T) {
	logger := testutil.SetupTestLogger(t)

	_, err := NewKeyPairService(nil, config.BackendTypeSoftware, new(MockKeyPairRepository), logger)
	assert.Error(t, err)

	_, err = NewKeyPairService(cryptography.NewSoftwareBackend(logger), config.BackendTypeSoftware, nil, logger)
	assert.Error(t, err)
}

func TestKeyPairService_Generate(t *testing.T) {
	t.Run("RecordsPublicMetadata", func(t *testing.T) {
		service, repo := setupKeyPairService(t)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*keys.KeyPairMeta")).Return(nil)

		kp, meta, err := service.Generate(context.Background(), 2048)
		require.NoError(t, err)
		defer kp.Release()

		assert.Equal(t, 2048, meta.KeySize)
		assert.True(t, meta.HasPrivateKey)
		assert.Equal(t, config.BackendTypeSoftware, meta.Backend)
		assert.NoError(t, meta.Validate())

		pub, err := kp.PublicKey(keypair.KeyExportFormatPKCS1)
		require.NoError(t, err)
		assert.Equal(t, pub, meta.PublicKey)

		_, err = x509.ParsePKCS1PublicKey(meta.PublicKey)
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("InvalidKeySize", func(t *testing.T) {
		service, repo := setupKeyPairService(t)

		_, _, err := service.Generate(context.Background(), 1000)
		assert.ErrorIs(t, err, keypair.ErrInvalidArgument)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("RepositoryFailure", func(t *testing.T) {
		service, repo := setupKeyPairService(t)
		repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		kp, meta, err := service.Generate(context.Background(), 1024)
		assert.ErrorContains(t, err, "disk full")
		assert.Nil(t, kp)
		assert.Nil(t, meta)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		service, repo := setupKeyPairService(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := service.Generate(ctx, 2048)
		assert.ErrorIs(t, err, context.Canceled)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestKeyPairService_Import(t *testing.T) {
	service, repo := setupKeyPairService(t)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	source, _, err := service.Generate(context.Background(), 1024)
	require.NoError(t, err)
	defer source.Release()
	privDER, err := source.PrivateKey(keypair.KeyExportFormatPKCS1)
	require.NoError(t, err)
	pubDER, err := source.PublicKey(keypair.KeyExportFormatPKCS1)
	require.NoError(t, err)

	t.Run("Private", func(t *testing.T) {
		kp, meta, err := service.ImportPrivate(context.Background(), privDER)
		require.NoError(t, err)
		defer kp.Release()
		assert.True(t, meta.HasPrivateKey)
		assert.Equal(t, pubDER, meta.PublicKey)
	})

	t.Run("Public", func(t *testing.T) {
		kp, meta, err := service.ImportPublic(context.Background(), pubDER)
		require.NoError(t, err)
		defer kp.Release()
		assert.False(t, meta.HasPrivateKey)
		assert.Equal(t, 1024, meta.KeySize)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, _, err := service.ImportPublic(context.Background(), []byte{0x30, 0x00})
		assert.ErrorIs(t, err, keypair.ErrInvalidArgument)
	})
}

func TestKeyPairService_Open(t *testing.T) {
	service, repo := setupKeyPairService(t)

	var recorded *keys.KeyPairMeta
	repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		recorded = args.Get(1).(*keys.KeyPairMeta)
	}).Return(nil)

	kp, meta, err := service.Generate(context.Background(), 1024)
	require.NoError(t, err)
	defer kp.Release()
	require.Same(t, meta, recorded)

	repo.On("GetByID", mock.Anything, meta.ID).Return(recorded, nil)
	repo.On("GetByID", mock.Anything, "missing").Return(nil, keys.ErrKeyPairNotFound)

	opened, err := service.Open(context.Background(), meta.ID)
	require.NoError(t, err)
	defer opened.Release()
	assert.False(t, opened.HasPrivateKey())

	ciphertext, err := opened.Encrypt(keypair.EncryptionOAEPSHA256, []byte("sealed for the owner"), nil)
	require.NoError(t, err)
	plaintext, err := kp.Decrypt(keypair.EncryptionOAEPSHA256, ciphertext, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("sealed for the owner"), plaintext)

	_, err = service.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, keys.ErrKeyPairNotFound)
}

func TestKeyPairService_Metadata(t *testing.T) {
	service, repo := setupKeyPairService(t)
	query := &keys.KeyPairQuery{Limit: 5}
	metas := []*keys.KeyPairMeta{{ID: "a"}, {ID: "b"}}

	repo.On("List", mock.Anything, query).Return(metas, nil)
	repo.On("GetByID", mock.Anything, "a").Return(metas[0], nil)
	repo.On("DeleteByID", mock.Anything, "a").Return(nil)
	repo.On("DeleteByID", mock.Anything, "b").Return(keys.ErrKeyPairNotFound)

	listed, err := service.List(context.Background(), query)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	fetched, err := service.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", fetched.ID)

	assert.NoError(t, service.DeleteByID(context.Background(), "a"))
	assert.ErrorIs(t, service.DeleteByID(context.Background(), "b"), keys.ErrKeyPairNotFound)
}
