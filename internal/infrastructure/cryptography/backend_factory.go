package cryptography

import (
	"fmt"
	"io"

	"github.com/MGTheTrain/crypto-rsa/internal/domain/keypair"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/config"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/logger"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewBackend creates the backend selected by settings. The returned closer releases
// backend wide resources such as the PKCS#11 session and must be called once all key
// pairs bound to the backend have been released.
func NewBackend(settings *config.BackendSettings, pkcs11Settings *config.PKCS11Settings, logger logger.Logger) (keypair.Backend, io.Closer, error) {
	if err := settings.Validate(); err != nil {
		return nil, nil, err
	}

	switch settings.Type {
	case config.BackendTypeSoftware:
		return NewSoftwareBackend(logger), nopCloser{}, nil
	case config.BackendTypePKCS11:
		backend, err := NewPKCS11Backend(pkcs11Settings, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create PKCS#11 backend: %w", err)
		}
		return backend, backend, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type %q", settings.Type)
	}
}
