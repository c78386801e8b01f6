package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/MGTheTrain/crypto-rsa/internal/app"
	"github.com/MGTheTrain/crypto-rsa/internal/domain/keypair"
	"github.com/MGTheTrain/crypto-rsa/internal/domain/keys"
	"github.com/MGTheTrain/crypto-rsa/internal/infrastructure/cryptography"
	"github.com/MGTheTrain/crypto-rsa/internal/infrastructure/persistence"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/config"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/logger"

	prom "github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

func setupLogger(settings *config.LoggerSettings) (logger.Logger, error) {
	if err := logger.InitLogger(settings); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	loggerInstance, err := logger.GetLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to get logger instance: %w", err)
	}

	return loggerInstance, nil
}

// runtime holds the lazily created dependencies shared by all commands of one invocation.
type runtime struct {
	configPath string

	cfg     *config.AppConfig
	logger  logger.Logger
	backend keypair.Backend
	closer  io.Closer
	metrics *prom.Registry
	db      *gorm.DB
	service keys.KeyPairService
}

func (r *runtime) ensureConfig() error {
	if r.cfg != nil {
		return nil
	}

	cfg, err := config.InitializeConfig(r.configPath)
	if err != nil {
		return err
	}

	loggerInstance, err := setupLogger(&cfg.Logger)
	if err != nil {
		return err
	}

	r.cfg = cfg
	r.logger = loggerInstance
	return nil
}

func (r *runtime) ensureBackend() error {
	if r.backend != nil {
		return nil
	}
	if err := r.ensureConfig(); err != nil {
		return err
	}

	backend, closer, err := cryptography.NewBackend(&r.cfg.Backend, &r.cfg.PKCS11, r.logger)
	if err != nil {
		return err
	}

	r.backend = backend
	r.closer = closer

	if r.cfg.Metrics.Enabled() {
		registry := prom.NewRegistry()
		instrumented, err := cryptography.NewInstrumentedBackend(backend, r.cfg.Backend.Type, registry)
		if err != nil {
			return fmt.Errorf("failed to register backend metrics: %w", err)
		}
		r.backend = instrumented
		r.metrics = registry
	}
	return nil
}

func (r *runtime) ensureService() error {
	if r.service != nil {
		return nil
	}
	if err := r.ensureBackend(); err != nil {
		return err
	}

	db, err := persistence.NewDBConnection(r.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to metadata store: %w", err)
	}
	r.db = db

	repo, err := persistence.NewGormKeyPairRepository(db, r.logger)
	if err != nil {
		return fmt.Errorf("failed to create key pair repository: %w", err)
	}

	service, err := app.NewKeyPairService(r.backend, r.cfg.Backend.Type, repo, r.logger)
	if err != nil {
		return fmt.Errorf("failed to create key pair service: %w", err)
	}

	r.service = service
	return nil
}

// Close writes the backend metrics if enabled, then releases the metadata store connection and the backend.
func (r *runtime) Close() error {
	var errs []error
	if r.metrics != nil {
		errs = append(errs, prom.WriteToTextfile(r.cfg.Metrics.TextfilePath, r.metrics))
		r.metrics = nil
	}
	if r.db != nil {
		errs = append(errs, persistence.CloseDB(r.db))
		r.db = nil
	}
	if r.closer != nil {
		errs = append(errs, r.closer.Close())
		r.closer = nil
	}
	return errors.Join(errs...)
}
