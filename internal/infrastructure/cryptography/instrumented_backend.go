package cryptography

import (
	"time"

	"github.com/MGTheTrain/crypto-rsa/internal/domain/keypair"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Operation outcomes recorded in the result label
const (
	resultOK               = "ok"
	resultError            = "error"
	resultInvalidSignature = "invalid_signature"
)

type backendMetrics struct {
	operations *prom.CounterVec
	duration   *prom.HistogramVec
}

func newBackendMetrics() *backendMetrics {
	return &backendMetrics{
		operations: prom.NewCounterVec(
			prom.CounterOpts{
				Namespace: "crypto_rsa",
				Subsystem: "backend",
				Name:      "operations_total",
				Help:      "Backend operations by backend type, operation and result",
			},
			[]string{"backend", "operation", "result"}),
		duration: prom.NewHistogramVec(
			prom.HistogramOpts{
				Namespace: "crypto_rsa",
				Subsystem: "backend",
				Name:      "operation_duration_seconds",
				Help:      "Latency of backend operations",
				Buckets:   prom.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"backend", "operation"}),
	}
}

// InstrumentedBackend records count, outcome and latency of every call into the wrapped backend.
type InstrumentedBackend struct {
	next        keypair.Backend
	backendType string
	metrics     *backendMetrics
}

// NewInstrumentedBackend wraps next and registers its collectors with reg.
func NewInstrumentedBackend(next keypair.Backend, backendType string, reg prom.Registerer) (*InstrumentedBackend, error) {
	metrics := newBackendMetrics()
	if err := reg.Register(metrics.operations); err != nil {
		return nil, err
	}
	if err := reg.Register(metrics.duration); err != nil {
		reg.Unregister(metrics.operations)
		return nil, err
	}

	return &InstrumentedBackend{next: next, backendType: backendType, metrics: metrics}, nil
}

func (b *InstrumentedBackend) observe(operation string, start time.Time, result string) {
	b.metrics.duration.WithLabelValues(b.backendType, operation).Observe(time.Since(start).Seconds())
	b.metrics.operations.WithLabelValues(b.backendType, operation, result).Inc()
}

func resultOf(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}

func (b *InstrumentedBackend) Generate(keySizeBits int) (keypair.Handle, keypair.Handle, error) {
	start := time.Now()
	priv, pub, err := b.next.Generate(keySizeBits)
	b.observe("generate", start, resultOf(err))
	return priv, pub, err
}

func (b *InstrumentedBackend) ImportPrivate(der []byte) (keypair.Handle, error) {
	start := time.Now()
	h, err := b.next.ImportPrivate(der)
	b.observe("import_private", start, resultOf(err))
	return h, err
}

func (b *InstrumentedBackend) DerivePublic(private keypair.Handle) (keypair.Handle, error) {
	start := time.Now()
	h, err := b.next.DerivePublic(private)
	b.observe("derive_public", start, resultOf(err))
	return h, err
}

func (b *InstrumentedBackend) ImportPublic(der []byte) (keypair.Handle, error) {
	start := time.Now()
	h, err := b.next.ImportPublic(der)
	b.observe("import_public", start, resultOf(err))
	return h, err
}

func (b *InstrumentedBackend) Export(h keypair.Handle) ([]byte, error) {
	start := time.Now()
	der, err := b.next.Export(h)
	b.observe("export", start, resultOf(err))
	return der, err
}

// IsAlgorithmSupported is a capability probe and is not recorded.
func (b *InstrumentedBackend) IsAlgorithmSupported(h keypair.Handle, op keypair.OperationKind, alg keypair.Algorithm) bool {
	return b.next.IsAlgorithmSupported(h, op, alg)
}

func (b *InstrumentedBackend) Encrypt(h keypair.Handle, alg keypair.EncryptionAlgorithm, plaintext []byte) ([]byte, error) {
	start := time.Now()
	out, err := b.next.Encrypt(h, alg, plaintext)
	b.observe(keypair.OperationEncrypt.String(), start, resultOf(err))
	return out, err
}

func (b *InstrumentedBackend) Decrypt(h keypair.Handle, alg keypair.EncryptionAlgorithm, ciphertext []byte) ([]byte, error) {
	start := time.Now()
	out, err := b.next.Decrypt(h, alg, ciphertext)
	b.observe(keypair.OperationDecrypt.String(), start, resultOf(err))
	return out, err
}

func (b *InstrumentedBackend) Sign(h keypair.Handle, alg keypair.SigningAlgorithm, digest []byte) ([]byte, error) {
	start := time.Now()
	out, err := b.next.Sign(h, alg, digest)
	b.observe(keypair.OperationSign.String(), start, resultOf(err))
	return out, err
}

func (b *InstrumentedBackend) Verify(h keypair.Handle, alg keypair.SigningAlgorithm, digest, signature []byte) (bool, error) {
	start := time.Now()
	valid, err := b.next.Verify(h, alg, digest, signature)

	result := resultOf(err)
	if err == nil && !valid {
		result = resultInvalidSignature
	}
	b.observe(keypair.OperationVerify.String(), start, result)
	return valid, err
}

func (b *InstrumentedBackend) Release(h keypair.Handle) {
	b.next.Release(h)
}
