//go:build unit
// +build unit

package keypair

import (
	"github.com/stretchr/testify/mock"
)

// MockHandle is a Handle with a fixed block size.
type MockHandle struct {
	Name string
	Size int
}

func (h *MockHandle) BlockSize() int {
	return h.Size
}

// MockBackend is a mock implementation of Backend
type MockBackend struct {
	mock.Mock
}

func handleAt(args mock.Arguments, i int) Handle {
	if h, ok := args.Get(i).(Handle); ok {
		return h
	}
	return nil
}

func bytesAt(args mock.Arguments, i int) []byte {
	if b, ok := args.Get(i).([]byte); ok {
		return b
	}
	return nil
}

func (m *MockBackend) Generate(keySizeBits int) (Handle, Handle, error) {
	args := m.Called(keySizeBits)
	return handleAt(args, 0), handleAt(args, 1), args.Error(2)
}

func (m *MockBackend) ImportPrivate(der []byte) (Handle, error) {
	args := m.Called(der)
	return handleAt(args, 0), args.Error(1)
}

func (m *MockBackend) DerivePublic(private Handle) (Handle, error) {
	args := m.Called(private)
	return handleAt(args, 0), args.Error(1)
}

func (m *MockBackend) ImportPublic(der []byte) (Handle, error) {
	args := m.Called(der)
	return handleAt(args, 0), args.Error(1)
}

func (m *MockBackend) Export(h Handle) ([]byte, error) {
	args := m.Called(h)
	return bytesAt(args, 0), args.Error(1)
}

func (m *MockBackend) IsAlgorithmSupported(h Handle, op OperationKind, alg Algorithm) bool {
	args := m.Called(h, op, alg)
	return args.Bool(0)
}

func (m *MockBackend) Encrypt(h Handle, alg EncryptionAlgorithm, plaintext []byte) ([]byte, error) {
	args := m.Called(h, alg, plaintext)
	return bytesAt(args, 0), args.Error(1)
}

func (m *MockBackend) Decrypt(h Handle, alg EncryptionAlgorithm, ciphertext []byte) ([]byte, error) {
	args := m.Called(h, alg, ciphertext)
	return bytesAt(args, 0), args.Error(1)
}

func (m *MockBackend) Sign(h Handle, alg SigningAlgorithm, digest []byte) ([]byte, error) {
	args := m.Called(h, alg, digest)
	return bytesAt(args, 0), args.Error(1)
}

func (m *MockBackend) Verify(h Handle, alg SigningAlgorithm, digest, signature []byte) (bool, error) {
	args := m.Called(h, alg, digest, signature)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) Release(h Handle) {
	m.Called(h)
}
