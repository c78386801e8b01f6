package keys

import (
	"errors"
	"fmt"
	"time"

	"github.com/MGTheTrain/crypto-rsa/internal/pkg/validators"

	"github.com/go-playground/validator/v10"
)

// KeyPairMeta entity. PublicKey holds the PKCS#1 RSAPublicKey DER; private key bytes are never part of the metadata.
type KeyPairMeta struct {
	ID              string    `validate:"required,uuid4"`
	KeySize         int       `validate:"required,rsaKeySize"`
	Backend         string    `validate:"required,oneof=software pkcs11"`
	PublicKey       []byte    `validate:"required,min=1"`
	DateTimeCreated time.Time `validate:"required"`
	HasPrivateKey   bool
}

// Validate for validating KeyPairMeta struct
func (k *KeyPairMeta) Validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("rsaKeySize", validators.RSAKeySizeValidation); err != nil {
		return fmt.Errorf("failed to register custom validator: %w", err)
	}

	return flattenValidationError(validate.Struct(k))
}

// KeyPairQuery filters and pages the key pair metadata returned by List.
type KeyPairQuery struct {
	KeySize         int    `validate:"omitempty,rsaKeySize"`
	Backend         string `validate:"omitempty,oneof=software pkcs11"`
	HasPrivateKey   *bool
	DateTimeCreated time.Time

	Limit     int    `validate:"omitempty,gt=0"`
	Offset    int    `validate:"omitempty,gte=0"`
	SortBy    string `validate:"omitempty,oneof=id key_size date_time_created"`
	SortOrder string `validate:"omitempty,oneof=asc desc"`
}

// NewKeyPairQuery creates a KeyPairQuery with default values.
func NewKeyPairQuery() *KeyPairQuery {
	return &KeyPairQuery{}
}

// Validate for validating KeyPairQuery struct
func (q *KeyPairQuery) Validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("rsaKeySize", validators.RSAKeySizeValidation); err != nil {
		return fmt.Errorf("failed to register custom validator: %w", err)
	}

	return flattenValidationError(validate.Struct(q))
}

func flattenValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, fieldErr := range validationErrors {
			messages = append(messages, fmt.Sprintf("Field: %s, Tag: %s", fieldErr.Field(), fieldErr.Tag()))
		}
		return fmt.Errorf("validation failed: %v", messages)
	}
	return fmt.Errorf("validation error: %w", err)
}
