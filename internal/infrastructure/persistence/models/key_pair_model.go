package models

import (
	"time"

	"github.com/MGTheTrain/crypto-rsa/internal/domain/keys"
)

// KeyPairModel is the GORM database model for key pair metadata
type KeyPairModel struct {
	ID              string    `gorm:"primaryKey;type:uuid"`
	KeySize         int       `gorm:"not null;index;type:integer"`
	HasPrivateKey   bool      `gorm:"not null"`
	Backend         string    `gorm:"not null;index;type:varchar(20)"`
	PublicKey       []byte    `gorm:"not null"`
	DateTimeCreated time.Time `gorm:"not null;index"`
}

// TableName specifies the table name for GORM
func (KeyPairModel) TableName() string {
	return "key_pairs"
}

// ToDomain converts GORM model to domain entity
func (m *KeyPairModel) ToDomain() *keys.KeyPairMeta {
	return &keys.KeyPairMeta{
		ID:              m.ID,
		KeySize:         m.KeySize,
		HasPrivateKey:   m.HasPrivateKey,
		Backend:         m.Backend,
		PublicKey:       m.PublicKey,
		DateTimeCreated: m.DateTimeCreated,
	}
}

// FromDomain converts domain entity to GORM model
func (m *KeyPairModel) FromDomain(k *keys.KeyPairMeta) {
	m.ID = k.ID
	m.KeySize = k.KeySize
	m.HasPrivateKey = k.HasPrivateKey
	m.Backend = k.Backend
	m.PublicKey = k.PublicKey
	m.DateTimeCreated = k.DateTimeCreated
}
