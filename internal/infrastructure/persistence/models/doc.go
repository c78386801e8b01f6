// Package models contains the GORM table model of the key pair metadata store.
// KeyPairModel converts to and from keys.KeyPairMeta so the domain stays free of GORM tags.
package models
