// Package persistence provides the database repository for key pair metadata.
// It uses GORM as the ORM layer on top of SQLite or PostgreSQL.
package persistence
