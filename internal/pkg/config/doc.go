// Package config loads the crypto-rsa settings from a YAML file and RSA_ prefixed
// environment variables using viper.
//
// Each settings section (logger, backend, pkcs11, database, key_pair) validates
// itself with go-playground/validator. The PKCS#11 section is only checked when
// the PKCS#11 backend is selected.
package config
