// Package app wires key pair construction on the configured backend to the metadata repository.
package app
