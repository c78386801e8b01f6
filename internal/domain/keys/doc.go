// Package keys defines the metadata kept for every RSA key pair the application creates, together with the
// service and repository contracts that manage it.
package keys
