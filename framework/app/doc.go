// Package app wires configuration, providers, the API client and the
// process logger into a ready-to-use Application.
package app
