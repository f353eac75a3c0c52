// Package log holds the process-wide SDK logger and the handlers it can
// write to. It wraps hashicorp/go-hclog behind a small Handler capability so
// callers can inject their own sink.
package log
