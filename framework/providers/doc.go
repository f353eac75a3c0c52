// Package providers holds the service providers that bind the SDK services
// into an application container. Every provider binds lazily: services are
// built on first Get, after configuration and the API client are in place.
package providers
