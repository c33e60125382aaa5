// Package common holds helpers shared by several services.
//
// It provides a lightweight status client with call timeouts and a helper that
// detects the current system actor (hostname/username) so the engine can log
// who is polling it.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
