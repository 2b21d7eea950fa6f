//go:build pact
// +build pact

// Package pacttest holds the shared names and paths for the storefront
// consumer contract and its provider verification.
package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "pawmart-api"
	ConsumerName = "pawmart-storefront"

	StatePetAvailable    = "an available pet exists"
	StatePetMissing      = "no pet with the requested id"
	StatePetReserved     = "the pet is reserved by another customer"
)

const (
	// Fixed identifiers so consumer and provider agree on the interactions.
	AvailablePetID = "7b69d9a8-5ba0-4a8f-9f1d-6c2f3a1e0b11"
	MissingPetID   = "00000000-0000-0000-0000-000000000404"

	GuestSessionID = "pact-session-1"
	ExamplePetName = "Fluffy Pact Cat"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the storefront consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
