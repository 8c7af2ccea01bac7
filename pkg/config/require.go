package config

import (
	"log"
	"slices"
)

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

// MustSecret rejects signing secrets too short for HS256.
func MustSecret(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
	if len(value) < 32 {
		log.Fatalf("env %s must be at least 32 bytes, got %d", envName, len(value))
	}
}

func MustOneOf(value, envName string, allowed ...string) {
	if !slices.Contains(allowed, value) {
		log.Fatalf("env %s=%q must be one of %v", envName, value, allowed)
	}
}
