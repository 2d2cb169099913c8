package config

import (
	"fmt"
	"os"
)

// HomeEnv overrides the state directory.
const HomeEnv = "CHROUTER_HOME"

// DefaultHomeDir is the state directory used when HomeEnv is unset,
// relative to the working directory.
const DefaultHomeDir = ".chrouter"

// Home returns the chrouter state directory holding logs and the history
// ledger. Priority order:
//  1. CHROUTER_HOME environment variable (if set)
//  2. .chrouter in the current working directory
func Home() string {
	if home := os.Getenv(HomeEnv); home != "" {
		return home
	}
	return DefaultHomeDir
}

// EnsureHome returns Home after creating it.
func EnsureHome() (string, error) {
	home := Home()
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create chrouter home directory: %w", err)
	}
	return home, nil
}
