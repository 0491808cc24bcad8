package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mandalnilabja/pixelrelay/internal/transport/http/middleware/auth"
)

var errWeakAdminPassword = errors.New("ADMIN_PASSWORD must be at least 8 characters")

// adminPasswordHash hashes the configured admin password once at startup.
// An empty password leaves the admin API open and is logged as a warning.
func adminPasswordHash(password string, logger *slog.Logger) (string, error) {
	if password == "" {
		logger.Warn("ADMIN_PASSWORD not set; /api/admin is unauthenticated")
		return "", nil
	}
	if !isValidAdminPassword(password) {
		return "", errWeakAdminPassword
	}

	hash, err := auth.HashPassword(password, auth.RequestArgon2Params())
	if err != nil {
		return "", fmt.Errorf("failed to hash admin password: %w", err)
	}
	return hash, nil
}

func isValidAdminPassword(password string) bool {
	return len(password) >= 8
}
