package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// BinaryPath returns where cargo places the comparison example binary,
// relative to the crate directory.
func BinaryPath(crateDir string) string {
	return filepath.Join(
		crateDir, "target", "release", "examples", "comparison",
	)
}

// Build compiles the comparison example in release mode using cargo.
// Cargo's own output goes to the process's stderr so it cannot mix
// with sweep output.
func Build(
	ctx context.Context,
	logger *slog.Logger,
	crateDir string,
) (string, error) {
	binPath := BinaryPath(crateDir)

	logger.InfoContext(ctx, "building comparison binary",
		slog.String("crate_dir", crateDir),
	)

	cmd := exec.CommandContext(
		ctx, "cargo", "build", "--release", "--example", "comparison",
	)
	cmd.Dir = crateDir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("cargo build: %w", err)
	}

	if _, err := os.Stat(binPath); err != nil {
		return "", fmt.Errorf(
			"build succeeded but binary not found at %s", binPath,
		)
	}

	logger.InfoContext(ctx, "comparison binary built",
		slog.String("binary", binPath),
	)

	return binPath, nil
}
