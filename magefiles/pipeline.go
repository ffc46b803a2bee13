//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// Validate runs the classification stage with the built binary.
func Validate() error {
	mg.Deps(Build)
	return runBinary("validate")
}

// Export runs the Parquet export stage with the built binary.
func Export() error {
	mg.Deps(Build)
	return runBinary("export")
}

func runBinary(args ...string) error {
	cmd := exec.Command(filepath.Join(binDir, binName), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", binName, args, err)
	}
	return nil
}
