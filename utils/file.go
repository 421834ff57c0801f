package utils

import (
	"fmt"
	"io"
	"os"
	"time"
)

// TimestampedCopy copies a file to a sibling path named
// "<source>.<suffix>-<nanos>" and returns the destination path. The
// knowledge store uses it for safety snapshots and for quarantining
// corrupt files.
func TimestampedCopy(sourcePath, suffix string) (string, error) {
	// Open source file
	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %v", err)
	}
	defer sourceFile.Close()

	destPath := fmt.Sprintf("%s.%s-%d", sourcePath, suffix, time.Now().UnixNano())

	// Create destination file
	destFile, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %v", err)
	}
	defer destFile.Close()

	// Copy the file
	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return "", fmt.Errorf("failed to copy file: %v", err)
	}

	return destPath, nil
}
