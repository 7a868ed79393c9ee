package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// lockFilePrefix marks the owner files Excel and LibreOffice leave next to
// an open workbook.
const lockFilePrefix = "~$"

// ValidateSource checks that path names a regular file a source loader can
// read: it exists, is not a directory, is not an Office lock file and is
// not a legacy .xls workbook. Delimited text may carry any other extension.
func ValidateSource(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("source %s does not exist: %w", path, err)
	}
	if err != nil {
		return fmt.Errorf("failed to stat source %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("source %s is a directory", path)
	}

	name := filepath.Base(path)
	if isLockFile(name) {
		return fmt.Errorf("source %s is an Office lock file", path)
	}
	if strings.EqualFold(filepath.Ext(name), ".xls") {
		return fmt.Errorf("source %s is a legacy .xls workbook; save it as .xlsx", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("source %s is not readable: %w", path, err)
	}
	return f.Close()
}

func isLockFile(name string) bool {
	return strings.HasPrefix(name, lockFilePrefix)
}
