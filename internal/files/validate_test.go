package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSource(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"orders.csv", "orders.tsv", "book.xlsx", "~$book.xlsx", "old.xls"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("a\n1\n"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755))

	tests := []struct {
		name    string
		file    string
		wantErr string
	}{
		{name: "csv", file: "orders.csv"},
		{name: "other delimited text", file: "orders.tsv"},
		{name: "workbook", file: "book.xlsx"},
		{name: "missing", file: "nope.csv", wantErr: "does not exist"},
		{name: "directory", file: "sub.csv", wantErr: "is a directory"},
		{name: "lock file", file: "~$book.xlsx", wantErr: "lock file"},
		{name: "legacy workbook", file: "old.xls", wantErr: "legacy .xls"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSource(filepath.Join(dir, tt.file))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
