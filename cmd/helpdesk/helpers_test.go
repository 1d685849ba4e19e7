package main

import (
	"os"
	"path/filepath"

	"github.com/custodia-labs/helpdesk/internal/adapters/driven/config/file"
)

func writeConfig(dir, content string) error {
	return os.WriteFile(filepath.Join(dir, file.ConfigFileName), []byte(content), 0600)
}
