package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var QuitChan = make(chan os.Signal, 1)

// Shutdown reports a startup failure and exits with status 1.
func Shutdown(reason string) {
	fmt.Fprintf(os.Stderr, "🚨 %s\n", reason)
	os.Exit(1)
}

// BaseName is the file name without directory or extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
