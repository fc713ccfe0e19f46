package dbbench

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ResolveExecutable locates the dbbench binary before any run starts. An
// explicit preferred path wins; a bare preferred name and the default name
// are resolved through PATH; extraDirs are probed last for deployments
// that ship the binary next to their own files.
//
// Callers configure the result on Runner.Executable instead of mutating
// the process PATH.
func ResolveExecutable(preferred string, extraDirs ...string) (string, error) {
	if preferred != "" {
		if strings.ContainsRune(preferred, os.PathSeparator) {
			if err := checkExecutable(preferred); err != nil {
				return "", err
			}
			return preferred, nil
		}
		return exec.LookPath(preferred)
	}

	if path, err := exec.LookPath(DefaultExecutable); err == nil {
		return path, nil
	}
	for _, dir := range extraDirs {
		candidate := filepath.Join(dir, DefaultExecutable)
		if checkExecutable(candidate) == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s executable not found in PATH", DefaultExecutable)
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() || info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s is not an executable file", path)
	}
	return nil
}
