package stream

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// resolveCache caches each provider's resolved binary path (or its
// failure) for the lifetime of the process. A missing binary is not
// retried within the process lifetime (spec §4.2).
type resolveCache struct {
	mu    sync.Mutex
	paths map[string]string
	fails map[string]bool
}

var binaries = &resolveCache{
	paths: make(map[string]string),
	fails: make(map[string]bool),
}

// ResolveBinary returns the resolved path for name, trying `which
// <name>` first and, if that fails, `bash -lc "which <name>"` (for
// non-interactive SSH sessions whose login shell isn't sourced).
func ResolveBinary(name string) (string, error) {
	binaries.mu.Lock()
	if p, ok := binaries.paths[name]; ok {
		binaries.mu.Unlock()
		return p, nil
	}
	if binaries.fails[name] {
		binaries.mu.Unlock()
		return "", fmt.Errorf("binary %q not found", name)
	}
	binaries.mu.Unlock()

	path, err := lookupWhich(name)
	if err != nil {
		path, err = lookupLoginShellWhich(name)
	}

	binaries.mu.Lock()
	defer binaries.mu.Unlock()
	if err != nil {
		binaries.fails[name] = true
		return "", fmt.Errorf("binary %q not found", name)
	}
	binaries.paths[name] = path
	return path, nil
}

func lookupWhich(name string) (string, error) {
	out, err := exec.Command("which", name).Output()
	if err != nil {
		return "", err
	}
	p := strings.TrimSpace(string(out))
	if p == "" {
		return "", fmt.Errorf("empty which output for %q", name)
	}
	return p, nil
}

func lookupLoginShellWhich(name string) (string, error) {
	out, err := exec.Command("bash", "-lc", "which "+name).Output()
	if err != nil {
		return "", err
	}
	p := strings.TrimSpace(string(out))
	if p == "" {
		return "", fmt.Errorf("empty which output for %q", name)
	}
	return p, nil
}
