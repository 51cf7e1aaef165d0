package resolve

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ErrEnvMissing means the host's scripting environment is not
// configured for this process.
var ErrEnvMissing = errors.New("scripting environment is not configured")

const (
	envScriptAPI  = "RESOLVE_SCRIPT_API"
	envScriptLib  = "RESOLVE_SCRIPT_LIB"
	envPythonPath = "PYTHONPATH"
)

// LoadEnv loads the optional .env file and then verifies the scripting
// variables. Called at startup so a broken setup fails before any
// selection work happens, never mid-run.
func LoadEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	} else {
		// default .env is optional
		_ = godotenv.Load()
	}
	return CheckEnv()
}

// CheckEnv verifies that RESOLVE_SCRIPT_API, RESOLVE_SCRIPT_LIB and a
// PYTHONPATH pointing at the scripting modules are all present.
func CheckEnv() error {
	var missing []string
	for _, key := range []string{envScriptAPI, envScriptLib, envPythonPath} {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s", ErrEnvMissing, strings.Join(missing, ", "))
	}
	return nil
}
