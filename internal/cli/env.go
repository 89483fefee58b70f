package cli

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// OverrideEnvVar names a .env file that wins over the --env flag.
const OverrideEnvVar = "TOMMYZKI_ENV_FILE"

// EnvLoader loads .env files with a predictable override order.
type EnvLoader struct {
	value       *string
	defaultPath string
}

type envCandidate struct {
	path  string
	label string
}

// AddEnvFlag registers an --env flag and returns an EnvLoader.
func AddEnvFlag(fs *flag.FlagSet, defaultPath, description string) *EnvLoader {
	if fs == nil {
		fs = flag.CommandLine
	}
	if defaultPath == "" {
		defaultPath = ".env"
	}
	if description == "" {
		description = "Path to the .env file"
	}

	return &EnvLoader{
		value:       fs.String("env", defaultPath, description),
		defaultPath: defaultPath,
	}
}

// Load tries, in order, $TOMMYZKI_ENV_FILE, the --env value, its basename in
// the working directory and the default path. The first file that loads wins.
func (l *EnvLoader) Load() (string, error) {
	if l == nil {
		return "", fmt.Errorf("env loader is nil")
	}

	log.SetOutput(os.Stderr)

	if custom := strings.TrimSpace(os.Getenv(OverrideEnvVar)); custom != "" {
		if err := godotenv.Overload(custom); err == nil {
			log.Printf("Loaded environment from %s: %s", OverrideEnvVar, custom)
			return custom, nil
		}
		log.Printf("Warning: failed to load %s=%s", OverrideEnvVar, custom)
	}

	requested := l.requested()
	for _, candidate := range l.candidates(requested) {
		if err := godotenv.Overload(candidate.path); err == nil {
			log.Printf("Loaded environment from %s: %s", candidate.label, candidate.path)
			return candidate.path, nil
		}
	}

	return "", fmt.Errorf("failed to load env file from %s", requested)
}

func (l *EnvLoader) requested() string {
	if l.value != nil {
		if trimmed := strings.TrimSpace(*l.value); trimmed != "" {
			return trimmed
		}
	}
	return l.defaultPath
}

func (l *EnvLoader) candidates(requested string) []envCandidate {
	out := []envCandidate{{path: requested, label: "--env"}}
	if base := filepath.Base(requested); base != "" && base != requested {
		out = append(out, envCandidate{path: base, label: "basename fallback"})
	}
	if requested != l.defaultPath {
		out = append(out, envCandidate{path: l.defaultPath, label: "default"})
	}
	return out
}
