package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"ffigen/internal/backend"
	"ffigen/internal/cbe"
	"ffigen/internal/gobe"
)

// configFileName is discovered upward from the working directory; flags
// override anything it sets.
const configFileName = "ffigen.toml"

type fileConfig struct {
	Package  packageConfig  `toml:"package"`
	Generate generateConfig `toml:"generate"`
}

type packageConfig struct {
	Name string `toml:"name"`
}

type generateConfig struct {
	Backend  string   `toml:"backend"`
	Features []string `toml:"features"`
	Output   string   `toml:"output"`
	Jobs     int      `toml:"jobs"`

	// Go backend knobs.
	ImportBase string `toml:"import_base"`
	CFlags     string `toml:"cflags"`
	LDFlags    string `toml:"ldflags"`
}

func findConfigFile(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return "", false, nil
}

// loadConfig returns the discovered configuration, or zero values when no
// file exists.
func loadConfig() (fileConfig, error) {
	path, ok, err := findConfigFile("")
	if err != nil || !ok {
		return fileConfig{}, err
	}

	var cfg fileConfig

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}

	if meta.IsDefined("package") && strings.TrimSpace(cfg.Package.Name) == "" {
		return fileConfig{}, fmt.Errorf("%s: [package].name must not be empty", path)
	}

	return cfg, nil
}

// selectBackend instantiates the backend named by identity.
func selectBackend(identity string, cfg generateConfig) (backend.Backend, error) {
	switch identity {
	case "go":
		importBase := cfg.ImportBase
		if importBase == "" {
			importBase = "bindings"
		}

		return gobe.New(gobe.Config{
			ImportBase: importBase,
			CFlags:     cfg.CFlags,
			LDFlags:    cfg.LDFlags,
		}), nil
	case "c":
		return cbe.New(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (must be go or c)", identity)
	}
}

// pickStr returns the flag value unless it is empty, then the file value,
// then the fallback.
func pickStr(flag, file, fallback string) string {
	switch {
	case flag != "":
		return flag
	case file != "":
		return file
	default:
		return fallback
	}
}

// pickInt returns the flag value unless it is zero, then the file value.
func pickInt(flag, file int) int {
	if flag != 0 {
		return flag
	}

	return file
}
