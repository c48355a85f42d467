package config

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/joho/godotenv"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

const (
	EnvDomain = "TEAMWORK_DOMAIN"
	EnvAPIKey = "TEAMWORK_API_KEY"
)

/*
LoadDotEnv loads variables from a dotenv file into the process environment.

Variables that are already set win. A missing file is not an error.
*/
func LoadDotEnv(path string) {
	if path == "" {
		return
	}
	if _, statErr := os.Stat(path); statErr != nil {
		tl.Log(tl.Detailed, palette.CyanDim, "No %s file at '%s'", "dotenv", path)
		return
	}
	loadErr := godotenv.Load(path)
	if loadErr != nil {
		tl.Log(tl.Warning, palette.Yellow, "Unable to load '%s': %s", path, loadErr)
		return
	}
	tl.Log(tl.Info1, palette.Green, "Loaded environment from '%s'", path)
}

// CheckIfEnvVarsPresent warns about every unset variable and reports whether all were set.
func CheckIfEnvVarsPresent(names ...string) (allPresent bool) {
	allPresent = true
	for _, name := range names {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			tl.Log(tl.Warning, palette.Yellow, "%s env var is %s", name, "not set")
			allPresent = false
		}
	}
	return allPresent
}

// GetPackageName returns the main module path, falling back to the binary name.
func GetPackageName() string {
	info, ok := debug.ReadBuildInfo()
	if ok && info.Main.Path != "" {
		return info.Main.Path
	}
	return filepath.Base(os.Args[0])
}
