// Package config resolves the timecamp-mcp configuration directory and loads
// settings from config.yaml, .env files, and the environment.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "timecamp-mcp"

// Dir returns the timecamp-mcp configuration directory.
//
// Resolution:
//   - $TIMECAMP_MCP_CONFIG_HOME if set (explicit override)
//   - $XDG_CONFIG_HOME/timecamp-mcp if set (respects XDG on any platform)
//   - %AppData%/timecamp-mcp on Windows
//   - ~/.config/timecamp-mcp on macOS and Linux
func Dir() string {
	if dir := os.Getenv("TIMECAMP_MCP_CONFIG_HOME"); dir != "" {
		return dir
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// PromptDir is where user prompt templates override the built-ins.
func PromptDir() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "prompts")
}

// DefaultPath is the config file read when --config is not given.
func DefaultPath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}
