package config

import (
	"os"
	"path/filepath"
	"testing"
)

// unset clears key for the duration of the test.
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	_ = os.Unsetenv(key) //nolint:errcheck
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadEnvFile_Nonexistent(t *testing.T) {
	if err := loadEnvFile("/nonexistent/.env"); err != nil {
		t.Fatalf("expected nil for nonexistent file, got %v", err)
	}
}

func TestLoadEnvFile_SetsUnsetVars(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	writeFile(t, path, "# token\n\nTEST_TC_A=hello\nexport TEST_TC_B='world'\nnot a pair\n")
	unset(t, "TEST_TC_A")
	unset(t, "TEST_TC_B")

	if err := loadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("TEST_TC_A"); got != "hello" {
		t.Errorf("TEST_TC_A = %q, want %q", got, "hello")
	}
	if got := os.Getenv("TEST_TC_B"); got != "world" {
		t.Errorf("TEST_TC_B = %q, want %q", got, "world")
	}
}

func TestLoadEnvFile_DoesNotOverrideExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	writeFile(t, path, "TEST_TC_C=from_file\n")
	t.Setenv("TEST_TC_C", "from_env")

	if err := loadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("TEST_TC_C"); got != "from_env" {
		t.Errorf("TEST_TC_C = %q, want %q", got, "from_env")
	}
}

func TestLoadEnvFiles_Precedence(t *testing.T) {
	work := t.TempDir()
	home := t.TempDir()
	t.Chdir(work)
	t.Setenv("TIMECAMP_MCP_CONFIG_HOME", home)
	unset(t, "TEST_TC_D")
	unset(t, "TEST_TC_E")

	writeFile(t, filepath.Join(work, ".env.local"), "TEST_TC_D=local\n")
	writeFile(t, filepath.Join(work, ".env"), "TEST_TC_D=dotenv\nTEST_TC_E=dotenv\n")
	writeFile(t, filepath.Join(home, "env"), "TEST_TC_E=global\n")

	if err := LoadEnvFiles(); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("TEST_TC_D"); got != "local" {
		t.Errorf("TEST_TC_D = %q, want local", got)
	}
	if got := os.Getenv("TEST_TC_E"); got != "dotenv" {
		t.Errorf("TEST_TC_E = %q, want dotenv", got)
	}
}

func TestParseEnvLine(t *testing.T) {
	tests := []struct {
		line      string
		key, val  string
		wantValid bool
	}{
		{"KEY=value", "KEY", "value", true},
		{`KEY="quoted value"`, "KEY", "quoted value", true},
		{"export KEY=v", "KEY", "v", true},
		{"KEY = spaced ", "KEY", "spaced", true},
		{"KEY=a=b", "KEY", "a=b", true},
		{`KEY="unbalanced'`, "KEY", `"unbalanced'`, true},
		{"=value", "", "", false},
		{"novalue", "", "", false},
	}
	for _, tt := range tests {
		key, val, ok := parseEnvLine(tt.line)
		if ok != tt.wantValid || key != tt.key || val != tt.val {
			t.Errorf("parseEnvLine(%q) = %q, %q, %v; want %q, %q, %v",
				tt.line, key, val, ok, tt.key, tt.val, tt.wantValid)
		}
	}
}
