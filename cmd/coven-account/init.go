// ABOUTME: Interactive config file generation for coven-account
// ABOUTME: Prompts for listener, database, session backend and logging, then writes YAML

package main

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2389/coven-account/internal/config"
)

// initAnswers holds the values collected by runInit.
type initAnswers struct {
	HTTPAddr      string
	BaseURL       string
	DBPath        string
	Backend       string
	RedisAddr     string
	JWTSecret     string
	DefaultRegion string
	LogLevel      string
	LogFormat     string
}

func runInit(args []string) error {
	var configPath string
	fs := newFlagSet("init", &configPath)
	if err := fs.Parse(args); err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("coven-account configuration setup")
	fmt.Println("=================================")
	fmt.Println()

	outputFile := prompt(reader, "Config file path", configPath)

	if _, err := os.Stat(outputFile); err == nil {
		if !isYes(prompt(reader, "File exists. Overwrite?", "no")) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	var a initAnswers

	fmt.Println("\n--- Server Configuration ---")
	a.HTTPAddr = prompt(reader, "HTTP address", config.DefaultHTTPAddr)
	a.BaseURL = prompt(reader, "Public base URL", "http://"+a.HTTPAddr)

	fmt.Println("\n--- Database Configuration ---")
	a.DBPath = prompt(reader, "SQLite database path", filepath.Join(config.DataDir(), "account.db"))

	fmt.Println("\n--- Session Configuration ---")
	a.Backend = prompt(reader, "Session backend (sqlite/redis)", config.BackendSQLite)
	if a.Backend == config.BackendRedis {
		a.RedisAddr = prompt(reader, "Redis address", "localhost:6379")
	}

	fmt.Println("\n--- Admin Tokens ---")
	if isYes(prompt(reader, "Enable signed admin JWTs?", "yes")) {
		secret, err := newSecret()
		if err != nil {
			return err
		}
		a.JWTSecret = secret
	}

	fmt.Println("\n--- Accounts ---")
	a.DefaultRegion = prompt(reader, "Default phone region", config.DefaultRegion)

	fmt.Println("\n--- Logging Configuration ---")
	a.LogLevel = prompt(reader, "Log level (debug/info/warn/error)", "info")
	a.LogFormat = prompt(reader, "Log format (text/json)", "text")

	content := renderConfig(a)
	if _, err := config.Parse(content, "yaml"); err != nil {
		return fmt.Errorf("generated config is invalid: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	// The file may hold the JWT secret.
	if err := os.WriteFile(outputFile, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(a.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nNext steps:")
	fmt.Printf("  coven-account bootstrap-admin --config %s --username admin\n", outputFile)
	fmt.Printf("  coven-account serve --config %s\n", outputFile)

	return nil
}

// renderConfig renders answers as a YAML config file.
func renderConfig(a initAnswers) string {
	var b strings.Builder
	b.WriteString("# coven-account configuration\n")
	b.WriteString("# Generated by coven-account init\n\n")

	b.WriteString("server:\n")
	b.WriteString(fmt.Sprintf("  http_addr: %q\n", a.HTTPAddr))
	b.WriteString(fmt.Sprintf("  base_url: %q\n", a.BaseURL))
	b.WriteString("\n")

	b.WriteString("database:\n")
	b.WriteString(fmt.Sprintf("  path: %q\n", a.DBPath))
	b.WriteString("\n")

	b.WriteString("sessions:\n")
	b.WriteString(fmt.Sprintf("  backend: %q\n", a.Backend))
	b.WriteString("  ttl: \"24h\"\n")
	b.WriteString("  sweep_interval: \"10m\"\n")
	if a.RedisAddr != "" {
		b.WriteString("  redis:\n")
		b.WriteString(fmt.Sprintf("    addr: %q\n", a.RedisAddr))
		b.WriteString(fmt.Sprintf("    prefix: %q\n", config.DefaultRedisPrefix))
	}
	b.WriteString("\n")

	if a.JWTSecret != "" {
		b.WriteString("auth:\n")
		b.WriteString(fmt.Sprintf("  jwt_secret: %q\n", a.JWTSecret))
		b.WriteString("\n")
	}

	b.WriteString("accounts:\n")
	b.WriteString(fmt.Sprintf("  default_region: %q\n", a.DefaultRegion))
	b.WriteString("\n")

	b.WriteString("logging:\n")
	b.WriteString(fmt.Sprintf("  level: %q\n", a.LogLevel))
	b.WriteString(fmt.Sprintf("  format: %q\n", a.LogFormat))

	return b.String()
}

// newSecret returns a random 32-byte secret, base64 encoded.
func newSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating JWT secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func isYes(s string) bool {
	s = strings.ToLower(s)
	return s == "yes" || s == "y"
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
