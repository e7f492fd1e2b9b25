// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package main

import (
	"fmt"
	"os"
	"strings"
)

// loadEnvFile reads a dotenv-style file and sets each variable unless
// it already exists in the process environment.
func loadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, rawValue, found := strings.Cut(line, "=")
		if !found {
			return fmt.Errorf("invalid line %d in %s: %s", i+1, path, line)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("invalid line %d in %s: empty key", i+1, path)
		}

		value, err := parseEnvValue(strings.TrimSpace(rawValue))
		if err != nil {
			return fmt.Errorf("invalid line %d in %s: %w", i+1, path, err)
		}

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		os.Setenv(key, value)
	}

	return nil
}

func parseEnvValue(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	switch raw[0] {
	case '"':
		end := strings.Index(raw[1:], `"`)
		if end < 0 {
			return "", fmt.Errorf("unterminated double quote")
		}
		value := raw[1 : 1+end]
		value = strings.ReplaceAll(value, `\n`, "\n")
		value = strings.ReplaceAll(value, `\t`, "\t")
		value = strings.ReplaceAll(value, `\"`, `"`)
		value = strings.ReplaceAll(value, `\\`, `\`)
		return value, nil
	case '\'':
		end := strings.Index(raw[1:], "'")
		if end < 0 {
			return "", fmt.Errorf("unterminated single quote")
		}
		return raw[1 : 1+end], nil
	default:
		if idx := strings.Index(raw, "#"); idx >= 0 {
			raw = raw[:idx]
		}
		return strings.TrimSpace(raw), nil
	}
}
