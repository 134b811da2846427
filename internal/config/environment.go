package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
)

const defaultEnvironmentName = "local"

// ResolvedEnvironment represents a fully-resolved environment with concrete values.
type ResolvedEnvironment struct {
	Name        string
	DatabaseURL string
	DotenvPath  string
	FromConfig  bool
	FromDotenv  bool
}

// ResolveEnvironment resolves a named environment into a concrete connection string.
func ResolveEnvironment(config *Config, name string) (*ResolvedEnvironment, error) {
	envName := strings.TrimSpace(name)
	if envName == "" {
		if config != nil && config.DefaultEnvironment != "" {
			envName = config.DefaultEnvironment
		} else {
			envName = defaultEnvironmentName
		}
	}

	var (
		envConfig EnvironmentConfig
		envExists bool
	)
	if config != nil && config.Environments != nil {
		if cfg, ok := config.Environments[envName]; ok {
			envConfig = cfg
			envExists = true
		}
	}

	resolved := &ResolvedEnvironment{
		Name:        envName,
		DatabaseURL: envConfig.DatabaseURL,
		FromConfig:  envExists,
	}

	var (
		baseDir        string
		projectDir     string
		dotenvFileName = ".env." + envName
	)
	if config != nil {
		baseDir = config.ConfigDir()
		projectDir = config.ProjectDir()
	}
	if baseDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			baseDir = cwd
		}
	}

	if baseDir != "" {
		resolved.DotenvPath = filepath.Join(baseDir, dotenvFileName)
	} else {
		resolved.DotenvPath = dotenvFileName
	}

	if _, err := os.Stat(resolved.DotenvPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to access %s: %w", resolved.DotenvPath, err)
		}
		if projectDir != "" && projectDir != baseDir {
			altPath := filepath.Join(projectDir, dotenvFileName)
			if altInfo, altErr := os.Stat(altPath); altErr == nil && !altInfo.IsDir() {
				resolved.DotenvPath = altPath
			}
		}
	}

	if info, err := os.Stat(resolved.DotenvPath); err == nil && !info.IsDir() {
		values, err := godotenv.Read(resolved.DotenvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", resolved.DotenvPath, err)
		}
		resolved.FromDotenv = true

		if connString := urlFromDotenv(values); connString != "" {
			resolved.DatabaseURL = connString
		}
	}

	if config != nil && len(config.Environments) > 0 && !envExists && !resolved.FromDotenv {
		return nil, fmt.Errorf("environment %q not defined in %s and %s not found", envName, FileName, resolved.DotenvPath)
	}

	if resolved.DatabaseURL == "" {
		return nil, fmt.Errorf("environment %q has no database_url", envName)
	}

	withOptions, err := appendOptions(resolved.DatabaseURL, envConfig.Options)
	if err != nil {
		return nil, err
	}
	resolved.DatabaseURL = withOptions

	return resolved, nil
}

// urlFromDotenv picks the connection string from dotenv values. DATABASE_URL wins,
// then the database specific variables.
func urlFromDotenv(values map[string]string) string {
	if value := values["DATABASE_URL"]; value != "" {
		return value
	}
	if value := values["POSTGRES_URL"]; value != "" {
		return value
	}
	if value := values["SQLITE_DB_PATH"]; value != "" {
		return value
	}
	if value := values["LIBSQL_URL"]; value != "" {
		if authToken := values["LIBSQL_AUTH_TOKEN"]; authToken != "" {
			return appendQuery(value, "authToken="+url.QueryEscape(authToken))
		}
		return value
	}
	return ""
}

// appendOptions adds environment options to the connection string as query
// parameters, in key order.
func appendOptions(connString string, options map[string]string) (string, error) {
	if len(options) == 0 {
		return connString, nil
	}

	keys := make([]string, 0, len(options))
	for k := range options {
		if strings.TrimSpace(k) == "" {
			return "", fmt.Errorf("environment option with empty name")
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	params := make([]string, 0, len(keys))
	for _, k := range keys {
		params = append(params, url.QueryEscape(k)+"="+url.QueryEscape(options[k]))
	}
	return appendQuery(connString, strings.Join(params, "&")), nil
}

func appendQuery(connString string, query string) string {
	if strings.Contains(connString, "?") {
		return connString + "&" + query
	}
	return connString + "?" + query
}
