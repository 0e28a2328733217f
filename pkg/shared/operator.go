package shared

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

const (
	EnvOperatorAccountID  = "OPERATOR_ACCOUNT_ID"
	EnvOperatorPrivateKey = "OPERATOR_PRIVATE_KEY"
)

type OperatorConfig struct {
	AccountID     string
	PrivateKey    string
	Network       string
	MirrorBaseURL string
	MirrorAPIKey  string
}

type operatorEnv struct {
	AccountID     string `env:"OPERATOR_ACCOUNT_ID"`
	PrivateKey    string `env:"OPERATOR_PRIVATE_KEY"`
	Network       string `env:"HEDERA_NETWORK" envDefault:"testnet"`
	MirrorBaseURL string `env:"MIRROR_NODE_URL"`
	MirrorAPIKey  string `env:"MIRROR_API_KEY"`
}

var dotenvLoadOnce sync.Once

// OperatorConfigFromEnv reads the operator identity from the process
// environment, after loading a .env file if one is found. It never touches
// the network.
func OperatorConfigFromEnv() (OperatorConfig, error) {
	loadDotEnvIfPresent()

	var raw operatorEnv
	if err := env.Parse(&raw); err != nil {
		return OperatorConfig{}, ConfigurationError{Message: "failed to parse environment", Cause: err}
	}

	accountID := strings.TrimSpace(raw.AccountID)
	if accountID == "" {
		accountID = firstNonEmptyEnv("HEDERA_ACCOUNT_ID", "OPERATOR_ID")
	}
	privateKey := strings.TrimSpace(raw.PrivateKey)
	if privateKey == "" {
		privateKey = firstNonEmptyEnv("HEDERA_PRIVATE_KEY", "OPERATOR_KEY")
	}

	if accountID == "" {
		return OperatorConfig{}, ConfigurationError{Variable: EnvOperatorAccountID, Message: "is required"}
	}
	if privateKey == "" {
		return OperatorConfig{}, ConfigurationError{Variable: EnvOperatorPrivateKey, Message: "is required"}
	}

	network, err := NormalizeNetwork(raw.Network)
	if err != nil {
		return OperatorConfig{}, ConfigurationError{Variable: "HEDERA_NETWORK", Message: "is invalid", Cause: err}
	}

	config := OperatorConfig{
		AccountID:     accountID,
		PrivateKey:    privateKey,
		Network:       network,
		MirrorBaseURL: strings.TrimSpace(raw.MirrorBaseURL),
		MirrorAPIKey:  strings.TrimSpace(raw.MirrorAPIKey),
	}
	if _, _, err := ParseOperator(config); err != nil {
		return OperatorConfig{}, err
	}

	return config, nil
}

// ParseOperator converts the configured strings into SDK values.
func ParseOperator(config OperatorConfig) (hedera.AccountID, hedera.PrivateKey, error) {
	rawAccountID := strings.TrimSpace(config.AccountID)
	if rawAccountID == "" {
		return hedera.AccountID{}, hedera.PrivateKey{}, ConfigurationError{Variable: EnvOperatorAccountID, Message: "is required"}
	}
	accountID, err := hedera.AccountIDFromString(rawAccountID)
	if err != nil {
		return hedera.AccountID{}, hedera.PrivateKey{}, ConfigurationError{
			Variable: EnvOperatorAccountID,
			Message:  "is not a valid account ID",
			Cause:    err,
		}
	}

	privateKey, err := ParsePrivateKey(config.PrivateKey)
	if err != nil {
		return hedera.AccountID{}, hedera.PrivateKey{}, ConfigurationError{
			Variable: EnvOperatorPrivateKey,
			Message:  "is not a valid private key",
			Cause:    err,
		}
	}

	return accountID, privateKey, nil
}

func loadDotEnvIfPresent() {
	dotenvLoadOnce.Do(func() {
		cwd, err := os.Getwd()
		if err != nil {
			return
		}

		current := cwd
		for {
			candidate := filepath.Join(current, ".env")
			if _, statErr := os.Stat(candidate); statErr == nil {
				loadDotEnvFile(candidate)
				return
			}

			parent := filepath.Dir(current)
			if parent == current {
				return
			}
			current = parent
		}
	})
}

func loadDotEnvFile(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	loadedAny := false
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		key, value, found := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !found || !isValidEnvKey(key) {
			continue
		}
		if _, alreadySet := os.LookupEnv(key); alreadySet {
			continue
		}

		if setErr := os.Setenv(key, unquote(strings.TrimSpace(value))); setErr == nil {
			loadedAny = true
		}
	}

	return loadedAny
}

func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	first := value[0]
	last := value[len(value)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}

func isValidEnvKey(key string) bool {
	if key == "" {
		return false
	}
	for index, character := range key {
		if (character >= 'A' && character <= 'Z') ||
			(character >= 'a' && character <= 'z') ||
			(index > 0 && character >= '0' && character <= '9') ||
			character == '_' {
			continue
		}
		return false
	}
	return true
}

func firstNonEmptyEnv(keys ...string) string {
	for _, key := range keys {
		value := strings.TrimSpace(os.Getenv(key))
		if value != "" {
			return value
		}
	}
	return ""
}

// ParsePrivateKey accepts ED25519, ECDSA, or DER encoded private keys.
func ParsePrivateKey(raw string) (hedera.PrivateKey, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return hedera.PrivateKey{}, fmt.Errorf("private key cannot be empty")
	}

	ed25519Key, edErr := hedera.PrivateKeyFromStringEd25519(candidate)
	if edErr == nil {
		return ed25519Key, nil
	}

	ecdsaKey, ecdsaErr := hedera.PrivateKeyFromStringECDSA(candidate)
	if ecdsaErr == nil {
		return ecdsaKey, nil
	}

	genericKey, genericErr := hedera.PrivateKeyFromString(candidate)
	if genericErr == nil {
		return genericKey, nil
	}

	return hedera.PrivateKey{}, fmt.Errorf(
		"failed to parse private key as ED25519 (%v), ECDSA (%v), or generic (%v)",
		edErr,
		ecdsaErr,
		genericErr,
	)
}
