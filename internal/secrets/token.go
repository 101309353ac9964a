package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the engine's secrets in the OS keychain.
const KeyringService = "jobportal"

// EnvAPIToken overrides the keychain, for headless deployments without one.
const EnvAPIToken = "JOBPORTAL_API_TOKEN"

// GetAPIToken returns the admin API bearer token, environment first, then
// keychain. An empty result means the API runs unauthenticated.
func GetAPIToken(account string) string {
	if tok := strings.TrimSpace(os.Getenv(EnvAPIToken)); tok != "" {
		return tok
	}
	if strings.TrimSpace(account) == "" {
		return ""
	}
	tok, err := keyring.Get(KeyringService, account)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(tok)
}

func SetAPIToken(account, token string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, account, token)
}

func DeleteAPIToken(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}
