package config

import (
	"os"

	"github.com/zalando/go-keyring"

	"petalbrew/pkg/models"
)

const keyringService = "petalbrew"

// EnvPassword overrides the stored warehouse password when set. CI and
// containers use this instead of the keyring.
const EnvPassword = "PETALBREW_WAREHOUSE_PASSWORD"

// StorePassword saves the warehouse password in the OS keyring.
func StorePassword(username, password string) error {
	return keyring.Set(keyringService, username, password)
}

// DeletePassword removes the stored warehouse password.
func DeletePassword(username string) error {
	err := keyring.Delete(keyringService, username)
	if err == keyring.ErrNotFound {
		return nil
	}
	return err
}

// ResolvePassword fills in the warehouse password. Resolution order: OS
// keyring, then the (possibly encrypted) config value, then the
// PETALBREW_WAREHOUSE_PASSWORD environment variable. A config without a
// resolvable password is left empty; connection validation reports it.
func ResolvePassword(config *models.Config) error {
	if config.Warehouse.Username != "" {
		if password, err := keyring.Get(keyringService, config.Warehouse.Username); err == nil {
			config.Warehouse.Password = password
			return nil
		}
	}

	if config.Warehouse.Password != "" {
		password, err := DecryptPassword(config.Warehouse.Password)
		if err != nil {
			return err
		}
		config.Warehouse.Password = password
		return nil
	}

	if password := os.Getenv(EnvPassword); password != "" {
		config.Warehouse.Password = password
	}
	return nil
}
