// Package cli wires the colonyledger service into cobra commands. Commands
// print JSON so their output can be piped into other tooling.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"colonyledger/internal/core"
)

func init() {
	viper.SetEnvPrefix("COLONYLEDGER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("storage.driver", string(core.StorageSQLite))
	viper.SetDefault("sqlite.path", "colonyledger.db")
}

// newService opens the configured persistent store and wraps it in a service.
// Storage selection honours the COLONYLEDGER_* environment variables read by
// core.OpenPersistentStore; viper-resolved settings are exported so config
// files and flags feed the same path.
func newService() (*core.Service, error) {
	if driver := viper.GetString("storage.driver"); driver != "" {
		if err := os.Setenv("COLONYLEDGER_STORAGE_DRIVER", driver); err != nil {
			return nil, err
		}
	}
	if path := viper.GetString("sqlite.path"); path != "" {
		if err := os.Setenv("COLONYLEDGER_SQLITE_PATH", path); err != nil {
			return nil, err
		}
	}
	if dsn := viper.GetString("postgres.dsn"); dsn != "" {
		if err := os.Setenv("COLONYLEDGER_POSTGRES_DSN", dsn); err != nil {
			return nil, err
		}
	}
	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return core.NewService(store), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
