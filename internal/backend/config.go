package backend

import (
	"fmt"

	"bilancio/internal/config"
)

// FromAppConfig converts the application config to a backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	t := Type(appConfig.Backend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.Backend)
	}

	return Config{
		Type: t,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		DataDirectory: appConfig.FileStoreDir,
	}, nil
}

// Validate checks that the config carries what its backend type needs.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteType:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
		// AMQP is optional on the sqlite backend.

	case FileType:
		if c.DataDirectory == "" {
			return fmt.Errorf("data directory is required for file backend")
		}
	}

	return nil
}
