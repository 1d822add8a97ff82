package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads configuration from the JSON config file and sets default
// values. configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./vtunerlogs")

	viper.SetDefault("settings.file", "./vtuner.settings")
	viper.SetDefault("settings.presetsDir", "./vtuner_presets")

	viper.SetDefault("discovery.targetName", "PlayerVehicle")
	viper.SetDefault("discovery.nameHint", "vehicle")
	viper.SetDefault("discovery.massThreshold", 500.0)
	viper.SetDefault("discovery.scanCooldown", 1.0)

	viper.SetDefault("journal.backend", "sqlite")
	viper.SetDefault("journal.sqlitePath", "./vtuner_journal.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "vtuner")

	viper.SetDefault("session.name", "untitled session")

	viper.SetDefault("world.name", "local")
	viper.SetDefault("world.anchorLongitude", 0.0)
	viper.SetDefault("world.anchorLatitude", 0.0)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.backupPath", "./vtuner_telemetry.gz")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "vtuner-metrics")
	viper.SetDefault("influx.bucket", "vehicle_telemetry")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("upload.enabled", false)
	viper.SetDefault("upload.serverUrl", "http://localhost:5000")
	viper.SetDefault("upload.apiKey", "")

	viper.SetConfigName("vtuner.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat returns a float config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}
