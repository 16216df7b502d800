package config

import (
	"fmt"
	"os"

	"sales-observer/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills unset dashboard/API knobs with their documented defaults.
func (c *Config) applyDefaults() {
	if c.Dashboard.StatsIntervalSeconds == 0 {
		c.Dashboard.StatsIntervalSeconds = 5
	}
	if c.Dashboard.ThrottleWindowSeconds == 0 {
		c.Dashboard.ThrottleWindowSeconds = 3
	}
	if c.Dashboard.RetentionWindowMinutes == 0 {
		c.Dashboard.RetentionWindowMinutes = 10
	}
	if c.Dashboard.RecentWindowMinutes == 0 {
		c.Dashboard.RecentWindowMinutes = 5
	}
	if c.Dashboard.TopCategoriesLimit == 0 {
		c.Dashboard.TopCategoriesLimit = 5
	}
	if c.Dashboard.ComputeTimeoutSeconds == 0 {
		c.Dashboard.ComputeTimeoutSeconds = 5
	}
	if c.API.DefaultPageSize == 0 {
		c.API.DefaultPageSize = 100
	}
	if c.API.MaxPageSize == 0 {
		c.API.MaxPageSize = 1000
	}
	if c.API.BulkInsertLimit == 0 {
		c.API.BulkInsertLimit = 1000
	}
	if c.Generator.IntervalSeconds == 0 {
		c.Generator.IntervalSeconds = 1
	}
	if c.Generator.BatchSize == 0 {
		c.Generator.BatchSize = 10
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Storage configuration
	if c.Storage.DBType == "" {
		return fmt.Errorf("database type cannot be empty")
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("connection string cannot be empty for postgres")
	}

	// Validate Dashboard configuration
	if c.Dashboard.StatsIntervalSeconds <= 0 {
		return fmt.Errorf("stats interval must be greater than 0")
	}
	if c.Dashboard.ThrottleWindowSeconds <= 0 {
		return fmt.Errorf("throttle window must be greater than 0")
	}
	if c.Dashboard.RetentionWindowMinutes <= 0 {
		return fmt.Errorf("retention window must be greater than 0")
	}
	if c.Dashboard.ThrottleWindow() >= c.Dashboard.RetentionWindow() {
		return fmt.Errorf("throttle window must be shorter than retention window")
	}
	if c.Dashboard.TopCategoriesLimit <= 0 {
		return fmt.Errorf("top categories limit must be greater than 0")
	}

	// Validate API configuration
	if c.API.DefaultPageSize <= 0 || c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("default page size must be between 1 and max page size (%d)", c.API.MaxPageSize)
	}
	if c.API.BulkInsertLimit <= 0 {
		return fmt.Errorf("bulk insert limit must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
