package models

import "time"

// MConfig Structure
type MConfig struct {
	Name      string           `yaml:"name"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	LogLevel  string           `yaml:"log_level"`
	Storage   MStorageConfig   `yaml:"storage"`
	Dashboard MDashboardConfig `yaml:"dashboard"`
	API       MAPIConfig       `yaml:"api"`
	Generator MGeneratorConfig `yaml:"generator"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MDashboardConfig struct {
	StatsIntervalSeconds   int `yaml:"stats_interval_seconds"`
	ThrottleWindowSeconds  int `yaml:"throttle_window_seconds"`
	RetentionWindowMinutes int `yaml:"retention_window_minutes"`
	RecentWindowMinutes    int `yaml:"recent_window_minutes"`
	TopCategoriesLimit     int `yaml:"top_categories_limit"`
	ComputeTimeoutSeconds  int `yaml:"compute_timeout_seconds"`
}

// Duration accessors for the dashboard knobs.

func (d MDashboardConfig) StatsInterval() time.Duration {
	return time.Duration(d.StatsIntervalSeconds) * time.Second
}

func (d MDashboardConfig) ThrottleWindow() time.Duration {
	return time.Duration(d.ThrottleWindowSeconds) * time.Second
}

func (d MDashboardConfig) RetentionWindow() time.Duration {
	return time.Duration(d.RetentionWindowMinutes) * time.Minute
}

func (d MDashboardConfig) RecentWindow() time.Duration {
	return time.Duration(d.RecentWindowMinutes) * time.Minute
}

func (d MDashboardConfig) ComputeTimeout() time.Duration {
	return time.Duration(d.ComputeTimeoutSeconds) * time.Second
}

type MAPIConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
	BulkInsertLimit int `yaml:"bulk_insert_limit"`
}

type MGeneratorConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	BatchSize       int `yaml:"batch_size"`
}
