package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// TableNames holds the workbook tab names of the four source tables.
type TableNames struct {
	Sales       string `yaml:"sales"`
	Redemptions string `yaml:"redemptions"`
	Identity    string `yaml:"identity"`
	ExtraOrders string `yaml:"extra_orders"`
}

type Config struct {
	StoreKind string `yaml:"store_kind"` // file|http|drive
	SheetDir  string `yaml:"sheet_dir"`
	SheetPath string `yaml:"sheet_path"`
	SheetURL  string `yaml:"sheet_url"`

	DriveFileID       string `yaml:"drive_file_id"`
	DriveClientID     string `yaml:"-"`
	DriveClientSecret string `yaml:"-"`
	DriveRefreshToken string `yaml:"-"`
	DriveRedirectURI  string `yaml:"drive_redirect_uri"`

	DBPath     string `yaml:"db_path"`
	OutputDir  string `yaml:"output_dir"`
	ListenAddr string `yaml:"listen_addr"`

	HTTPTimeoutMs int `yaml:"http_timeout_ms"`

	Tables TableNames `yaml:"tables"`
}

// Load reads .env, an optional YAML config file (CONFIG_PATH or
// ./conecta.yaml), then environment overrides, in that order.
func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		StoreKind:        "file",
		SheetDir:         filepath.Join(cwd, "data"),
		DriveRedirectURI: "https://developers.google.com/oauthplayground",
		DBPath:           filepath.Join(cwd, "data", "conecta.db"),
		OutputDir:        filepath.Join(cwd, "out"),
		ListenAddr:       ":8080",
		HTTPTimeoutMs:    30000,
		Tables: TableNames{
			Sales:       "TAB01",
			Redemptions: "TAB02",
			Identity:    "TAB03",
			ExtraOrders: "TAB04",
		},
	}

	if err := loadYAML(&cfg); err != nil {
		return Config{}, err
	}

	cfg.StoreKind = getEnv("STORE_KIND", cfg.StoreKind)
	cfg.SheetDir = getEnv("SHEET_DIR", cfg.SheetDir)
	cfg.SheetPath = getEnv("SHEET_PATH", cfg.SheetPath)
	cfg.SheetURL = getEnv("SHEET_URL", cfg.SheetURL)

	cfg.DriveFileID = getEnv("DRIVE_FILE_ID", cfg.DriveFileID)
	cfg.DriveClientID = getEnv("DRIVE_CLIENT_ID", "")
	cfg.DriveClientSecret = getEnv("DRIVE_CLIENT_SECRET", "")
	cfg.DriveRefreshToken = getEnv("DRIVE_REFRESH_TOKEN", "")
	cfg.DriveRedirectURI = getEnv("DRIVE_REDIRECT_URI", cfg.DriveRedirectURI)

	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.OutputDir = getEnv("OUTPUT_DIR", cfg.OutputDir)
	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.HTTPTimeoutMs = getEnvInt("HTTP_TIMEOUT_MS", cfg.HTTPTimeoutMs)

	cfg.Tables.Sales = getEnv("TABLE_SALES", cfg.Tables.Sales)
	cfg.Tables.Redemptions = getEnv("TABLE_REDEMPTIONS", cfg.Tables.Redemptions)
	cfg.Tables.Identity = getEnv("TABLE_IDENTITY", cfg.Tables.Identity)
	cfg.Tables.ExtraOrders = getEnv("TABLE_EXTRA_ORDERS", cfg.Tables.ExtraOrders)

	return cfg, nil
}

func loadYAML(cfg *Config) error {
	path := getEnv("CONFIG_PATH", "conecta.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
