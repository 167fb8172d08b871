package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/covid-data-qc/internal/checks"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// SourceKind selects where a view is read from.
type SourceKind string

const (
	SourceNone   SourceKind = "none"
	SourceAPI    SourceKind = "api"
	SourceSheets SourceKind = "sheets"
	SourceXLSX   SourceKind = "xlsx"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	LogLevel        string
	LogFormat       string
	HTTPAddr        string
	ShutdownTimeout time.Duration

	WorkingSource SourceKind
	CurrentSource SourceKind
	HistorySource SourceKind

	// Workbook export.
	XLSXPath     string
	WorkingSheet string
	CurrentSheet string
	HistorySheet string

	// Google Sheets.
	GoogleSheetID         string
	GoogleCredentialsFile string
	WorkingRange          string
	WorkingHeaderRows     int
	CurrentRange          string
	HistoryRange          string

	// COVID Tracking API.
	APIBaseURL      string
	APITimeout      time.Duration
	HistoryCacheTTL time.Duration

	PublishDate    int
	ThresholdsFile string
	Thresholds     checks.Thresholds

	PlotModels  bool
	SaveResults bool
	ResultsDir  string
	ImagesDir   string

	// Findings sink; disabled when no brokers are set.
	KafkaBrokers       []string
	KafkaFindingsTopic string

	PushgatewayURL string
}

// KafkaEnabled reports whether findings are published.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	apiTimeout, err := parseDuration("API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("HISTORY_CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}

	headerRows, err := strconv.Atoi(sharedcfg.EnvOrDefault("WORKING_HEADER_ROWS", "2"))
	if err != nil || headerRows < 1 || headerRows > 2 {
		return nil, errors.New("invalid WORKING_HEADER_ROWS: must be 1 or 2")
	}

	publishDate, err := parsePublishDate()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout: shutdownTimeout,

		WorkingSource: SourceKind(sharedcfg.EnvOrDefault("WORKING_SOURCE", string(SourceNone))),
		CurrentSource: SourceKind(sharedcfg.EnvOrDefault("CURRENT_SOURCE", string(SourceAPI))),
		HistorySource: SourceKind(sharedcfg.EnvOrDefault("HISTORY_SOURCE", string(SourceAPI))),

		XLSXPath:     os.Getenv("XLSX_PATH"),
		WorkingSheet: sharedcfg.EnvOrDefault("WORKING_SHEET", "Worksheet 2"),
		CurrentSheet: sharedcfg.EnvOrDefault("CURRENT_SHEET", "Current"),
		HistorySheet: sharedcfg.EnvOrDefault("HISTORY_SHEET", "History"),

		GoogleSheetID:         os.Getenv("GOOGLE_SHEET_ID"),
		GoogleCredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		WorkingRange:          sharedcfg.EnvOrDefault("WORKING_RANGE", "Worksheet 2!A2:AQ60"),
		WorkingHeaderRows:     headerRows,
		CurrentRange:          os.Getenv("CURRENT_RANGE"),
		HistoryRange:          os.Getenv("HISTORY_RANGE"),

		APIBaseURL:      sharedcfg.EnvOrDefault("API_BASE_URL", "https://api.covidtracking.com/v1"),
		APITimeout:      apiTimeout,
		HistoryCacheTTL: cacheTTL,

		PublishDate:    publishDate,
		ThresholdsFile: os.Getenv("THRESHOLDS_FILE"),

		PlotModels:  os.Getenv("PLOT_MODELS") == "true",
		SaveResults: os.Getenv("SAVE_RESULTS") == "true",
		ResultsDir:  sharedcfg.EnvOrDefault("RESULTS_DIR", "results"),
		ImagesDir:   sharedcfg.EnvOrDefault("IMAGES_DIR", "images"),

		KafkaFindingsTopic: sharedcfg.EnvOrDefault("KAFKA_FINDINGS_TOPIC", "qc-findings"),
		PushgatewayURL:     os.Getenv("PUSHGATEWAY_URL"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	for _, v := range []struct {
		name string
		kind SourceKind
	}{
		{"WORKING_SOURCE", cfg.WorkingSource},
		{"CURRENT_SOURCE", cfg.CurrentSource},
		{"HISTORY_SOURCE", cfg.HistorySource},
	} {
		if err := cfg.validateSource(v.name, v.kind); err != nil {
			return nil, err
		}
	}
	if cfg.WorkingSource == SourceAPI {
		return nil, errors.New("WORKING_SOURCE cannot be api: the API publishes no working view")
	}
	if cfg.KafkaEnabled() && cfg.KafkaFindingsTopic == "" {
		return nil, errors.New("KAFKA_FINDINGS_TOPIC is required when KAFKA_BROKERS is set")
	}

	cfg.Thresholds, err = checks.LoadThresholds(cfg.ThresholdsFile)
	if err != nil {
		return nil, fmt.Errorf("THRESHOLDS_FILE: %w", err)
	}

	return cfg, nil
}

func (c *Config) validateSource(name string, kind SourceKind) error {
	switch kind {
	case SourceNone, SourceAPI:
		return nil
	case SourceXLSX:
		if c.XLSXPath == "" {
			return fmt.Errorf("%s is xlsx but XLSX_PATH is not set", name)
		}
		return nil
	case SourceSheets:
		if c.GoogleSheetID == "" {
			return fmt.Errorf("%s is sheets but GOOGLE_SHEET_ID is not set", name)
		}
		return nil
	default:
		return fmt.Errorf("invalid %s %q: must be none, api, sheets or xlsx", name, kind)
	}
}

func parseDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parsePublishDate() (int, error) {
	s := os.Getenv("PUBLISH_DATE")
	if s == "" {
		return 0, nil
	}
	if _, err := time.Parse("20060102", s); err != nil {
		return 0, fmt.Errorf("invalid PUBLISH_DATE %q: want YYYYMMDD", s)
	}
	n, _ := strconv.Atoi(s)
	return n, nil
}
