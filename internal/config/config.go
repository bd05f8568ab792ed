package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default dataset: the cleaned 50k-row wearable sensor sample.
const (
	DefaultDatasetID   = "1prQQkSUDcYltzPCtX5wcJmr4JbR9WPXS"
	DefaultDatasetFile = "data_bersih_SAMPEL_50k.parquet"
)

// Global configuration structure.
type Global struct {
	// Dataset source. DatasetURL wins over DatasetID when both are set.
	DatasetID     string `mapstructure:"dataset_id" yaml:"dataset_id"`
	DatasetURL    string `mapstructure:"dataset_url" yaml:"dataset_url"`
	DatasetPath   string `mapstructure:"dataset_path" yaml:"dataset_path"`
	DatasetSHA256 string `mapstructure:"dataset_sha256" yaml:"dataset_sha256"`

	// Optional trained classifier artifact; downloaded, never loaded.
	ModelID   string `mapstructure:"model_id" yaml:"model_id"`
	ModelURL  string `mapstructure:"model_url" yaml:"model_url"`
	ModelPath string `mapstructure:"model_path" yaml:"model_path"`

	DataDir        string `mapstructure:"data_dir" yaml:"data_dir"`
	HTTPTimeoutSec int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`

	// Dashboard
	IDColumn       string            `mapstructure:"id_column" yaml:"id_column"`
	TargetColumn   string            `mapstructure:"target_column" yaml:"target_column"`
	TargetLabels   map[string]string `mapstructure:"target_labels" yaml:"target_labels"`
	FeatureColumns []string          `mapstructure:"feature_columns" yaml:"feature_columns"`
	SampleRows     int               `mapstructure:"sample_rows" yaml:"sample_rows"`
	SampleSeed     int64             `mapstructure:"sample_seed" yaml:"sample_seed"`
	PreviewRows    int               `mapstructure:"preview_rows" yaml:"preview_rows"`
	HistogramBins  int               `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	ChartsDir      string            `mapstructure:"charts_dir" yaml:"charts_dir"`
	ChartFormat    string            `mapstructure:"chart_format" yaml:"chart_format"`

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`
}

// Dir returns ~/.datadash.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datadash"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datadash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Empty defaults register the keys so AutomaticEnv can override them.
	for _, k := range []string{"dataset_url", "dataset_sha256", "model_id", "model_url", "model_path", "data_dir", "log_file"} {
		v.SetDefault(k, "")
	}
	v.SetDefault("dataset_id", DefaultDatasetID)
	v.SetDefault("dataset_path", DefaultDatasetFile)
	v.SetDefault("http_timeout_sec", 300)
	v.SetDefault("id_column", "id")
	v.SetDefault("target_column", "y_binary")
	v.SetDefault("target_labels", map[string]string{"0": "Tidak Lelah", "1": "Lelah"})
	v.SetDefault("feature_columns", []string{"heartRate", "skinTemperature", "gsr_x", "x", "y", "z"})
	v.SetDefault("sample_rows", 50000)
	v.SetDefault("sample_seed", 42)
	v.SetDefault("preview_rows", 100)
	v.SetDefault("histogram_bins", 30)
	v.SetDefault("charts_dir", "charts")
	v.SetDefault("chart_format", "png")
	v.SetDefault("log_level", "info")
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATADASH")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// The file is optional; a present but malformed one is an error.
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.DataDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.DataDir = filepath.Join(dir, "data")
	}
	return &c, nil
}

// DatasetRemote returns the URL or Drive id the dataset is fetched from.
func (c *Global) DatasetRemote() string {
	if c.DatasetURL != "" {
		return c.DatasetURL
	}
	return c.DatasetID
}

// ModelRemote returns the URL or Drive id of the classifier artifact, or "".
func (c *Global) ModelRemote() string {
	if c.ModelURL != "" {
		return c.ModelURL
	}
	return c.ModelID
}

// ResolvePath anchors a relative path under DataDir.
func (c *Global) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// LocalDatasetPath is where the dataset lives on disk.
func (c *Global) LocalDatasetPath() string {
	p := c.DatasetPath
	if p == "" {
		p = DefaultDatasetFile
	}
	return c.ResolvePath(p)
}

// LocalModelPath is where the classifier artifact lives, or "" when none is
// configured. Without an explicit model_path the file is named "model.bin".
func (c *Global) LocalModelPath() string {
	if c.ModelRemote() == "" {
		return ""
	}
	p := c.ModelPath
	if p == "" {
		p = "model.bin"
	}
	return c.ResolvePath(p)
}

// Keys lists the keys accepted by Set, in display order.
var Keys = []string{
	"dataset_id", "dataset_url", "dataset_path", "dataset_sha256",
	"model_id", "model_url", "model_path",
	"data_dir", "http_timeout_sec",
	"id_column", "target_column", "target_labels", "feature_columns",
	"sample_rows", "sample_seed", "preview_rows", "histogram_bins",
	"charts_dir", "chart_format",
	"log_level", "log_file",
}

// Set assigns a single key from its string form. target_labels takes
// "0=No,1=Yes" and feature_columns a comma-separated list.
func (c *Global) Set(key, val string) error {
	val = strings.TrimSpace(val)
	switch key {
	case "dataset_id":
		c.DatasetID = val
	case "dataset_url":
		c.DatasetURL = val
	case "dataset_path":
		c.DatasetPath = val
	case "dataset_sha256":
		c.DatasetSHA256 = strings.ToLower(val)
	case "model_id":
		c.ModelID = val
	case "model_url":
		c.ModelURL = val
	case "model_path":
		c.ModelPath = val
	case "data_dir":
		c.DataDir = val
	case "http_timeout_sec":
		return setPositiveInt(&c.HTTPTimeoutSec, key, val)
	case "id_column":
		c.IDColumn = val
	case "target_column":
		c.TargetColumn = val
	case "target_labels":
		m, err := parseLabels(val)
		if err != nil {
			return err
		}
		c.TargetLabels = m
	case "feature_columns":
		c.FeatureColumns = splitList(val)
	case "sample_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		c.SampleRows = i
	case "sample_seed":
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %w", key, err)
		}
		c.SampleSeed = i
	case "preview_rows":
		return setPositiveInt(&c.PreviewRows, key, val)
	case "histogram_bins":
		return setPositiveInt(&c.HistogramBins, key, val)
	case "charts_dir":
		c.ChartsDir = val
	case "chart_format":
		switch strings.ToLower(val) {
		case "png", "svg":
			c.ChartFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid chart_format: %s (use png or svg)", val)
		}
	case "log_level":
		switch strings.ToLower(val) {
		case "trace", "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s", val)
		}
	case "log_file":
		c.LogFile = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// Get returns the string form of key, as accepted by Set.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "dataset_id":
		return c.DatasetID, nil
	case "dataset_url":
		return c.DatasetURL, nil
	case "dataset_path":
		return c.DatasetPath, nil
	case "dataset_sha256":
		return c.DatasetSHA256, nil
	case "model_id":
		return c.ModelID, nil
	case "model_url":
		return c.ModelURL, nil
	case "model_path":
		return c.ModelPath, nil
	case "data_dir":
		return c.DataDir, nil
	case "http_timeout_sec":
		return strconv.Itoa(c.HTTPTimeoutSec), nil
	case "id_column":
		return c.IDColumn, nil
	case "target_column":
		return c.TargetColumn, nil
	case "target_labels":
		return formatLabels(c.TargetLabels), nil
	case "feature_columns":
		return strings.Join(c.FeatureColumns, ","), nil
	case "sample_rows":
		return strconv.Itoa(c.SampleRows), nil
	case "sample_seed":
		return strconv.FormatInt(c.SampleSeed, 10), nil
	case "preview_rows":
		return strconv.Itoa(c.PreviewRows), nil
	case "histogram_bins":
		return strconv.Itoa(c.HistogramBins), nil
	case "charts_dir":
		return c.ChartsDir, nil
	case "chart_format":
		return c.ChartFormat, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_file":
		return c.LogFile, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

func setPositiveInt(dst *int, key, val string) error {
	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return fmt.Errorf("invalid int for %s: %v", key, val)
	}
	*dst = i
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLabels(s string) (map[string]string, error) {
	m := make(map[string]string)
	for _, pair := range splitList(s) {
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("invalid target_labels entry %q (want value=label)", pair)
		}
		m[k] = v
	}
	return m, nil
}

func formatLabels(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + m[k]
	}
	return strings.Join(parts, ",")
}
