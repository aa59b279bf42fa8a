package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Nodes     NodesConfig     `mapstructure:"nodes"`
	Download  DownloadConfig  `mapstructure:"download"`
	Storage   StorageConfig   `mapstructure:"storage"`
	DevServer DevServerConfig `mapstructure:"devserver"`
}

// ServerConfig describes the editor backend the extension talks to
type ServerConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// NodesConfig maps node kinds to the behaviors attached to them
type NodesConfig struct {
	Upload   []UploadNodeConfig `mapstructure:"upload"`
	Download []string           `mapstructure:"download"`
}

// UploadNodeConfig describes one upload-capable node kind
type UploadNodeConfig struct {
	Kind         string   `mapstructure:"kind"`
	Input        string   `mapstructure:"input"`
	Accept       []string `mapstructure:"accept"`
	Endpoint     string   `mapstructure:"endpoint"`
	Field        string   `mapstructure:"field"`
	Media        string   `mapstructure:"media"`
	AllowBatch   bool     `mapstructure:"allow_batch"`
	PreviewRoute string   `mapstructure:"preview_route"`
}

// DownloadConfig selects where requested downloads end up
type DownloadConfig struct {
	Sink       string `mapstructure:"sink"`
	Dir        string `mapstructure:"dir"`
	Thumbnails bool   `mapstructure:"thumbnails"`
}

// StorageConfig holds S3-compatible object storage configuration
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccountID       string `mapstructure:"account_id"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	OutputPrefix    string `mapstructure:"output_prefix"`
	ThumbPrefix     string `mapstructure:"thumb_prefix"`
}

// DevServerConfig configures the local development backend
type DevServerConfig struct {
	Addr          string `mapstructure:"addr"`
	Root          string `mapstructure:"root"`
	HashCacheSize int    `mapstructure:"hash_cache_size"`
}

var (
	imageAccept = []string{"image/png", "image/jpeg", "image/webp"}
	videoAccept = []string{"video/webm", "video/mp4", "video/quicktime", "video/x-matroska", "image/gif"}
)

// Load loads configuration from multiple sources with priority:
// 1. Command line flags (highest)
// 2. Environment variables
// 3. Configuration file
// 4. Defaults (lowest)
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("S3IO")
	v.AutomaticEnv()

	v.BindEnv("server.base_url", "S3IO_BASE_URL")
	v.BindEnv("server.timeout", "S3IO_TIMEOUT")
	v.BindEnv("log.level", "S3IO_LOG_LEVEL")
	v.BindEnv("log.format", "S3IO_LOG_FORMAT")
	v.BindEnv("log.file", "S3IO_LOG_FILE")
	v.BindEnv("download.sink", "S3IO_DOWNLOAD_SINK")
	v.BindEnv("download.dir", "S3IO_DOWNLOAD_DIR")
	v.BindEnv("download.thumbnails", "S3IO_DOWNLOAD_THUMBNAILS")
	v.BindEnv("storage.endpoint", "S3IO_STORAGE_ENDPOINT")
	v.BindEnv("storage.account_id", "S3IO_ACCOUNT_ID")
	v.BindEnv("storage.region", "S3IO_REGION")
	v.BindEnv("storage.access_key_id", "S3IO_ACCESS_KEY_ID")
	v.BindEnv("storage.secret_access_key", "S3IO_SECRET_ACCESS_KEY")
	v.BindEnv("storage.bucket", "S3IO_BUCKET")
	v.BindEnv("storage.output_prefix", "S3IO_OUTPUT_PREFIX")
	v.BindEnv("devserver.addr", "S3IO_DEVSERVER_ADDR")
	v.BindEnv("devserver.root", "S3IO_DEVSERVER_ROOT")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")

		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.s3io")
		v.AddConfigPath("/etc/s3io/")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is not an error - we can use defaults and env vars
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.base_url", "http://127.0.0.1:8188")
	v.SetDefault("server.timeout", 30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")

	v.SetDefault("nodes.upload", DefaultUploadNodes())
	v.SetDefault("nodes.download", []string{"SaveImageS3", "VideoCombineS3"})

	v.SetDefault("download.sink", "disk")
	v.SetDefault("download.dir", defaultDownloadDir())
	v.SetDefault("download.thumbnails", false)

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.output_prefix", "output/")
	v.SetDefault("storage.thumb_prefix", "thumbs/")

	v.SetDefault("devserver.addr", "127.0.0.1:8188")
	v.SetDefault("devserver.root", "./s3io-data")
	v.SetDefault("devserver.hash_cache_size", 256)
}

// DefaultUploadNodes returns the built-in upload node table
func DefaultUploadNodes() []UploadNodeConfig {
	return []UploadNodeConfig{
		{
			Kind:         "LoadImageS3",
			Input:        "image",
			Accept:       imageAccept,
			Endpoint:     "/s3io/upload/image",
			Field:        "image",
			Media:        "image",
			AllowBatch:   true,
			PreviewRoute: "/s3io/preview/image",
		},
		{
			Kind:         "LoadVideoUploadS3",
			Input:        "video",
			Accept:       videoAccept,
			Endpoint:     "/s3io/upload/video",
			Field:        "video",
			Media:        "video",
			PreviewRoute: "/s3io/preview/video",
		},
		{
			Kind:     "VHS_LoadVideo",
			Input:    "video",
			Accept:   videoAccept,
			Endpoint: "/s3io/upload/video",
			Field:    "video",
			Media:    "video",
		},
		{
			Kind:     "VHS_LoadVideoFFmpeg",
			Input:    "video",
			Accept:   videoAccept,
			Endpoint: "/s3io/upload/video",
			Field:    "video",
			Media:    "video",
		},
	}
}

func defaultDownloadDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./downloads"
	}
	return filepath.Join(homeDir, "Downloads")
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.toml"
	}
	return filepath.Join(homeDir, ".s3io", "config.toml")
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() error {
	configPath := GetDefaultConfigPath()
	dir := filepath.Dir(configPath)
	return os.MkdirAll(dir, 0700)
}
