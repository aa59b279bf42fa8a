package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Download sinks
const (
	SinkDisk   = "disk"
	SinkBucket = "bucket"
	SinkNone   = "none"
)

// Validate validates the configuration and returns an error if invalid
func Validate(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config validation failed: %w", err)
	}

	if err := validateNodesConfig(&config.Nodes); err != nil {
		return fmt.Errorf("nodes config validation failed: %w", err)
	}

	if err := validateDownloadConfig(&config.Download); err != nil {
		return fmt.Errorf("download config validation failed: %w", err)
	}

	if strings.ToLower(config.Download.Sink) == SinkBucket {
		if err := validateStorageConfig(&config.Storage); err != nil {
			return fmt.Errorf("storage config validation failed: %w", err)
		}
	}

	return nil
}

func validateServerConfig(config *ServerConfig) error {
	u, err := url.Parse(config.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be an http(s) URL, got: %q", config.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url has no host: %q", config.BaseURL)
	}

	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got: %d", config.Timeout)
	}
	return nil
}

// validateLogConfig validates log configuration
func validateLogConfig(config *LogConfig) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
		"panic": true,
	}

	level := strings.ToLower(config.Level)
	if !validLevels[level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error, fatal, panic)", config.Level)
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}

	format := strings.ToLower(config.Format)
	if !validFormats[format] {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", config.Format)
	}

	return nil
}

func validateNodesConfig(config *NodesConfig) error {
	seen := make(map[string]bool)
	for i, node := range config.Upload {
		if strings.TrimSpace(node.Kind) == "" {
			return fmt.Errorf("upload node %d: kind is required", i)
		}
		if seen[node.Kind] {
			return fmt.Errorf("upload node %s is configured twice", node.Kind)
		}
		seen[node.Kind] = true

		if node.Input == "" {
			return fmt.Errorf("upload node %s: input is required", node.Kind)
		}
		if !strings.HasPrefix(node.Endpoint, "/") {
			return fmt.Errorf("upload node %s: endpoint must be an absolute route, got: %q", node.Kind, node.Endpoint)
		}
		if node.Field == "" {
			return fmt.Errorf("upload node %s: field is required", node.Kind)
		}
		switch node.Media {
		case "", "image", "video":
		default:
			return fmt.Errorf("upload node %s: invalid media %q (valid: image, video)", node.Kind, node.Media)
		}
		if node.PreviewRoute != "" && !strings.HasPrefix(node.PreviewRoute, "/") {
			return fmt.Errorf("upload node %s: preview_route must be an absolute route, got: %q", node.Kind, node.PreviewRoute)
		}
	}

	for _, kind := range config.Download {
		if strings.TrimSpace(kind) == "" {
			return fmt.Errorf("download node kinds must not be empty")
		}
	}
	return nil
}

func validateDownloadConfig(config *DownloadConfig) error {
	switch strings.ToLower(config.Sink) {
	case SinkDisk:
		if strings.TrimSpace(config.Dir) == "" {
			return fmt.Errorf("dir is required for the disk sink")
		}
	case SinkBucket, SinkNone:
	default:
		return fmt.Errorf("invalid sink: %s (valid: disk, bucket, none)", config.Sink)
	}
	return nil
}

// validateStorageConfig validates object storage configuration
func validateStorageConfig(config *StorageConfig) error {
	if strings.TrimSpace(config.Endpoint) == "" && strings.TrimSpace(config.AccountID) == "" {
		return fmt.Errorf("endpoint or account_id is required")
	}

	if strings.TrimSpace(config.AccessKeyID) == "" {
		return fmt.Errorf("access_key_id is required")
	}

	if strings.TrimSpace(config.SecretAccessKey) == "" {
		return fmt.Errorf("secret_access_key is required")
	}

	if strings.TrimSpace(config.Bucket) == "" {
		return fmt.Errorf("bucket is required")
	}

	if !isValidBucketName(config.Bucket) {
		return fmt.Errorf("invalid bucket format: %s", config.Bucket)
	}

	return nil
}

// isValidBucketName checks if the bucket name follows basic S3 naming rules
func isValidBucketName(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}

	// Must start and end with letter or number
	if !isAlphaNum(name[0]) || !isAlphaNum(name[len(name)-1]) {
		return false
	}

	for i, char := range name {
		if !isAlphaNum(byte(char)) && char != '-' && char != '.' {
			return false
		}

		// Cannot have consecutive periods or period-dash combinations
		if i > 0 {
			prev := name[i-1]
			if char == '.' && (prev == '.' || prev == '-') {
				return false
			}
			if char == '-' && prev == '.' {
				return false
			}
		}
	}

	return true
}

// isAlphaNum checks if a byte is alphanumeric
func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
