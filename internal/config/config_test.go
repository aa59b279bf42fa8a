package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8188", cfg.Server.BaseURL)
	assert.Equal(t, 30, cfg.Server.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, SinkDisk, cfg.Download.Sink)
	assert.Equal(t, []string{"SaveImageS3", "VideoCombineS3"}, cfg.Nodes.Download)

	require.Len(t, cfg.Nodes.Upload, 4)
	image := cfg.Nodes.Upload[0]
	assert.Equal(t, "LoadImageS3", image.Kind)
	assert.True(t, image.AllowBatch)
	assert.Equal(t, "/s3io/preview/image", image.PreviewRoute)
	assert.Equal(t, []string{"image/png", "image/jpeg", "image/webp"}, image.Accept)

	for _, node := range cfg.Nodes.Upload[1:] {
		assert.False(t, node.AllowBatch, node.Kind)
		assert.Equal(t, "/s3io/upload/video", node.Endpoint, node.Kind)
	}
	assert.Empty(t, cfg.Nodes.Upload[2].PreviewRoute)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
[server]
base_url = "https://comfy.example.com"

[log]
level = "debug"

[download]
sink = "bucket"

[storage]
account_id = "abc123"
access_key_id = "key"
secret_access_key = "secret"
bucket = "comfy-outputs"

[[nodes.upload]]
kind = "LoadImageS3"
input = "image"
endpoint = "/s3io/upload/image"
field = "image"
allow_batch = true
`)
	t.Setenv("S3IO_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://comfy.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "comfy-outputs", cfg.Storage.Bucket)
	assert.Equal(t, "output/", cfg.Storage.OutputPrefix)
	require.Len(t, cfg.Nodes.Upload, 1)
	assert.Equal(t, "LoadImageS3", cfg.Nodes.Upload[0].Kind)
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load(writeConfig(t, "[server\nbase_url="))
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{BaseURL: "http://localhost:8188", Timeout: 10},
		Log:      LogConfig{Level: "info", Format: "text"},
		Nodes:    NodesConfig{Upload: DefaultUploadNodes(), Download: []string{"SaveImageS3"}},
		Download: DownloadConfig{Sink: SinkDisk, Dir: "/tmp/out"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad scheme", mutate: func(c *Config) { c.Server.BaseURL = "ftp://host" }, wantErr: "http(s)"},
		{name: "no host", mutate: func(c *Config) { c.Server.BaseURL = "http://" }, wantErr: "no host"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "invalid log level"},
		{name: "bad format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "invalid log format"},
		{name: "duplicate node", mutate: func(c *Config) { c.Nodes.Upload = append(c.Nodes.Upload, c.Nodes.Upload[0]) }, wantErr: "configured twice"},
		{name: "relative endpoint", mutate: func(c *Config) { c.Nodes.Upload[0].Endpoint = "upload" }, wantErr: "absolute route"},
		{name: "bad media", mutate: func(c *Config) { c.Nodes.Upload[0].Media = "audio" }, wantErr: "invalid media"},
		{name: "bad sink", mutate: func(c *Config) { c.Download.Sink = "ftp" }, wantErr: "invalid sink"},
		{name: "disk without dir", mutate: func(c *Config) { c.Download.Dir = "" }, wantErr: "dir is required"},
		{name: "bucket without storage", mutate: func(c *Config) { c.Download.Sink = SinkBucket }, wantErr: "endpoint or account_id"},
		{name: "bucket with bad name", mutate: func(c *Config) {
			c.Download.Sink = SinkBucket
			c.Storage = StorageConfig{Endpoint: "http://minio:9000", AccessKeyID: "k", SecretAccessKey: "s", Bucket: "Bad..Name"}
		}, wantErr: "invalid bucket"},
		{name: "none sink", mutate: func(c *Config) { c.Download = DownloadConfig{Sink: SinkNone} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUserData_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.data")

	ud := loadUserDataFrom(path)
	assert.Empty(t, ud.LastPickDir)

	ud.LastPickDir = "/home/me/renders"
	ud.LastNode = "LoadImageS3"
	require.NoError(t, ud.saveTo(path))

	loaded := loadUserDataFrom(path)
	assert.Equal(t, "/home/me/renders", loaded.LastPickDir)
	assert.Equal(t, "LoadImageS3", loaded.LastNode)
	assert.False(t, loaded.CreatedAt.IsZero())

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))
	assert.Empty(t, loadUserDataFrom(path).LastPickDir)
}
