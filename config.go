package ember

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config holds every server option plus the config-file loading
// additions. Field tags drive a single mapstructure decode off of
// whatever the config file unmarshals into (map[string]interface{} for
// TOML/YAML, json.Unmarshal's own map for JSON).
type Config struct {
	BindAddress string `mapstructure:"bind-address"`
	Port        int    `mapstructure:"port"`
	SecurePort  int    `mapstructure:"secure-port"`

	CertificatePath     string `mapstructure:"certificate-path"`
	CertificateKeyPath  string `mapstructure:"certificate-key-path"`
	CertificatePassword string `mapstructure:"certificate-password"`

	IdleTimeout time.Duration `mapstructure:"idle-timeout"`

	MaxSizeHeaders        int64 `mapstructure:"max-size-headers"`
	MaxSizePostContent    int64 `mapstructure:"max-size-post-content"`
	StoreUploadInFileSize int64 `mapstructure:"store-file-upload-in-file-at-size"`

	GzipInMemoryUpToSize    int64 `mapstructure:"gzip-in-memory-up-to-size"`
	GzipAutodetectThreshold int64 `mapstructure:"gzip-autodetect-threshold"`

	TempDir                    string `mapstructure:"temp-dir"`
	OutputExceptionInformation bool   `mapstructure:"output-exception-information"`
	DefaultContentType         string `mapstructure:"default-content-type"`

	// MinifierEnabled and MinifierMIMETypes configure the content
	// pipeline's minify pass.
	MinifierEnabled   bool     `mapstructure:"minifier-enabled"`
	MinifierMIMETypes []string `mapstructure:"minifier-mime-types"`

	// FileCacheMaxMemoryBytes sizes the static-file memory cache.
	FileCacheMaxMemoryBytes int `mapstructure:"file-cache-max-memory-bytes"`
}

// NewConfig returns a Config populated with every documented default.
func NewConfig() *Config {
	return &Config{
		Port:                        80,
		IdleTimeout:                 10 * time.Second,
		MaxSizeHeaders:              256 * 1024,
		MaxSizePostContent:          1 << 30,
		StoreUploadInFileSize:       1 << 20,
		GzipInMemoryUpToSize:        1 << 20,
		GzipAutodetectThreshold:     1 << 20,
		TempDir:                     os.TempDir(),
		OutputExceptionInformation:  false,
		DefaultContentType:          DefaultContentType,
		MinifierEnabled:             false,
		MinifierMIMETypes:           []string{"text/html", "text/css", "application/javascript", "image/svg+xml"},
		FileCacheMaxMemoryBytes:     32 << 20,
	}
}

// LoadConfigFile decodes the config file at path into c, dispatching on
// its extension (.json, .toml, .yaml/.yml). Unrecognized keys are
// ignored; fields absent from the file keep c's current value.
func (c *Config) LoadConfigFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Wrap(err)
	}

	var generic map[string]interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(raw, &generic); err != nil {
			return Wrap(fmt.Errorf("ember: parsing json config: %w", err))
		}
	case ".toml":
		if err := toml.Unmarshal(raw, &generic); err != nil {
			return Wrap(fmt.Errorf("ember: parsing toml config: %w", err))
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return Wrap(fmt.Errorf("ember: parsing yaml config: %w", err))
		}
	default:
		return Wrap(fmt.Errorf("ember: unrecognized config file extension %q", filepath.Ext(path)))
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           c,
	})
	if err != nil {
		return Wrap(err)
	}
	if err := decoder.Decode(generic); err != nil {
		return Wrap(fmt.Errorf("ember: decoding config: %w", err))
	}
	return nil
}
