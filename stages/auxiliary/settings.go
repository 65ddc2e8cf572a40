package auxiliary

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"plumcave/tui/consts"
	"plumcave/tui/logger"

	"github.com/BurntSushi/toml"
	"github.com/docker/go-units"
)

const ENV_CONFIG_PATH = "PLUMCAVE_CONFIG"

type Settings struct {
	Path string `toml:"-"`

	Log      LogSettings      `toml:"log"`
	Crypto   CryptoSettings   `toml:"crypto"`
	Transfer TransferSettings `toml:"transfer"`
	Entropy  EntropySettings  `toml:"entropy"`
	Storage  StorageSettings  `toml:"storage"`
}

type LogSettings struct {
	Level   string        `toml:"level"`
	Dir     string        `toml:"dir"`
	MaxSize string        `toml:"max_size"` // human size, e.g. "15MiB"
	MaxAge  time.Duration `toml:"max_age"`
}

type CryptoSettings struct {
	KDFMemoryKiB uint32 `toml:"kdf_memory_kib"`
	KDFThreads   uint8  `toml:"kdf_threads"`
}

type TransferSettings struct {
	ChunkSize   string        `toml:"chunk_size"`
	Parallelism int           `toml:"parallelism"`
	Timeout     time.Duration `toml:"timeout"`
}

type EntropySettings struct {
	Tick time.Duration `toml:"tick"`
}

type StorageSettings struct {
	Backend string        `toml:"backend"` // memory, s3, azure or rest
	S3      S3Settings    `toml:"s3"`
	Azure   AzureSettings `toml:"azure"`
	Rest    RestSettings  `toml:"rest"`
}

type S3Settings struct {
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	Prefix          string `toml:"prefix"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	PathStyle       bool   `toml:"path_style"`
}

type AzureSettings struct {
	ServiceURL string `toml:"service_url"`
	Container  string `toml:"container"`
}

type RestSettings struct {
	BaseURL  string `toml:"base_url"`
	ClientID string `toml:"client_id"`
	Secret   string `toml:"secret"`
	RetryMax int    `toml:"retry_max"`
}

var backends = []string{"memory", "s3", "azure", "rest"}

const redactedMask = "********"

func DefaultSettings() *Settings {
	return &Settings{
		Log: LogSettings{
			Level:   string(logger.InfoLevel),
			MaxSize: units.BytesSize(float64(consts.LOGS_MAX_FILE_SIZE)),
			MaxAge:  time.Duration(consts.LOGS_MAX_TIME) * time.Second,
		},
		Crypto: CryptoSettings{
			KDFMemoryKiB: consts.KDF_MEMORY_KIB,
			KDFThreads:   consts.KDF_THREADS,
		},
		Transfer: TransferSettings{
			ChunkSize:   units.BytesSize(consts.DEFAULT_CHUNK_SIZE),
			Parallelism: consts.DEFAULT_PARALLELISM,
			Timeout:     30 * time.Second,
		},
		Entropy: EntropySettings{
			Tick: consts.ENTROPY_TICK,
		},
		Storage: StorageSettings{
			Backend: "memory",
			S3: S3Settings{
				Region: "us-east-1",
			},
		},
	}
}

// NewSettings loads the config file at DefaultPath.
func NewSettings() (*Settings, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// DefaultPath is $PLUMCAVE_CONFIG, or config.toml under the user config dir.
func DefaultPath() (string, error) {
	if p := os.Getenv(ENV_CONFIG_PATH); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to find config dir: %w", err)
	}
	return filepath.Join(dir, consts.APP_NAME, "config.toml"), nil
}

// Load overlays the file at path on the defaults. A missing file is not an
// error.
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()
	settings.Path = path

	if _, err := toml.DecodeFile(path, settings); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return settings, nil
}

func (s *Settings) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return err
	}

	file, err := os.OpenFile(s.Path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	return s.Encode(file)
}

// Redacted is a copy safe to print, storage secrets masked.
func (s *Settings) Redacted() *Settings {
	view := *s
	if view.Storage.S3.SecretAccessKey != "" {
		view.Storage.S3.SecretAccessKey = redactedMask
	}
	if view.Storage.Rest.Secret != "" {
		view.Storage.Rest.Secret = redactedMask
	}
	return &view
}

func (s *Settings) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(s)
}

func (s *Settings) Validate() error {
	if _, err := s.ChunkSizeBytes(); err != nil {
		return err
	}
	if _, err := s.LogMaxSizeBytes(); err != nil {
		return err
	}
	if s.Transfer.Parallelism < 1 {
		return fmt.Errorf("transfer.parallelism must be at least 1, got %d", s.Transfer.Parallelism)
	}
	if s.Crypto.KDFMemoryKiB == 0 || s.Crypto.KDFThreads == 0 {
		return errors.New("crypto.kdf_memory_kib and crypto.kdf_threads must be positive")
	}
	if s.Entropy.Tick <= 0 {
		return errors.New("entropy.tick must be positive")
	}

	backend := strings.ToLower(s.Storage.Backend)
	for _, b := range backends {
		if b == backend {
			s.Storage.Backend = backend
			return nil
		}
	}
	return fmt.Errorf("unknown storage.backend %q, want one of %s", s.Storage.Backend, strings.Join(backends, ", "))
}

func (s *Settings) ChunkSizeBytes() (int, error) {
	n, err := units.RAMInBytes(s.Transfer.ChunkSize)
	if err != nil {
		return 0, fmt.Errorf("transfer.chunk_size: %w", err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("transfer.chunk_size must be positive, got %s", s.Transfer.ChunkSize)
	}
	return int(n), nil
}

func (s *Settings) LogMaxSizeBytes() (int64, error) {
	n, err := units.RAMInBytes(s.Log.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("log.max_size: %w", err)
	}
	return n, nil
}

// LogPath is where the TUI file logger writes. It defaults to the directory
// holding the config file.
func (s *Settings) LogPath() string {
	dir := s.Log.Dir
	if dir == "" {
		dir = filepath.Dir(s.Path)
	}
	return filepath.Join(dir, consts.LOGS_FILE_NAME)
}
