package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/foliotree/foliotree/pkg/encoding"
	"github.com/foliotree/foliotree/pkg/identity"
)

// defaultSyncInterval is the default value of Sync.Interval.
const defaultSyncInterval = 30 * time.Second

// defaultMaxStaleVersionRetries is the default value of
// Sync.MaxStaleVersionRetries.
const defaultMaxStaleVersionRetries = 3

// Configuration is the human-readable, YAML-based device configuration
// loaded from ConfigurationPath, following the teacher's
// pkg/configuration/global layout (nested structs grouping related
// settings, loaded via encoding.LoadAndUnmarshalYAML).
type Configuration struct {
	// Device identifies the account and device this process runs as.
	Device struct {
		// Account is the Base62-encoded identity.Owner public key for the
		// account this device belongs to.
		Account string `yaml:"account"`
		// ID is the Base62-encoded identity.ID for this device's repo.
		ID string `yaml:"id"`
		// RootID is the Base62-encoded identity.ID of this account's root
		// node, created once on first bootstrap.
		RootID string `yaml:"rootId"`
	} `yaml:"device"`

	// Server describes the remote endpoint this device syncs against.
	Server struct {
		// Endpoint is the server's address, in whatever form the configured
		// remote.Client implementation expects (host:port, URL, etc.).
		Endpoint string `yaml:"endpoint"`
	} `yaml:"server"`

	// Sync holds the default synchronization policy. Its fields are loaded,
	// overlaid from the environment and saved, but neither sync.Coordinator
	// nor the CLI reads them: the sync command runs its cycles back to back,
	// and the coordinator uses its own built-in retry bound of 3.
	Sync struct {
		// Interval is the configured delay between sync cycles.
		Interval time.Duration `yaml:"interval"`
		// MaxStaleVersionRetries is the configured bound on a sync cycle's
		// stale-version restarts (§4.F step 5).
		MaxStaleVersionRetries int `yaml:"maxStaleVersionRetries"`
	} `yaml:"sync"`

	// RepositoryPath is the path to this device's local repo database. If
	// empty, it defaults to a path inside the foliotree data directory.
	RepositoryPath string `yaml:"repositoryPath"`
}

// Default returns a Configuration populated with default values; it has no
// account, device, or server identity configured.
func Default() *Configuration {
	c := &Configuration{}
	c.Sync.Interval = defaultSyncInterval
	c.Sync.MaxStaleVersionRetries = defaultMaxStaleVersionRetries
	return c
}

// Load reads and decodes the YAML configuration file at path, starting from
// Default() so that fields absent from the file keep their defaults. A
// missing file is not an error: Load returns the defaults unchanged, matching
// the teacher's LoadConfiguration pass-through of os.IsNotExist.
func Load(path string) (*Configuration, error) {
	result := Default()
	if err := encoding.LoadAndUnmarshalYAML(path, result); err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, err
	}
	return result, nil
}

// Save marshals the configuration as YAML and writes it atomically to path.
func (c *Configuration) Save(path string) error {
	return encoding.MarshalAndSaveYAML(path, c)
}

// LoadEnvironment loads a dotenv file at path into the process environment,
// if present, using godotenv so that ApplyEnvironmentOverrides can later read
// it via os.Getenv. A missing file is not an error.
func LoadEnvironment(path string) error {
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "unable to load environment overlay")
	}
	return nil
}

// environment variable names recognized by ApplyEnvironmentOverrides.
const (
	envAccount                = "FOLIOTREE_ACCOUNT"
	envDeviceID               = "FOLIOTREE_DEVICE_ID"
	envServerEndpoint         = "FOLIOTREE_SERVER_ENDPOINT"
	envRepositoryPath         = "FOLIOTREE_REPOSITORY_PATH"
	envSyncInterval           = "FOLIOTREE_SYNC_INTERVAL"
	envMaxStaleVersionRetries = "FOLIOTREE_SYNC_MAX_STALE_VERSION_RETRIES"
)

// ApplyEnvironmentOverrides overrides configuration fields from process
// environment variables, letting deployment secrets (account, device id,
// server endpoint) live outside the checked-in YAML file. Call it after Load
// and, if using a dotenv overlay, after LoadEnvironment.
func (c *Configuration) ApplyEnvironmentOverrides() error {
	if v := os.Getenv(envAccount); v != "" {
		c.Device.Account = v
	}
	if v := os.Getenv(envDeviceID); v != "" {
		c.Device.ID = v
	}
	if v := os.Getenv(envServerEndpoint); v != "" {
		c.Server.Endpoint = v
	}
	if v := os.Getenv(envRepositoryPath); v != "" {
		c.RepositoryPath = v
	}
	if v := os.Getenv(envSyncInterval); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", envSyncInterval)
		}
		c.Sync.Interval = interval
	}
	if v := os.Getenv(envMaxStaleVersionRetries); v != "" {
		retries, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", envMaxStaleVersionRetries)
		}
		c.Sync.MaxStaleVersionRetries = retries
	}
	return nil
}

// Account parses the configured account into an identity.Owner.
func (c *Configuration) Account() (identity.Owner, error) {
	if c.Device.Account == "" {
		return identity.Owner{}, errors.New("no account configured")
	}
	return identity.ParseOwner(c.Device.Account)
}

// DeviceID parses the configured device id into an identity.ID.
func (c *Configuration) DeviceID() (identity.ID, error) {
	if c.Device.ID == "" {
		return identity.ID{}, errors.New("no device id configured")
	}
	return identity.ParseID(c.Device.ID)
}

// RootID parses the configured root id into an identity.ID.
func (c *Configuration) RootID() (identity.ID, error) {
	if c.Device.RootID == "" {
		return identity.ID{}, errors.New("no root id configured")
	}
	return identity.ParseID(c.Device.RootID)
}

// ResolvedRepositoryPath returns RepositoryPath if set, otherwise the default
// repo database path inside the foliotree data directory.
func (c *Configuration) ResolvedRepositoryPath() (string, error) {
	if c.RepositoryPath != "" {
		return c.RepositoryPath, nil
	}
	return DataPath(true, RepositoryFileName)
}
