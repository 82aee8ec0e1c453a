// Package config loads per-device foliotree configuration: the account and
// device identity to run as, the server endpoint to sync against, and the
// default sync policy, grounded on the teacher's pkg/filesystem data
// directory layout and pkg/configuration/global YAML loader.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	// DataDirectoryName is the name of the foliotree data directory inside
	// the user's home directory.
	DataDirectoryName = ".foliotree"

	// ConfigurationName is the name of the YAML configuration file inside the
	// user's home directory.
	ConfigurationName = ".foliotree.yml"

	// EnvironmentName is the name of the optional dotenv overlay file inside
	// the user's home directory.
	EnvironmentName = ".foliotree.env"

	// RepositoryFileName is the name of the bbolt-backed repo database inside
	// the data directory.
	RepositoryFileName = "repo.db"

	// KeyMaterialFileName is the name of the device's private key material
	// file inside the data directory.
	KeyMaterialFileName = "keys.yml"
)

// HomeDirectory is the cached path to the current user's home directory.
var HomeDirectory string

// DataDirectoryPath is the path to the foliotree data directory. It can be
// overridden in init functions or entry points, but this should be done
// before any calls to DataPath.
var DataDirectoryPath string

// ConfigurationPath is the path to the YAML configuration file.
var ConfigurationPath string

// EnvironmentPath is the path to the optional dotenv overlay file.
var EnvironmentPath string

func init() {
	h, err := os.UserHomeDir()
	if err != nil {
		panic(errors.Wrap(err, "unable to query user's home directory"))
	} else if h == "" {
		panic(errors.New("home directory path empty"))
	}
	HomeDirectory = h

	DataDirectoryPath = filepath.Join(HomeDirectory, DataDirectoryName)
	ConfigurationPath = filepath.Join(HomeDirectory, ConfigurationName)
	EnvironmentPath = filepath.Join(HomeDirectory, EnvironmentName)
}

// DataPath computes (and, if requested, creates) a path inside the foliotree
// data directory. pathComponents are joined as a file path, so the data
// directory itself is created, not the final component (which is typically a
// file such as the repo database).
func DataPath(create bool, pathComponents ...string) (string, error) {
	result := filepath.Join(DataDirectoryPath, filepath.Join(pathComponents...))

	if create {
		if err := os.MkdirAll(DataDirectoryPath, 0700); err != nil {
			return "", errors.Wrap(err, "unable to create data directory")
		}
	}

	return result, nil
}
