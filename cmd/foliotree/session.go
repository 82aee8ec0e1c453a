package main

import (
	"github.com/pkg/errors"

	"github.com/foliotree/foliotree/pkg/config"
	"github.com/foliotree/foliotree/pkg/crypto"
	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/logging"
	"github.com/foliotree/foliotree/pkg/ops"
	"github.com/foliotree/foliotree/pkg/repo"
)

// session bundles everything a subcommand needs to operate on this device's
// repo: the open repo handle, the crypto capability and account identity
// derived from this device's key material, and the loaded configuration.
type session struct {
	repo    *repo.Repo
	crypto  crypto.Crypto
	account identity.Owner
	device  identity.ID
	root    identity.ID
	config  *config.Configuration
}

// openSession loads configuration and key material, bootstrapping both (and
// a fresh repo with a root node) on first run, then opens the repo.
func openSession() (*session, error) {
	if err := config.LoadEnvironment(config.EnvironmentPath); err != nil {
		return nil, err
	}
	cfg, err := config.Load(config.ConfigurationPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnvironmentOverrides(); err != nil {
		return nil, err
	}

	keyMaterialPath, err := config.DataPath(true, config.KeyMaterialFileName)
	if err != nil {
		return nil, err
	}
	keyMaterial, err := config.LoadOrCreateKeyMaterial(keyMaterialPath)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load device key material")
	}
	cryptoCapability, account, err := keyMaterial.Crypto()
	if err != nil {
		return nil, errors.Wrap(err, "unable to derive crypto capability from key material")
	}

	configChanged := false
	if cfg.Device.Account == "" {
		cfg.Device.Account = account.String()
		configChanged = true
	}

	deviceID, err := cfg.DeviceID()
	if err != nil {
		deviceID = identity.NewID()
		cfg.Device.ID = deviceID.String()
		configChanged = true
	}

	repoPath, err := cfg.ResolvedRepositoryPath()
	if err != nil {
		return nil, err
	}
	r, err := repo.Open(repoPath, logging.RootLogger)
	if err != nil {
		return nil, err
	}

	var rootID identity.ID
	err = r.Update(func(txn *repo.Txn) error {
		_, _, _, err := txn.GetMeta()
		if err == nil {
			rootID, err = cfg.RootID()
			return err
		}

		root, err := ops.CreateRoot(txn, account, "root")
		if err != nil {
			return err
		}
		rootID = root.ID
		cfg.Device.RootID = rootID.String()
		configChanged = true
		return txn.SetMeta(account, deviceID, identity.HighWaterMark{})
	})
	if err != nil {
		r.Close()
		return nil, err
	}

	if configChanged {
		if err := cfg.Save(config.ConfigurationPath); err != nil {
			r.Close()
			return nil, errors.Wrap(err, "unable to persist configuration")
		}
	}

	return &session{
		repo:    r,
		crypto:  cryptoCapability,
		account: account,
		device:  deviceID,
		root:    rootID,
		config:  cfg,
	}, nil
}

// Close releases the session's repo handle.
func (s *session) Close() error {
	return s.repo.Close()
}
