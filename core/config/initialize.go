package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Initialize writes the default configuration into dir, creating it if
// needed. An existing configuration is never overwritten.
func Initialize(fsys afero.Fs, dir string, logger *zap.Logger) (string, error) {
	if err := fsys.MkdirAll(dir, 0700); err != nil {
		return "", err
	}

	path := filepath.Join(dir, ConfigurationName)
	switch _, err := fsys.Stat(path); {
	case err == nil:
		return "", fmt.Errorf("%s: %w", path, fs.ErrExist)
	case !errors.Is(err, fs.ErrNotExist):
		return "", err
	}

	if err := afero.WriteFile(fsys, path, defaultConfigData, 0600); err != nil {
		return "", err
	}
	logger.Info("wrote default configuration", zap.String("path", path))
	return path, nil
}
