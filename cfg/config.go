// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cfg

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the root configuration object bound from flags and their
// built-in defaults, mirroring how the teacher's generated cfg.Config is
// assembled by cmd/root.go. viper.Unmarshal matches keys through the
// mapstructure tags, so every dashed key carries one.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`

	Xfs XfsConfig `yaml:"xfs"`
}

// LoggingConfig controls where and how xfsinspect logs diagnostics.
type LoggingConfig struct {
	Severity LogSeverity `yaml:"severity"`

	Format string `yaml:"format"`

	FilePath ResolvedPath `yaml:"file-path" mapstructure:"file-path"`

	LogRotate LogRotateConfig `yaml:"log-rotate" mapstructure:"log-rotate"`
}

// LogRotateConfig mirrors lumberjack.Logger's knobs.
type LogRotateConfig struct {
	MaxFileSizeMB int `yaml:"max-file-size-mb" mapstructure:"max-file-size-mb"`

	BackupFileCount int `yaml:"backup-file-count" mapstructure:"backup-file-count"`

	Compress bool `yaml:"compress"`
}

// XfsConfig controls how a volume is opened.
type XfsConfig struct {
	// Offset is the byte offset of the XFS filesystem within the backing
	// image, for images embedded in a larger container (partition table,
	// disk image with multiple filesystems).
	Offset int64 `yaml:"offset"`

	// CRCPolicy decides whether a v5 CRC mismatch is fatal or a warning.
	CRCPolicy CRCPolicy `yaml:"crc-policy" mapstructure:"crc-policy"`

	// FollowSymlinks enables symlink resolution in path lookups, capped at
	// a fixed hop limit to guard against cycles.
	FollowSymlinks bool `yaml:"follow-symlinks" mapstructure:"follow-symlinks"`
}

// BindFlags registers the global flags on flagSet and binds each one to its
// viper config key, following the same BindPFlag-per-flag pattern as the
// teacher's generated cfg.BindFlags.
func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringP("log-severity", "", string(InfoLogSeverity), "Logging severity: TRACE, DEBUG, INFO, WARNING, ERROR, or OFF.")
	if err = viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity")); err != nil {
		return err
	}

	flagSet.StringP("log-format", "", "text", "Log output format: text or json.")
	if err = viper.BindPFlag("logging.format", flagSet.Lookup("log-format")); err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "Path to a log file; empty means log to stderr.")
	if err = viper.BindPFlag("logging.file-path", flagSet.Lookup("log-file")); err != nil {
		return err
	}

	flagSet.Int64P("offset", "", 0, "Byte offset of the XFS filesystem within the image.")
	if err = viper.BindPFlag("xfs.offset", flagSet.Lookup("offset")); err != nil {
		return err
	}

	flagSet.StringP("crc-policy", "", string(CRCFatal), "CRC verification policy for v5 structures: fatal or warn.")
	if err = viper.BindPFlag("xfs.crc-policy", flagSet.Lookup("crc-policy")); err != nil {
		return err
	}

	flagSet.BoolP("follow-symlinks", "", false, "Follow symlinks when resolving paths.")
	if err = viper.BindPFlag("xfs.follow-symlinks", flagSet.Lookup("follow-symlinks")); err != nil {
		return err
	}

	return nil
}
