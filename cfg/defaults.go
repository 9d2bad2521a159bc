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

// DefaultLoggingConfig returns the default logging configuration (INFO
// severity, text format, default rotation policy), matching the teacher's
// GetDefaultLoggingConfig role.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Severity:  InfoLogSeverity,
		Format:    "text",
		LogRotate: DefaultLogRotateConfig(),
	}
}

// DefaultLogRotateConfig returns the default rotation policy for the log
// file sink.
func DefaultLogRotateConfig() LogRotateConfig {
	return LogRotateConfig{
		MaxFileSizeMB:   512,
		BackupFileCount: 10,
		Compress:        true,
	}
}

// DefaultXfsConfig returns the default volume-open options.
func DefaultXfsConfig() XfsConfig {
	return XfsConfig{
		Offset:         0,
		CRCPolicy:      CRCFatal,
		FollowSymlinks: false,
	}
}
