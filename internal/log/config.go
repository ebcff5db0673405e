// Copyright (C) 2025 foldset.io. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License
// is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express
// or implied. See the License for the specific language governing permissions and limitations under the License.

package log

// FileLogConfig serializes file log related config.
type FileLogConfig struct {
	// Filename is the log file name. Leave empty to log to stdout only.
	Filename string `json:"filename"`
	// MaxSize is the max size of a single log file in MB.
	MaxSize int `json:"max-size"`
	// MaxDays is the max retention of old log files in days.
	MaxDays int `json:"max-days"`
	// MaxBackups is the max number of retained old log files.
	MaxBackups int `json:"max-backups"`
}

// Config serializes log related config.
type Config struct {
	// Level is the minimum enabled logging level: debug, info, warn, error.
	Level string `json:"level"`
	// Format is the log output encoding, "text" or "json".
	Format string `json:"format"`
	// DisableCaller stops annotating logs with the calling function's file
	// name and line number.
	DisableCaller bool `json:"disable-caller"`
	// File holds the file logging options.
	File FileLogConfig `json:"file"`
}
