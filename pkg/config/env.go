// Copyright 2025 OneVice Contributors
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

package config

import (
	"os"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	envWithDefault = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*):-(.*?)\}`)
	envBraced      = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	envSimple      = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
)

// LoadDotEnv loads a .env file into the process environment if present.
// Missing files are not an error: in production the environment is set
// directly by the deployment platform.
func LoadDotEnv(path string) {
	if path == "" {
		path = ".env"
	}
	_ = godotenv.Load(path)
}

// expandEnvVars resolves ${VAR}, ${VAR:-default}, and $VAR references
// against the process environment. Order matters: the default-bearing
// form is resolved first so a bare ${VAR} pass doesn't swallow the
// ":-default" suffix as part of the variable name.
func expandEnvVars(s string) string {
	s = envWithDefault.ReplaceAllStringFunc(s, func(m string) string {
		parts := envWithDefault.FindStringSubmatch(m)
		if v, ok := os.LookupEnv(parts[1]); ok && v != "" {
			return v
		}
		return parts[2]
	})
	s = envBraced.ReplaceAllStringFunc(s, func(m string) string {
		parts := envBraced.FindStringSubmatch(m)
		return os.Getenv(parts[1])
	})
	s = envSimple.ReplaceAllStringFunc(s, func(m string) string {
		parts := envSimple.FindStringSubmatch(m)
		return os.Getenv(parts[1])
	})
	return s
}

// parseValue coerces an expanded string into bool/int/float when it looks
// like one, otherwise returns it unchanged. Used when overlaying raw
// environment values onto a koanf map.
func parseValue(value string) interface{} {
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}
