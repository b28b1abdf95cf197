// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"os"
	"strings"
)

// NestingSeparator separates the keys of nested values in environment
// variable names, e.g. IOFN_LOGGING__LEVEL sets logging.level.
const NestingSeparator = "__"

// Env represents a Source where its underlying values
// are extracted from environment variables.
type Env struct {
	prefix  string
	environ func() []string
}

// FromEnv returns a Source which will apply its config from the
// environment variables, starting with prefix, available to the
// current process. The prefix is stripped and the remaining name
// is lower cased.
func FromEnv(prefix string) Env {
	return Env{
		prefix:  prefix,
		environ: os.Environ,
	}
}

// Apply implements the Source interface.
func (src Env) Apply(store Store) error {
	for _, pair := range src.environ() {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, ok := strings.CutPrefix(k, src.prefix)
		if !ok || name == "" {
			continue
		}

		path := strings.Split(strings.ToLower(name), NestingSeparator)
		err := store.Set(path, v)
		if err != nil {
			return err
		}
	}
	return nil
}
