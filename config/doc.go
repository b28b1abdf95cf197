// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config reads layered configuration into Go structs.
//
// Configuration is applied from one or more [Source]s into a [Store]. Later
// sources override values set by earlier ones, key by key, so a YAML file
// can provide defaults which environment variables then override:
//
//	m, err := config.Read(
//	    config.FromYaml(config.NewFileReader(os.DirFS("."), "iofn.yaml")),
//	    config.FromEnv("IOFN_"),
//	)
//	if err != nil {
//	    return err
//	}
//
//	var cfg Config
//	err = m.Unmarshal(&cfg)
//
// Struct fields are matched to keys by their "config" tag.
package config
