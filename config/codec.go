// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/z5labs/iofn/resource"

	"gopkg.in/yaml.v3"
)

// readAll reads r to the end and closes it, if it's an [io.Closer].
func readAll(r io.Reader) ([]byte, error) {
	return resource.Use(r, closeReader, io.ReadAll)
}

func closeReader(r io.Reader) error {
	c, ok := r.(io.Closer)
	if !ok {
		return nil
	}
	return c.Close()
}

type unmarshalFunc func([]byte, any) error

func decode(r io.Reader, unmarshal unmarshalFunc, invalid func(error) error) Source {
	return SourceFunc(func(store Store) error {
		b, err := readAll(r)
		if err != nil {
			return err
		}

		m := make(map[string]any)
		err = unmarshal(b, &m)
		if err != nil {
			return invalid(err)
		}
		return Map(m).Apply(store)
	})
}

// InvalidYamlError occurs if the underlying io.Reader contains invalid YAML.
type InvalidYamlError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e InvalidYamlError) Error() string {
	return fmt.Sprintf("invalid yaml: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidYamlError) Unwrap() error {
	return e.Cause
}

// FromYaml returns a source which will apply its config
// from YAML values parsed from the given io.Reader. The
// reader is closed after reading if it's an io.Closer.
func FromYaml(r io.Reader) Source {
	return decode(r, yaml.Unmarshal, func(err error) error {
		return InvalidYamlError{Cause: err}
	})
}

// InvalidJsonError occurs if the underlying io.Reader contains invalid JSON.
type InvalidJsonError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e InvalidJsonError) Error() string {
	return fmt.Sprintf("invalid json: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidJsonError) Unwrap() error {
	return e.Cause
}

// FromJson returns a source which will apply its config
// from JSON values parsed from the given io.Reader. The
// reader is closed after reading if it's an io.Closer.
func FromJson(r io.Reader) Source {
	return decode(r, json.Unmarshal, func(err error) error {
		return InvalidJsonError{Cause: err}
	})
}
