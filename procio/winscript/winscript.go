// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package winscript builds [procio.Command]s which run PowerShell and
// Windows Script Host scripts.
package winscript

import (
	"context"
	"encoding/base64"

	"github.com/z5labs/iofn/procio"
	"github.com/z5labs/iofn/resource"
	"github.com/z5labs/iofn/seq"

	"golang.org/x/text/encoding/unicode"
)

// Default executables.
const (
	PowerShellExe = "powershell"
	CScriptExe    = "cscript"
)

var powerShellFlags = []string{"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass"}

type options struct {
	exe string
	dir string
	env []string
}

// Option configures a script [procio.Command].
type Option func(*options)

// Executable replaces the default executable, e.g. with "pwsh".
func Executable(name string) Option {
	return func(o *options) {
		o.exe = name
	}
}

// Dir sets the working directory of the script.
func Dir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// Env adds environment variables to the script process.
func Env(env ...string) Option {
	return func(o *options) {
		o.env = append(o.env, env...)
	}
}

func command(exe string, args []string, opts []Option) procio.Command {
	o := &options{exe: exe}
	for _, opt := range opts {
		opt(o)
	}
	return procio.Command{
		Name: o.exe,
		Args: args,
		Dir:  o.dir,
		Env:  o.env,
	}
}

// EncodeCommand encodes a PowerShell script for the -EncodedCommand flag,
// which expects base64 encoded UTF-16LE.
func EncodeCommand(script string) (string, error) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	b, err := enc.Bytes([]byte(script))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// PowerShell returns a [procio.Command] which runs script. The script is
// passed encoded so it needs no quoting.
func PowerShell(script string, opts ...Option) (procio.Command, error) {
	encoded, err := EncodeCommand(script)
	if err != nil {
		return procio.Command{}, err
	}

	args := append(append([]string{}, powerShellFlags...), "-EncodedCommand", encoded)
	return command(PowerShellExe, args, opts), nil
}

// PowerShellFile returns a [procio.Command] which runs the script at path.
func PowerShellFile(path string, args []string, opts ...Option) procio.Command {
	cmdArgs := append(append([]string{}, powerShellFlags...), "-File", path)
	return command(PowerShellExe, append(cmdArgs, args...), opts)
}

// CScript returns a [procio.Command] which runs a VBScript or JScript file
// at path with the console based Windows Script Host.
func CScript(path string, args []string, opts ...Option) procio.Command {
	cmdArgs := append([]string{"//NoLogo", path}, args...)
	return command(CScriptExe, cmdArgs, opts)
}

// RunPowerShell runs script and returns its output lines.
func RunPowerShell(ctx context.Context, script string, opts []Option, procOpts ...procio.Option) ([]string, error) {
	c, err := PowerShell(script, opts...)
	if err != nil {
		return nil, err
	}

	lines, err := procio.Lines(ctx, c, procOpts...)
	if err != nil {
		return nil, err
	}
	return collectAndClose(lines)
}

func collectAndClose(it seq.ClosableIterator[string]) ([]string, error) {
	return resource.Use(
		it,
		resource.Closer[seq.ClosableIterator[string]](),
		func(it seq.ClosableIterator[string]) ([]string, error) {
			return seq.Collect[string](it)
		},
	)
}
