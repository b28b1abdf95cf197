// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/z5labs/iofn/bind/csvbind"
	"github.com/z5labs/iofn/httpio"
	"github.com/z5labs/iofn/internal/logging"
	"github.com/z5labs/iofn/internal/try"
	"github.com/z5labs/iofn/procio"
	"github.com/z5labs/iofn/procio/winreg"
	"github.com/z5labs/iofn/procio/winscript"
	"github.com/z5labs/iofn/resource"
	"github.com/z5labs/iofn/seq"
	"github.com/z5labs/iofn/textio"

	"github.com/spf13/cobra"
)

func (a *app) fileOptions(charset string) []textio.Option {
	if charset == "" {
		charset = a.cfg.File.Charset
	}

	opts := []textio.Option{
		textio.Charset(charset),
		textio.LogHandler(a.logHandler),
	}
	if a.cfg.File.Lock {
		opts = append(opts, textio.Lock())
	}
	if a.cfg.File.LockRetryDelay > 0 {
		opts = append(opts, textio.LockRetryDelay(a.cfg.File.LockRetryDelay))
	}
	return opts
}

func (a *app) processOptions() []procio.Option {
	return []procio.Option{
		procio.Charset(a.cfg.Process.Charset),
		procio.LogHandler(a.logHandler),
	}
}

func (a *app) httpClientOptions() []httpio.Option {
	opts := []httpio.Option{
		httpio.LogHandler(a.logHandler),
	}
	if a.cfg.HTTP.Timeout > 0 {
		opts = append(opts, httpio.Timeout(a.cfg.HTTP.Timeout))
	}
	if a.cfg.HTTP.MaxRetries > 0 {
		opts = append(opts, httpio.MaxRetries(a.cfg.HTTP.MaxRetries))
	}
	if a.cfg.HTTP.TripAfter > 0 {
		opts = append(opts, httpio.TripAfter(a.cfg.HTTP.TripAfter))
	}
	return opts
}

// printLines writes every line of it to w and closes it.
func printLines(w io.Writer, it seq.ClosableIterator[string], numbered bool) error {
	_, err := resource.Use(
		it,
		resource.Closer[seq.ClosableIterator[string]](),
		func(it seq.ClosableIterator[string]) (int, error) {
			n := 0
			err := seq.ForEachRemaining[string](it, func(line string) error {
				n++
				var err error
				if numbered {
					_, err = fmt.Fprintf(w, "%6d\t%s\n", n, line)
				} else {
					_, err = fmt.Fprintln(w, line)
				}
				return err
			})
			return n, err
		},
	)
	return err
}

func catCommand(a *app) *cobra.Command {
	var charset string

	cmd := &cobra.Command{
		Use:   "cat FILE",
		Short: "Print a file decoded from its charset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer try.Recover(&err)

			s, err := textio.ParseFile(cmd.Context(), args[0], textio.Text(), a.fileOptions(charset)...)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), s)
			return err
		},
	}
	cmd.Flags().StringVar(&charset, "charset", "", "charset of the file")
	return cmd
}

func linesCommand(a *app) *cobra.Command {
	var (
		charset  string
		numbered bool
	)

	cmd := &cobra.Command{
		Use:   "lines FILE",
		Short: "Print the lines of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer try.Recover(&err)

			it, err := textio.Lines(cmd.Context(), args[0], a.fileOptions(charset)...)
			if err != nil {
				return err
			}
			return printLines(cmd.OutOrStdout(), it, numbered)
		},
	}
	cmd.Flags().StringVar(&charset, "charset", "", "charset of the file")
	cmd.Flags().BoolVarP(&numbered, "number", "n", false, "number the lines")
	return cmd
}

func csvCommand(a *app) *cobra.Command {
	var (
		charset string
		comma   string
	)

	cmd := &cobra.Command{
		Use:   "csv FILE",
		Short: "Print the records of a CSV file as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer try.Recover(&err)

			var opts []csvbind.Option
			if comma != "" {
				opts = append(opts, csvbind.Comma([]rune(comma)[0]))
			}

			it, err := textio.Stream(cmd.Context(), args[0], func(r io.Reader) (seq.Iterator[csvbind.Record], error) {
				return csvbind.Records(r, opts...), nil
			}, a.fileOptions(charset)...)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			_, err = resource.Use(
				it,
				resource.Closer[seq.ClosableIterator[csvbind.Record]](),
				func(it seq.ClosableIterator[csvbind.Record]) (struct{}, error) {
					return struct{}{}, seq.ForEachRemaining[csvbind.Record](it, func(rec csvbind.Record) error {
						return enc.Encode(rec)
					})
				},
			)
			return err
		},
	}
	cmd.Flags().StringVar(&charset, "charset", "", "charset of the file")
	cmd.Flags().StringVar(&comma, "comma", "", "field delimiter")
	return cmd
}

func execCommand(a *app) *cobra.Command {
	var (
		dir        string
		powershell bool
	)

	cmd := &cobra.Command{
		Use:   "exec [flags] -- COMMAND [ARGS...]",
		Short: "Run a process and print its output lines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer try.Recover(&err)

			if powershell {
				opts := []winscript.Option{winscript.Dir(dir)}
				if a.cfg.Process.PowerShell != "" {
					opts = append(opts, winscript.Executable(a.cfg.Process.PowerShell))
				}

				lines, err := winscript.RunPowerShell(cmd.Context(), args[0], opts, a.processOptions()...)
				if err != nil {
					return err
				}
				for _, line := range lines {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), line)
					if err != nil {
						return err
					}
				}
				return nil
			}

			c := procio.Command{
				Name:  args[0],
				Args:  args[1:],
				Dir:   dir,
				Stdin: cmd.InOrStdin(),
			}
			it, err := procio.Lines(cmd.Context(), c, a.processOptions()...)
			if err != nil {
				return err
			}
			return printLines(cmd.OutOrStdout(), it, false)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "working directory of the process")
	cmd.Flags().BoolVar(&powershell, "powershell", false, "run the first argument as a PowerShell script")
	return cmd
}

func fetchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch URL",
		Short: "Print the body of an HTTP response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer try.Recover(&err)

			client := httpio.NewClient(a.httpClientOptions()...)
			it, err := httpio.Lines(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			return printLines(cmd.OutOrStdout(), it, false)
		},
	}
	return cmd
}

func regCommand(a *app) *cobra.Command {
	var (
		value     string
		recursive bool
	)

	cmd := &cobra.Command{
		Use:   "reg KEY",
		Short: "Query the Windows registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer try.Recover(&err)

			opts := []winreg.Option{winreg.ProcessOptions(a.processOptions()...)}
			if cmd.Flags().Changed("value") {
				v, err := winreg.QueryValue(cmd.Context(), args[0], value, opts...)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), v.Data)
				return err
			}

			if recursive {
				opts = append(opts, winreg.Recursive())
			}
			keys, err := winreg.Query(cmd.Context(), args[0], opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, k := range keys {
				fmt.Fprintln(out, k.Path)
				for _, v := range k.Values {
					fmt.Fprintf(out, "  %s\t%s\t%s\n", v.Name, v.Type, v.Data)
				}
			}

			a.log.DebugContext(cmd.Context(), "queried registry", logging.Int("keys", len(keys)))
			return nil
		},
	}
	cmd.Flags().StringVar(&value, "value", "", "only print the named value, empty for the default value")
	cmd.Flags().BoolVar(&recursive, "recursive", false, "query all subkeys")
	return cmd
}
