// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package textio

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/z5labs/iofn"
	"github.com/z5labs/iofn/resource"
	"github.com/z5labs/iofn/seq"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseString(t *testing.T) {
	t.Run("will return the parsed value", func(t *testing.T) {
		s, err := ParseString("hello", Text())
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "hello", s) {
			return
		}
	})
}

func TestFormatString(t *testing.T) {
	t.Run("will return the formatter error", func(t *testing.T) {
		t.Run("if the formatter fails", func(t *testing.T) {
			formatErr := errors.New("failed to format")
			f := FormatterFunc[int](func(io.Writer, int) error {
				return formatErr
			})

			_, err := FormatString(1, f)
			if !assert.ErrorIs(t, err, formatErr) {
				return
			}
		})
	})
}

func TestScanLines(t *testing.T) {
	testCases := []struct {
		Name  string
		Input string
		Lines []string
	}{
		{
			Name:  "empty",
			Input: "",
			Lines: nil,
		},
		{
			Name:  "no trailing newline",
			Input: "a\nb",
			Lines: []string{"a", "b"},
		},
		{
			Name:  "crlf",
			Input: "a\r\nb\r\n",
			Lines: []string{"a", "b"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			lines, err := seq.Collect(ScanLines(strings.NewReader(testCase.Input)))
			require.NoError(t, err)
			require.Equal(t, testCase.Lines, lines)
		})
	}
}

func TestLookupCharset(t *testing.T) {
	t.Run("will return a nil encoding", func(t *testing.T) {
		t.Run("if the name is empty", func(t *testing.T) {
			enc, err := LookupCharset("")
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Nil(t, enc) {
				return
			}
		})
	})

	t.Run("will return a UnknownCharsetError", func(t *testing.T) {
		t.Run("if the charset isn't known", func(t *testing.T) {
			_, err := LookupCharset("klingon")

			var ucerr UnknownCharsetError
			if !assert.ErrorAs(t, err, &ucerr) {
				return
			}
			if !assert.Equal(t, "klingon", ucerr.Name) {
				return
			}
		})
	})
}

func TestParseFile(t *testing.T) {
	t.Run("will return the file content", func(t *testing.T) {
		t.Run("if the file exists", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "hello.txt")
			err := os.WriteFile(path, []byte("hello world"), 0o644)
			if !assert.Nil(t, err) {
				return
			}

			s, err := ParseFile(context.Background(), path, Text())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "hello world", s) {
				return
			}
		})

		t.Run("if the file is decoded from its charset", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "latin.txt")
			err := os.WriteFile(path, []byte{'c', 'a', 'f', 0xe9}, 0o644)
			if !assert.Nil(t, err) {
				return
			}

			s, err := ParseFile(context.Background(), path, Text(), Charset("windows-1252"))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "café", s) {
				return
			}
		})

		t.Run("if the file is locked", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "locked.txt")
			err := os.WriteFile(path, []byte("locked"), 0o644)
			if !assert.Nil(t, err) {
				return
			}

			s, err := ParseFile(context.Background(), path, Text(), Lock())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "locked", s) {
				return
			}
			if !assert.FileExists(t, path+LockSuffix) {
				return
			}
		})
	})

	t.Run("will return an IOError", func(t *testing.T) {
		t.Run("if the file does not exist", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.txt")

			_, err := ParseFile(context.Background(), path, Text(), Lock())
			if !assert.True(t, iofn.IsIOError(err)) {
				return
			}
			if !assert.ErrorIs(t, err, fs.ErrNotExist) {
				return
			}
			if !assert.NoFileExists(t, path+LockSuffix) {
				return
			}

			ioerr := iofn.AsIOError(err)
			if !assert.NotNil(t, ioerr) {
				return
			}
			if !assert.Equal(t, path, ioerr.Path) {
				return
			}
			if !assert.Equal(t, "parse", ioerr.Op) {
				return
			}
		})

		t.Run("if the parser fails", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "hello.txt")
			err := os.WriteFile(path, []byte("hello"), 0o644)
			if !assert.Nil(t, err) {
				return
			}

			parseErr := errors.New("failed to parse")
			p := ParserFunc[int](func(io.Reader) (int, error) {
				return 0, parseErr
			})

			_, err = ParseFile(context.Background(), path, p)
			if !assert.True(t, iofn.IsIOError(err)) {
				return
			}
			if !assert.ErrorIs(t, err, parseErr) {
				return
			}
		})
	})

	t.Run("will return a UnknownCharsetError", func(t *testing.T) {
		t.Run("if the charset isn't known", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "hello.txt")

			_, err := ParseFile(context.Background(), path, Text(), Charset("klingon"))

			var ucerr UnknownCharsetError
			if !assert.ErrorAs(t, err, &ucerr) {
				return
			}
		})
	})
}

func TestFormatFile(t *testing.T) {
	t.Run("will write the formatted value", func(t *testing.T) {
		t.Run("if the file does not exist yet", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.txt")

			err := FormatFile(context.Background(), path, TextFormatter(), "hello", Lock())
			if !assert.Nil(t, err) {
				return
			}

			b, err := os.ReadFile(path)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "hello", string(b)) {
				return
			}
		})

		t.Run("if the file already exists", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.txt")
			err := os.WriteFile(path, []byte("a much longer previous content"), 0o644)
			if !assert.Nil(t, err) {
				return
			}

			err = FormatFile(context.Background(), path, TextFormatter(), "short")
			if !assert.Nil(t, err) {
				return
			}

			b, err := os.ReadFile(path)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "short", string(b)) {
				return
			}
		})

		t.Run("if the file is appended to", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.txt")
			err := os.WriteFile(path, []byte("a\n"), 0o644)
			if !assert.Nil(t, err) {
				return
			}

			err = FormatFile(context.Background(), path, TextFormatter(), "b\n", Append())
			if !assert.Nil(t, err) {
				return
			}

			b, err := os.ReadFile(path)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "a\nb\n", string(b)) {
				return
			}
		})

		t.Run("if the value is encoded to a charset", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "latin.txt")

			err := FormatFile(context.Background(), path, TextFormatter(), "café", Charset("windows-1252"))
			if !assert.Nil(t, err) {
				return
			}

			b, err := os.ReadFile(path)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, []byte{'c', 'a', 'f', 0xe9}, b) {
				return
			}

			s, err := ParseFile(context.Background(), path, Text(), Charset("windows-1252"))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "café", s) {
				return
			}
		})
	})

	t.Run("will return an IOError", func(t *testing.T) {
		t.Run("if the directory does not exist", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing", "out.txt")

			err := FormatFile(context.Background(), path, TextFormatter(), "hello")
			if !assert.True(t, iofn.IsIOError(err)) {
				return
			}
			if !assert.ErrorIs(t, err, fs.ErrNotExist) {
				return
			}
		})

		t.Run("if the formatter fails", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.txt")

			formatErr := errors.New("failed to format")
			f := FormatterFunc[string](func(io.Writer, string) error {
				return formatErr
			})

			err := FormatFile(context.Background(), path, f, "hello")
			if !assert.ErrorIs(t, err, formatErr) {
				return
			}
		})
	})
}

func TestLines(t *testing.T) {
	t.Run("will iterate over every line", func(t *testing.T) {
		t.Run("if the file exists", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lines.txt")
			err := os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o644)
			if !assert.Nil(t, err) {
				return
			}

			it, err := Lines(context.Background(), path, Lock())
			if !assert.Nil(t, err) {
				return
			}

			lines, err := seq.Collect[string](it)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, []string{"one", "two", "three"}, lines) {
				return
			}

			err = it.Close()
			if !assert.Nil(t, err) {
				return
			}

			err = it.Close()
			if !assert.Nil(t, err) {
				return
			}
		})
	})

	t.Run("will return an IOError", func(t *testing.T) {
		t.Run("if the file does not exist", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.txt")

			_, err := Lines(context.Background(), path)

			ioerr := iofn.AsIOError(err)
			if !assert.NotNil(t, ioerr) {
				return
			}
			if !assert.Equal(t, "open", ioerr.Op) {
				return
			}
			if !assert.ErrorIs(t, err, fs.ErrNotExist) {
				return
			}
		})
	})

	t.Run("will close the file", func(t *testing.T) {
		t.Run("if the iterator created by the reader closes", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lines.txt")
			err := os.WriteFile(path, []byte("one\n"), 0o644)
			if !assert.Nil(t, err) {
				return
			}

			closed := 0
			it, err := Stream(context.Background(), path, func(r io.Reader) (seq.Iterator[string], error) {
				return seq.WithCloser(ScanLines(r), resource.CloseFunc(func() error {
					closed++
					return nil
				})), nil
			}, Lock())
			if !assert.Nil(t, err) {
				return
			}

			err = it.Close()
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, 1, closed) {
				return
			}

			fl := flock.New(path + LockSuffix)
			locked, err := fl.TryLock()
			if !assert.Nil(t, err) {
				return
			}
			defer fl.Unlock()
			if !assert.True(t, locked) {
				return
			}
		})
	})

	t.Run("will return the reader error", func(t *testing.T) {
		t.Run("if the reader fails", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lines.txt")
			err := os.WriteFile(path, []byte("one\n"), 0o644)
			if !assert.Nil(t, err) {
				return
			}

			readErr := errors.New("failed to read")
			_, err = Stream(context.Background(), path, func(io.Reader) (seq.Iterator[string], error) {
				return nil, readErr
			})
			if !assert.ErrorIs(t, err, readErr) {
				return
			}
		})
	})
}
