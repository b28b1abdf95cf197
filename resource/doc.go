// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package resource safely acquires, reads and releases resources.
//
// A resource is anything opened by an opener and released by a closer,
// e.g. a file or a running process. [ValueOf] reads a value eagerly and
// releases the resource before returning. [FlowOf] reads a lazily consumed
// value, a [Flow], and hands ownership of the resource over to it.
//
// In both cases the closer is called exactly once. When the reader fails
// its error is returned as the primary failure and a close failure is
// attached to it as a suppressed failure, see [Primary] and [Suppressed].
//
//	readFile := resource.ValueOf(
//	    iofn.Function[string, *os.File](os.Open),
//	    iofn.Function[*os.File, []byte](func(f *os.File) ([]byte, error) {
//	        return io.ReadAll(f)
//	    }),
//	    resource.Closer[*os.File](),
//	)
//	b, err := readFile("config.yaml")
package resource
