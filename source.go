package lingva

import (
	"bytes"
	"errors"
	"io"
	"os"
	"runtime"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte("\xef\xbb\xbf")

var errNotMappable = errors.New("file cannot be memory mapped")

// Source is the content of an Input, ready for scanning.
type Source struct {
	Data []byte

	// Legacy is set when the content was handed over as raw bytes
	// rather than text.
	Legacy bool

	unmap func() error
}

// OpenSource loads the content of in. Files on disk are memory mapped;
// Data must not be used after Close.
func OpenSource(in Input) (*Source, error) {
	switch {
	case in.Data != nil:
		return &Source{Data: in.Data, Legacy: true}, nil
	case in.Source != nil:
		data, err := io.ReadAll(in.Source)
		if err != nil {
			return nil, err
		}
		return &Source{Data: data}, nil
	}

	f, err := os.Open(in.Filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return load(f)
}

// load maps f into memory, or reads it when it cannot be mapped.
func load(f *os.File) (*Source, error) {
	data, unmap, err := mapFile(f)
	if err == nil {
		src := &Source{Data: data, unmap: unmap}
		runtime.SetFinalizer(src, (*Source).Close)
		return src, nil
	}
	// mapFile does not move the offset
	data, err = io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &Source{Data: data}, nil
}

// Mapped reports whether Data is backed by a memory mapping.
func (s *Source) Mapped() bool {
	return s.unmap != nil
}

func (s *Source) Close() error {
	runtime.SetFinalizer(s, nil)
	if s.unmap == nil {
		return nil
	}
	err := s.unmap()
	s.unmap = nil
	s.Data = nil
	return err
}

// Text returns the content without a byte order mark.
func (s *Source) Text() []byte {
	return bytes.TrimPrefix(s.Data, utf8BOM)
}

// DecodeLegacy converts raw bytes of unknown encoding to UTF-8. Valid
// UTF-8 is returned unchanged, anything else is read as ISO-8859-1,
// which accepts every byte sequence.
func DecodeLegacy(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return decoded
}

// InvalidUTF8 returns the 1-based line of the first invalid UTF-8
// sequence in data, or 0 if data is valid.
func InvalidUTF8(data []byte) int {
	if utf8.Valid(data) {
		return 0
	}
	line := 1
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size <= 1 {
			return line
		}
		if r == '\n' {
			line++
		}
		data = data[size:]
	}
	return line
}
