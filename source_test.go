package lingva

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(filename, content, 0644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestOpenSourceMapsFiles(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("files are read, not mapped, on windows")
	}
	content := []byte("_('Hello world!')\n")
	src, err := OpenSource(Input{Filename: writeTemp(t, "hello.py", content)})
	if err != nil {
		t.Fatal(err)
	}
	if !src.Mapped() {
		t.Fatal("file content was not mapped")
	}
	if !bytes.Equal(src.Data, content) {
		t.Errorf("unexpected data in mapping: %q", src.Data)
	}

	if err := src.Close(); err != nil {
		t.Fatal(err)
	}
	if src.Mapped() || src.Data != nil {
		t.Fatal("source still mapped after Close")
	}
	if err := src.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestOpenSourceEmptyFile(t *testing.T) {
	src, err := OpenSource(Input{Filename: writeTemp(t, "empty.py", nil)})
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	if src.Mapped() {
		t.Error("empty file should not be mapped")
	}
	if len(src.Data) != 0 {
		t.Errorf("unexpected data: %q", src.Data)
	}
}

func TestLoadFallsBackToReading(t *testing.T) {
	// a pipe cannot be mapped
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	go func() {
		w.Write([]byte("Hello world!"))
		w.Close()
	}()

	if _, _, err := mapFile(r); !errors.Is(err, errNotMappable) {
		t.Errorf("expected errNotMappable, got %v", err)
	}

	src, err := load(r)
	if err != nil {
		t.Fatal(err)
	}
	if src.Mapped() {
		t.Fatal("expected pipe content not to be mapped")
	}
	if string(src.Data) != "Hello world!" {
		t.Errorf("unexpected data: %q", src.Data)
	}
	if err := src.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenSource(t *testing.T) {
	filename := writeTemp(t, "page.pt", []byte("\xef\xbb\xbf<html/>"))

	for _, tc := range []struct {
		in     Input
		text   string
		legacy bool
	}{
		{Input{Filename: filename}, "<html/>", false},
		{Input{Filename: filename, Source: strings.NewReader("text")}, "text", false},
		{Input{Filename: filename, Data: []byte("raw")}, "raw", true},
	} {
		src, err := OpenSource(tc.in)
		if err != nil {
			t.Fatal(err)
		}
		if got := string(src.Text()); got != tc.text {
			t.Errorf("Text() = %q, want %q", got, tc.text)
		}
		if src.Legacy != tc.legacy {
			t.Errorf("Legacy = %v, want %v", src.Legacy, tc.legacy)
		}
		if err := src.Close(); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := OpenSource(Input{Filename: filepath.Join(t.TempDir(), "missing.py")}); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestDecodeLegacy(t *testing.T) {
	for in, want := range map[string]string{
		"café":    "café",
		"caf\xe9": "café",
		"":        "",
	} {
		if got := string(DecodeLegacy([]byte(in))); got != want {
			t.Errorf("DecodeLegacy(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInvalidUTF8(t *testing.T) {
	for in, want := range map[string]int{
		"fine\nlines":         0,
		"\xff\xff\xff":        1,
		"one\ntwo\nth\xffree": 3,
	} {
		if got := InvalidUTF8([]byte(in)); got != want {
			t.Errorf("InvalidUTF8(%q) = %d, want %d", in, got, want)
		}
	}
}
