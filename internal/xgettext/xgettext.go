// Package xgettext drives extraction over a set of files and writes the
// resulting POT catalog.
package xgettext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/snapcore/go-lingva"
	"github.com/snapcore/go-lingva/catalog"
	"github.com/snapcore/go-lingva/chameleon"
	"github.com/snapcore/go-lingva/internal/config"
	"github.com/snapcore/go-lingva/python"
)

// DefaultRegistry knows the python and chameleon extractors. Plain
// .html files are only handled when a configuration maps them.
func DefaultRegistry() *lingva.Registry {
	reg := lingva.NewRegistry()
	reg.Register("python", python.Extractor{})
	reg.Register("xml", chameleon.Extractor{})
	reg.Register("chameleon", chameleon.Extractor{})
	for _, m := range []struct{ ext, name string }{
		{".py", "python"},
		{".pt", "xml"},
		{".zpt", "xml"},
		{".cpt", "xml"},
	} {
		if err := reg.Map(m.ext, m.name); err != nil {
			panic(err)
		}
	}
	return reg
}

type Extractor struct {
	Registry *lingva.Registry
	Options  *lingva.Options
	// Config supplies per-extractor options on top of Options.
	Config *config.Config

	Directories   []string
	SortOutput    bool
	SortByFile    bool
	NoLocation    bool
	NoLineNumbers bool

	PackageName      string
	PackageVersion   string
	MsgidBugsAddress string
	CopyrightHolder  string
	CreationDate     string

	// Jobs limits the number of files extracted in parallel. Zero
	// means one per CPU.
	Jobs int

	Catalog *catalog.Catalog
}

func (e *Extractor) registry() *lingva.Registry {
	if e.Registry == nil {
		e.Registry = DefaultRegistry()
	}
	return e.Registry
}

func (e *Extractor) openFile(filename string) (f *os.File, err error) {
	for _, dir := range e.Directories {
		f, err = os.Open(filepath.Join(dir, filename))
		if !os.IsNotExist(err) {
			break
		}
	}
	return f, err
}

// input prepares the extractor input for filename. Files found through
// the search directories keep the name they were given in references.
func (e *Extractor) input(filename string) (in lingva.Input, done func(), err error) {
	if len(e.Directories) == 0 || filepath.IsAbs(filename) {
		return lingva.Input{Filename: filename}, func() {}, nil
	}
	f, err := e.openFile(filename)
	if err != nil {
		return lingva.Input{}, nil, err
	}
	return lingva.Input{Filename: filename, Source: f}, func() { f.Close() }, nil
}

// parseFile extracts the messages of a single file. Files without a
// matching extractor are skipped.
func (e *Extractor) parseFile(filename string) ([]lingva.Message, error) {
	name, extractor, ok := e.registry().ForFile(filename)
	if !ok {
		log.Warn().Str("file", filename).Msg("No extractor available for file, ignoring")
		return nil, nil
	}

	in, done, err := e.input(filename)
	if err != nil {
		return nil, err
	}
	defer done()

	msgs, err := lingva.Collect(extractor.Extract(in, e.Config.Options(name, e.Options)))
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("file", filename).
		Str("extractor", name).
		Int("messages", len(msgs)).
		Msg("Extracted messages")
	return msgs, nil
}

// ParseFiles extracts messages from files and adds them to the catalog
// in file order. The first fatal error stops the run.
func (e *Extractor) ParseFiles(ctx context.Context, files []string) error {
	e.registry()

	jobs := e.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([][]lingva.Message, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, filename := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			msgs, err := e.parseFile(filename)
			if err != nil {
				return fmt.Errorf("cannot extract messages from %s: %w", filename, err)
			}
			results[i] = msgs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	pot := e.pot()
	for _, msgs := range results {
		for _, msg := range msgs {
			if e.NoLineNumbers {
				msg.Location.Line = 0
			}
			pot.Add(msg)
		}
	}
	return nil
}

// ParseFile extracts messages from a single file.
func (e *Extractor) ParseFile(filename string) error {
	return e.ParseFiles(context.Background(), []string{filename})
}

func (e *Extractor) header() catalog.Header {
	holder := "THE PACKAGE'S COPYRIGHT HOLDER"
	if e.CopyrightHolder != "" {
		holder = e.CopyrightHolder
	}
	version := strings.TrimSpace(e.PackageName + " " + e.PackageVersion)
	if version == "" {
		version = "PACKAGE VERSION"
	}

	h := catalog.Header{
		Comment: strings.Join([]string{
			"SOME DESCRIPTIVE TITLE.",
			"Copyright (C) YEAR " + holder,
			"This file is distributed under the same license as the PACKAGE package.",
			"FIRST AUTHOR <EMAIL@ADDRESS>, YEAR.",
			"",
		}, "\n"),
	}
	field := func(name, value string) {
		h.Metadata = append(h.Metadata, catalog.Field{Name: name, Value: value})
	}
	field("Project-Id-Version", version)
	if e.MsgidBugsAddress != "" {
		field("Report-Msgid-Bugs-To", e.MsgidBugsAddress)
	}
	field("POT-Creation-Date", e.CreationDate)
	field("PO-Revision-Date", "YEAR-MO-DA HO:MI+ZONE")
	field("Last-Translator", "FULL NAME <EMAIL@ADDRESS>")
	field("Language-Team", "LANGUAGE <LL@li.org>")
	field("Language", "")
	field("MIME-Version", "1.0")
	field("Content-Type", "text/plain; charset=UTF-8")
	field("Content-Transfer-Encoding", "8bit")
	return h
}

func (e *Extractor) writeOptions() *catalog.WriteOptions {
	return &catalog.WriteOptions{
		NoLocation:    e.NoLocation,
		NoLineNumbers: e.NoLineNumbers,
		SortByMsgID:   e.SortOutput,
		SortByFile:    e.SortByFile,
	}
}

func (e *Extractor) pot() *catalog.Catalog {
	if e.Catalog == nil {
		e.Catalog = catalog.New(e.header())
	}
	return e.Catalog
}

// Write renders the catalog as a POT file.
func (e *Extractor) Write(w io.Writer) error {
	return catalog.Write(w, e.pot(), e.writeOptions())
}

// Update writes the catalog to path unless the file there already holds
// the same messages. It reports whether the file was written.
func (e *Extractor) Update(path string) (bool, error) {
	opts := e.writeOptions()
	old, err := catalog.ParseFile(path)
	switch {
	case err == nil:
		if catalog.Identical(old, e.pot().AsWritten(opts)) {
			log.Info().Str("path", path).Msg("Catalog is unchanged, not updating")
			return false, nil
		}
	case !os.IsNotExist(err):
		log.Warn().Err(err).Str("path", path).Msg("Cannot read existing catalog, replacing it")
	}

	var buf bytes.Buffer
	if err := catalog.Write(&buf, e.pot(), opts); err != nil {
		return false, err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
