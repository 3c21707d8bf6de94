package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"

	"github.com/snapcore/go-lingva"
	"github.com/snapcore/go-lingva/internal/config"
	"github.com/snapcore/go-lingva/internal/xgettext"
)

var formatTime = func() string {
	return time.Now().Format("2006-01-02 15:04-0700")
}

type options struct {
	FilesFrom string `short:"f" long:"files-from" value-name:"FILE" description:"get list of input files from FILE"`

	Directories []string `short:"D" long:"directory" value-name:"DIRECTORY" description:"add DIRECTORY to list for input files search"`

	Output string `short:"o" long:"output" value-name:"FILE" description:"output to specified file, or - for standard output"`

	Config string `long:"config" value-name:"FILE" description:"read extractor configuration from FILE"`

	CommentTags []string `short:"c" long:"add-comments" optional:"true" optional-value:"" value-name:"TAG" description:"place comment blocks starting with TAG and preceding keyword lines in output file"`

	Keywords []string `short:"k" long:"keyword" value-name:"WORD" description:"look for WORD as an additional keyword"`

	Domain string `short:"d" long:"domain" value-name:"DOMAIN" description:"only extract messages from DOMAIN"`

	NoLocation bool `long:"no-location" description:"do not write '#: filename:line' lines"`

	NoLineNumbers bool `long:"no-linenumbers" description:"do not include line numbers in '#:' lines"`

	SortOutput bool `short:"s" long:"sort-output" description:"generate sorted output"`

	SortByFile bool `long:"sort-by-file" description:"sort output by file location"`

	PackageName string `long:"package-name" value-name:"PACKAGE" description:"set package name in output"`

	PackageVersion string `long:"package-version" value-name:"VERSION" description:"set package version in output"`

	MsgidBugsAddress string `long:"msgid-bugs-address" value-name:"ADDRESS" description:"set report address for msgid bugs"`

	CopyrightHolder string `long:"copyright-holder" value-name:"STRING" description:"set copyright holder in output"`

	Jobs int `short:"j" long:"jobs" value-name:"N" description:"extract N files in parallel (default: one per CPU)"`

	Verbose bool `short:"v" long:"verbose" description:"print progress information"`

	ListExtractors bool `long:"list-extractors" description:"list the available extractors and exit"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Extraction failed")
	}
}

func (opts *options) commentTag() lingva.CommentTag {
	if len(opts.CommentTags) == 0 {
		return lingva.NoComments
	}
	// a bare "-c" accepts every comment
	tag := opts.CommentTags[len(opts.CommentTags)-1]
	if tag == "" {
		return lingva.AllComments
	}
	return lingva.TaggedComments(tag)
}

func (opts *options) files(args []string) ([]string, error) {
	if opts.FilesFrom == "" {
		return args, nil
	}
	content, err := os.ReadFile(opts.FilesFrom)
	if err != nil {
		return nil, fmt.Errorf("cannot read file %v: %w", opts.FilesFrom, err)
	}
	var files []string
	for _, line := range strings.Split(string(bytes.TrimSpace(content)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		files = append(files, line)
	}
	return append(files, args...), nil
}

func listExtractors(w io.Writer, reg *lingva.Registry) error {
	for _, name := range reg.Names() {
		line := fmt.Sprintf("%-12s %s", name, strings.Join(reg.Extensions(name), " "))
		if _, err := fmt.Fprintln(w, strings.TrimSpace(line)); err != nil {
			return err
		}
	}
	return nil
}

func run(args []string, stdout io.Writer, stderr *os.File) error {
	var opts options
	args, err := flags.ParseArgs(&opts, args)
	if err != nil {
		return err
	}
	config.SetupLogging(stderr, opts.Verbose)

	reg := xgettext.DefaultRegistry()
	var cfg *config.Config
	if opts.Config != "" {
		if cfg, err = config.Load(opts.Config); err != nil {
			return err
		}
		if err := cfg.Apply(reg); err != nil {
			return err
		}
	}
	if opts.ListExtractors {
		return listExtractors(stdout, reg)
	}

	files, err := opts.files(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no input files given")
	}

	keywords := make([]string, 0, len(opts.Keywords))
	for _, spec := range opts.Keywords {
		if _, err := lingva.ParseKeyword(spec); err != nil {
			return fmt.Errorf("cannot parse keyword %s: %w", spec, err)
		}
		keywords = append(keywords, spec)
	}
	log.Debug().Strs("keywords", keywords).Msg("Extra keywords")

	extractor := xgettext.Extractor{
		Registry: reg,
		Config:   cfg,
		Options: &lingva.Options{
			Keywords:   keywords,
			Domain:     opts.Domain,
			CommentTag: opts.commentTag(),
		},
		Directories:      opts.Directories,
		SortOutput:       opts.SortOutput,
		SortByFile:       opts.SortByFile,
		NoLocation:       opts.NoLocation,
		NoLineNumbers:    opts.NoLineNumbers,
		PackageName:      opts.PackageName,
		PackageVersion:   opts.PackageVersion,
		MsgidBugsAddress: opts.MsgidBugsAddress,
		CopyrightHolder:  opts.CopyrightHolder,
		CreationDate:     formatTime(),
		Jobs:             opts.Jobs,
	}
	if err := extractor.ParseFiles(context.Background(), files); err != nil {
		return err
	}

	if opts.Output == "" || opts.Output == "-" {
		if err := extractor.Write(stdout); err != nil {
			return fmt.Errorf("failed to write po template: %w", err)
		}
		return nil
	}
	written, err := extractor.Update(opts.Output)
	if err != nil {
		return err
	}
	if written {
		log.Info().Str("path", opts.Output).Int("messages", extractor.Catalog.Len()).Msg("Catalog written")
	}
	return nil
}
