package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/indexzero/difftar"
	"github.com/jessevdk/go-flags"
)

var opts struct {
	NameOnly          bool   `long:"name-only" description:"list changed paths only"`
	Unified           int    `short:"U" long:"unified" description:"number of context lines around each hunk" default:"3"`
	IgnoreAllSpace    bool   `short:"w" long:"ignore-all-space" description:"ignore whitespace when comparing lines"`
	IgnoreSpaceChange bool   `short:"b" long:"ignore-space-change" description:"ignore changes in amount of whitespace"`
	NoPrefix          bool   `long:"no-prefix" description:"do not show source or destination prefixes"`
	SrcPrefix         string `long:"src-prefix" description:"show the given source prefix instead of a/" default:"a/"`
	DstPrefix         string `long:"dst-prefix" description:"show the given destination prefix instead of b/" default:"b/"`
	Text              bool   `short:"a" long:"text" description:"treat binary files as text"`
	Stat              bool   `long:"stat" description:"print change counters to stderr"`

	Bearer string `long:"bearer" description:"bearer token for http(s) sources" default-mask:"-"`
	Basic  string `long:"basic" description:"pre-encoded base64 user:pass for http(s) sources" default-mask:"-"`

	Region   string `long:"region" description:"AWS region for s3:// sources" default:"us-east-1"`
	Endpoint string `long:"endpoint" description:"custom S3 endpoint, addressed path-style"`

	Args struct {
		Left  string `positional-arg-name:"left" description:"left archive: s3:// URI, http(s) URL, local path, or - for base64 on stdin"`
		Right string `positional-arg-name:"right" description:"right archive"`
	} `positional-args:"yes" required:"yes"`
}

func main() {
	log.SetFlags(0)

	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	left, err := sourceFromArg(opts.Args.Left)
	if err != nil {
		exitErr(err)
	}
	right, err := sourceFromArg(opts.Args.Right)
	if err != nil {
		exitErr(err)
	}

	res, err := difftar.DiffWithStats(ctx, left, right, func(o *difftar.DiffOptions) {
		o.NameOnly = opts.NameOnly
		o.Context = opts.Unified
		o.IgnoreAllSpace = opts.IgnoreAllSpace
		o.IgnoreSpaceChange = opts.IgnoreSpaceChange
		o.NoPrefix = opts.NoPrefix
		o.SrcPrefix = opts.SrcPrefix
		o.DstPrefix = opts.DstPrefix
		o.Text = opts.Text
	})
	if err != nil {
		exitErr(err)
	}

	if opts.Stat {
		log.Printf("%d files changed, %d added, %d deleted", res.FilesChanged, res.FilesAdded, res.FilesDeleted)
	}

	fmt.Print(res.Output)
}

// sourceFromArg maps a positional argument to a transport: "-" reads base64
// from stdin, s3:// and http(s):// select their transports, anything else is
// a local file path (an optional leading @ is accepted and stripped).
func sourceFromArg(arg string) (difftar.Source, error) {
	switch {
	case arg == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin error: %w", err)
		}
		return difftar.InlineBase64Source{Data: strings.TrimSpace(string(data))}, nil

	case strings.HasPrefix(arg, "s3://"):
		return difftar.S3Source{
			Source:          arg,
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Region:          opts.Region,
			Endpoint:        opts.Endpoint,
		}, nil

	case strings.HasPrefix(arg, "http://"), strings.HasPrefix(arg, "https://"):
		src := difftar.URLSource{URL: arg}
		switch {
		case opts.Bearer != "":
			src.Auth, src.Credential = difftar.AuthBearer, opts.Bearer
		case opts.Basic != "":
			src.Auth, src.Credential = difftar.AuthBasic, opts.Basic
		}
		return src, nil

	default:
		return difftar.FileSource{Path: strings.TrimPrefix(arg, "@")}, nil
	}
}

// exitErr prints a DiffError in its JSON wire shape (fields sanitized) and
// exits non-zero.
func exitErr(err error) {
	var de *difftar.DiffError
	if errors.As(err, &de) {
		if data, jsonErr := json.Marshal(de); jsonErr == nil {
			fmt.Fprintln(os.Stderr, string(data))
			os.Exit(1)
		}
	}

	log.Fatal(err)
}
