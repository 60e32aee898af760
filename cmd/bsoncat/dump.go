package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/oy3o/bsoncodec"
)

func dumpCmd() *cli.Command {
	var (
		validateOnly bool
		indent       bool
		configPath   string
	)
	return &cli.Command{
		Name:      "dump",
		Usage:     "Print concatenated documents as JSON, one per line",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "validate-only", Usage: "check documents without printing them", Destination: &validateOnly},
			&cli.BoolFlag{Name: "indent", Usage: "pretty print", Destination: &indent},
			&cli.StringFlag{Name: "config", Usage: "codec config (yaml or json) used to log envelope keys", Destination: &configPath},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() == 0 {
				return cli.Exit("error: no input files", 1)
			}
			var settings *bsoncodec.Settings
			if configPath != "" {
				cfg, err := bsoncodec.LoadConfig(configPath)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				s, _ := cfg.Settings()
				settings = &s
			}

			var out io.Writer = io.Discard
			if !validateOnly {
				w := bufio.NewWriter(os.Stdout)
				defer func() { _ = w.Flush() }()
				out = w
			}
			for _, path := range c.Args().Slice() {
				if err := dumpFile(path, out, indent, settings); err != nil {
					return cli.Exit(fmt.Sprintf("error: %s: %v", path, err), 1)
				}
			}
			return nil
		},
	}
}

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check the framing of every document",
		ArgsUsage: "FILE...",
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() == 0 {
				return cli.Exit("error: no input files", 1)
			}
			for _, path := range c.Args().Slice() {
				if err := dumpFile(path, io.Discard, false, nil); err != nil {
					return cli.Exit(fmt.Sprintf("error: %s: %v", path, err), 1)
				}
				fmt.Printf("%s: ok\n", path)
			}
			return nil
		},
	}
}

// dumpFile renders every document of the file to out. "-" reads standard input.
func dumpFile(path string, out io.Writer, indent bool, s *bsoncodec.Settings) error {
	var in io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		in = f
	}
	r, err := bsoncodec.NewReader(in)
	if err != nil {
		return err
	}
	log := bsoncodec.Logger()
	var (
		it   bsoncodec.Iter
		line []byte
		pp   bytes.Buffer
		n    int
	)
	for ; r.Next(); n++ {
		if err := it.Init(r.Document()); err != nil {
			return fmt.Errorf("document %d: %w", n, err)
		}
		if s != nil {
			name, seq := envelope(&it, s)
			log.Info("document", zap.Int("index", n), zap.String("message", name), zap.Int64("seq", seq))
			it.Reset()
		}
		if line, err = renderDocument(line[:0], &it, false); err != nil {
			return fmt.Errorf("document %d: %w", n, err)
		}
		if indent {
			pp.Reset()
			if err := json.Indent(&pp, line, "", "  "); err != nil {
				return err
			}
			line = append(line[:0], pp.Bytes()...)
		}
		line = append(line, '\n')
		if _, err := out.Write(line); err != nil {
			return err
		}
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("document %d: %w", n, err)
	}
	log.Debug("file done", zap.String("path", path), zap.Int("documents", n), zap.Int64("bytes", r.Count()))
	return nil
}

// envelope extracts the message name and sequence number in either compose mode.
func envelope(it *bsoncodec.Iter, s *bsoncodec.Settings) (name string, seq int64) {
	for it.Next() {
		switch key := it.Key(); {
		case s.SeqKey != "" && key == s.SeqKey:
			seq, _ = it.Int()
		case s.Mode == bsoncodec.ModeFlat && key == s.TypeKey:
			name, _ = it.Value().StringValueOK()
		case s.Mode == bsoncodec.ModeNested && name == "":
			if _, ok := it.Value().DocumentOK(); ok {
				name = key
			}
		}
	}
	return name, seq
}
