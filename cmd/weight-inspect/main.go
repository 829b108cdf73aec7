package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/weightops/weight-inspect-go/util/json"
	"github.com/weightops/weight-inspect-go/util/signalx"

	wi "github.com/weightops/weight-inspect-go"
)

var Version = "v0.0.0"

func main() {
	name := "weight-inspect"
	app := &cli.App{
		Name:            name,
		Usage:           "Structural identity for GGUF and safetensors model files.",
		Version:         Version,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debugging, verbosity.",
			},
			&cli.BoolFlag{
				Name:  "mmap",
				Usage: "Use mmap to read the local file.",
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "Bearer auth token to access the remote file.",
			},
			&cli.StringFlag{
				Name:  "proxy",
				Usage: "Proxy to access the remote file.",
			},
			&cli.BoolFlag{
				Name:  "skip-proxy",
				Usage: "Skip proxy settings when accessing the remote file.",
			},
			&cli.BoolFlag{
				Name:  "skip-tls-verify",
				Usage: "Skip TLS verification when accessing the remote file.",
			},
			&cli.BoolFlag{
				Name:  "skip-dns-cache",
				Usage: "Skip DNS cache when accessing the remote file.",
			},
			&cli.BoolFlag{
				Name:  "skip-rang-download-detect",
				Usage: "Skip range download detection when accessing the remote file.",
			},
			&cli.IntFlag{
				Name:  "buffer-size",
				Usage: "Buffer size in bytes for reading the remote file.",
			},
			&cli.StringFlag{
				Name:  "max-size",
				Usage: "Reject a remote file larger than the given size, e.g. \"10GiB\".",
			},
			&cli.StringFlag{
				Name:  "cache-path",
				Usage: "Cache the parsed result of a remote file under the given path.",
			},
			&cli.DurationFlag{
				Name:  "cache-expiration",
				Usage: "Expiration of the parsed result cache.",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output as JSON.",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "inspect",
				Usage:     "Inspect the structure of a model file.",
				ArgsUsage: "PATH|URL",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "tensors",
						Usage: "Number of tensors to show.",
						Value: 5,
					},
				},
				Action: inspect,
			},
			{
				Name:      "id",
				Usage:     "Print the structural identity of a model file.",
				ArgsUsage: "PATH|URL",
				Action:    id,
			},
			{
				Name:      "diff",
				Usage:     "Compare the structure of two model files.",
				ArgsUsage: "PATH|URL PATH|URL",
				Action:    diff,
			},
			{
				Name:      "summary",
				Usage:     "Print a one-line summary of a model file.",
				ArgsUsage: "PATH|URL",
				Action:    summary,
			},
		},
	}

	if err := app.RunContext(signalx.Handler(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}

func readOptions(c *cli.Context) ([]wi.ReadOption, error) {
	var opts []wi.ReadOption
	if c.Bool("debug") {
		opts = append(opts, wi.UseDebug())
	}
	if c.Bool("mmap") {
		opts = append(opts, wi.UseMMap())
	}
	if t := c.String("token"); t != "" {
		opts = append(opts, wi.UseBearerAuth(t))
	}
	if p := c.String("proxy"); p != "" {
		u, err := url.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("parse proxy: %w", err)
		}
		opts = append(opts, wi.UseProxy(u))
	}
	if c.Bool("skip-proxy") {
		opts = append(opts, wi.SkipProxy())
	}
	if c.Bool("skip-tls-verify") {
		opts = append(opts, wi.SkipTLSVerification())
	}
	if c.Bool("skip-dns-cache") {
		opts = append(opts, wi.SkipDNSCache())
	}
	if c.Bool("skip-rang-download-detect") {
		opts = append(opts, wi.SkipRangeDownloadDetection())
	}
	if s := c.Int("buffer-size"); s > 0 {
		opts = append(opts, wi.UseBufferSize(s))
	}
	if m := c.String("max-size"); m != "" {
		s, err := wi.ParseBytesScalar(m)
		if err != nil {
			return nil, fmt.Errorf("parse max-size: %w", err)
		}
		opts = append(opts, wi.UseMaxSize(uint64(s)))
	}
	if p := c.String("cache-path"); p != "" {
		opts = append(opts, wi.UseCache(p, c.Duration("cache-expiration")))
	}
	return opts, nil
}

func parse(ctx context.Context, c *cli.Context, source string) (*wi.Artifact, error) {
	opts, err := readOptions(c)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return wi.ParseFileRemote(ctx, source, opts...)
	}
	return wi.ParseFile(source, opts...)
}

func inspect(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.ShowSubcommandHelp(c)
	}

	af, err := parse(c.Context, c, c.Args().Get(0))
	if err != nil {
		return err
	}
	hash := wi.Hash(af)

	if c.Bool("json") {
		o := struct {
			Schema         uint32  `json:"schema"`
			Format         string  `json:"format"`
			GGUFVersion    *uint32 `json:"gguf_version"`
			TensorCount    int     `json:"tensor_count"`
			MetadataCount  int     `json:"metadata_count"`
			StructuralHash string  `json:"structural_hash"`
		}{
			Schema:         1,
			Format:         af.Format.String(),
			TensorCount:    len(af.Tensors),
			MetadataCount:  len(af.Metadata),
			StructuralHash: hash,
		}
		if af.Format == wi.FormatGGUF {
			v := af.GGUFVersion
			o.GGUFVersion = &v
		}
		return printJSON(o)
	}

	fmt.Printf("format: %s\n", af.Format)
	if af.Format == wi.FormatGGUF {
		fmt.Printf("gguf_version: %d\n", af.GGUFVersion)
	}
	fmt.Printf("tensor_count: %d\n", len(af.Tensors))
	fmt.Printf("metadata_count: %d\n", len(af.Metadata))
	fmt.Printf("structural_hash: %s\n", hash)

	if n := c.Int("tensors"); n > 0 && len(af.Tensors) > 0 {
		fmt.Println()
		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"Name", "Dtype", "Shape", "Bytes"})
		for i := range af.Tensors {
			if i >= n {
				break
			}
			ti := af.Tensors[i]
			tw.AppendRow(table.Row{ti.Name, ti.Dtype, fmt.Sprintf("%v", ti.Shape), wi.BytesScalar(ti.ByteLength)})
		}
		tw.Render()
		if len(af.Tensors) > n {
			fmt.Printf("... and %d more\n", len(af.Tensors)-n)
		}
	}
	return nil
}

func id(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.ShowSubcommandHelp(c)
	}

	af, err := parse(c.Context, c, c.Args().Get(0))
	if err != nil {
		return err
	}
	hash := wi.Hash(af)

	if c.Bool("json") {
		o := struct {
			Schema         uint32 `json:"schema"`
			Format         string `json:"format"`
			StructuralHash string `json:"structural_hash"`
			TensorCount    int    `json:"tensor_count"`
			MetadataCount  int    `json:"metadata_count"`
		}{
			Schema:         1,
			Format:         af.Format.String(),
			StructuralHash: hash,
			TensorCount:    len(af.Tensors),
			MetadataCount:  len(af.Metadata),
		}
		return printJSON(o)
	}

	fmt.Printf("format: %s\n", af.Format)
	fmt.Printf("structural_hash: %s\n", hash)
	fmt.Printf("tensor_count: %d\n", len(af.Tensors))
	fmt.Printf("metadata_count: %d\n", len(af.Metadata))
	return nil
}

func diff(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.ShowSubcommandHelp(c)
	}

	afA, err := parse(c.Context, c, c.Args().Get(0))
	if err != nil {
		return err
	}
	afB, err := parse(c.Context, c, c.Args().Get(1))
	if err != nil {
		return err
	}

	r := wi.Diff(afA, afB)
	hashEqual := wi.Hash(afA) == wi.Hash(afB)

	if c.Bool("json") {
		o := struct {
			Schema    uint32 `json:"schema"`
			HashEqual bool   `json:"hash_equal"`
			wi.DiffResult
		}{
			Schema:     1,
			HashEqual:  hashEqual,
			DiffResult: r,
		}
		if err = printJSON(o); err != nil {
			return err
		}
	} else {
		printDiff(r, hashEqual)
	}

	if r.HasChanges() {
		return cli.Exit("", 1)
	}
	return nil
}

func printDiff(r wi.DiffResult, hashEqual bool) {
	fmt.Println("Structural Identity:")
	fmt.Printf("  format equal: %v\n", r.FormatEqual)
	fmt.Printf("  gguf version equal: %v\n", r.GGUFVersionEqual)
	fmt.Printf("  hash equal: %v\n", hashEqual)

	if len(r.Metadata.Added) != 0 || len(r.Metadata.Removed) != 0 || len(r.Metadata.Changed) != 0 {
		fmt.Println("\nMetadata:")
		for _, kv := range r.Metadata.Added {
			fmt.Printf("  + %s\n", kv.Key)
		}
		for _, kv := range r.Metadata.Removed {
			fmt.Printf("  - %s\n", kv.Key)
		}
		for _, ch := range r.Metadata.Changed {
			fmt.Printf("  ~ %s: %s -> %s\n", ch.Key, ch.Old, ch.New)
		}
	}

	if len(r.Tensors.Added) != 0 || len(r.Tensors.Removed) != 0 || len(r.Tensors.Changed) != 0 {
		fmt.Println("\nTensors:")
		for _, ti := range r.Tensors.Added {
			fmt.Printf("  + %s\n", ti.Name)
		}
		for _, ti := range r.Tensors.Removed {
			fmt.Printf("  - %s\n", ti.Name)
		}
		for _, ch := range r.Tensors.Changed {
			fmt.Printf("  ~ %s:\n", ch.Name)
			if ch.Dtype != nil {
				fmt.Printf("      dtype: %s -> %s\n", ch.Dtype.Old, ch.Dtype.New)
			}
			if ch.Shape != nil {
				fmt.Printf("      shape: %v -> %v\n", ch.Shape.Old, ch.Shape.New)
			}
			if ch.ByteLength != nil {
				fmt.Printf("      bytes: %d -> %d\n", ch.ByteLength.Old, ch.ByteLength.New)
			}
		}
	}

	if !r.HasChanges() {
		fmt.Println("\nNo differences found.")
	}
}

func summary(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.ShowSubcommandHelp(c)
	}

	af, err := parse(c.Context, c, c.Args().Get(0))
	if err != nil {
		return err
	}

	version := "N/A"
	if af.Format == wi.FormatGGUF {
		version = fmt.Sprintf("%d", af.GGUFVersion)
	}
	fmt.Printf("%s,%s,%d,%d,%s\n", af.Format, version, len(af.Tensors), len(af.Metadata), wi.Hash(af))
	return nil
}

func printJSON(v any) error {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(bs))
	return nil
}
