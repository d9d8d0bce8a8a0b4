package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/assetstream/codec"
	"github.com/hupe1980/assetstream/executor"
	"github.com/hupe1980/assetstream/lod"
	"github.com/hupe1980/assetstream/model"
	"github.com/spf13/pflag"
)

type packOptions struct {
	store       *storeOptions
	Type        string
	ID          string
	LOD         int
	Compression string
}

func runPack(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts := &packOptions{
		store:       newStoreOptions(),
		Type:        "mesh",
		LOD:         -1,
		Compression: "zstd",
	}

	fs := pflag.NewFlagSet("pack", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	opts.store.AddFlags(fs)
	fs.StringVar(&opts.Type, "type", opts.Type,
		"Resource type of the packed files (mesh, texture, audio, scene, shader, animation, material).")
	fs.StringVar(&opts.ID, "id", opts.ID,
		"Resource id. Defaults to the file name without extension; only valid with a single file.")
	fs.IntVar(&opts.LOD, "lod", opts.LOD,
		"LOD level 0-3 of the packed files. -1 stores the LOD-independent blob.")
	fs.StringVar(&opts.Compression, "compression", opts.Compression,
		"Blob compression: none, lz4 or zstd.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	files := fs.Args()
	if len(files) == 0 {
		return fmt.Errorf("%w: pack needs at least one file", errUsage)
	}
	if opts.ID != "" && len(files) > 1 {
		return fmt.Errorf("%w: --id requires a single file", errUsage)
	}

	typ, err := model.ParseResourceType(opts.Type)
	if err != nil {
		return err
	}
	comp, err := codec.ParseCompression(opts.Compression)
	if err != nil {
		return err
	}
	if opts.LOD < -1 || opts.LOD >= lod.NumLevels {
		return fmt.Errorf("%w: --lod must be between -1 and %d", errUsage, lod.NumLevels-1)
	}

	store, err := opts.store.Open(ctx)
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}

		id := opts.ID
		if id == "" {
			base := filepath.Base(file)
			id = strings.TrimSuffix(base, filepath.Ext(base))
		}

		name := executor.BaseKey(typ, id)
		if opts.LOD >= 0 {
			name = executor.Key(typ, id, lod.Level(opts.LOD))
		}

		if err := executor.Publish(ctx, store, name, comp, data); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s\t%d bytes\t%s\n", name, len(data), comp)
	}
	return nil
}
