// Command assetstream packs asset blobs into a blob store and streams them
// through a Manager.
//
//	assetstream pack --dir ./assets --type mesh --lod 0 --compression zstd rock.bin
//	assetstream stream --dir ./assets --config stream.yaml --manifest level1.yaml mesh/rock
//
// Blob stores are selected with --dir (local filesystem), --s3-bucket or
// --minio-endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

const usage = `usage: assetstream <command> [flags]

commands:
  pack     compress files and store them as asset blobs
  stream   request assets through a streaming manager and print its stats

Run "assetstream <command> --help" for command flags.
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "assetstream:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	var err error
	switch args[0] {
	case "pack":
		err = runPack(ctx, args[1:], stdout, stderr)
	case "stream":
		err = runStream(ctx, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	return err
}
