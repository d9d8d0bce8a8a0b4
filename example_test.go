package assetstream_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/assetstream"
	"github.com/hupe1980/assetstream/blobstore"
	"github.com/hupe1980/assetstream/codec"
	"github.com/hupe1980/assetstream/executor"
)

// Example demonstrates streaming an asset from a blob store.
func Example() {
	ctx := context.Background()

	store := blobstore.NewMemoryStore()
	key := executor.Key(assetstream.TypeMesh, "castle_gate", assetstream.LOD1)
	if err := executor.Publish(ctx, store, key, codec.CompressionZSTD, []byte("gate vertices")); err != nil {
		log.Fatal(err)
	}

	mgr, err := assetstream.New(assetstream.DefaultConfig(), executor.New(store))
	if err != nil {
		log.Fatal(err)
	}
	defer mgr.Close()

	res, err := mgr.Request(ctx, assetstream.Descriptor{
		ID:       "castle_gate",
		Type:     assetstream.TypeMesh,
		Priority: assetstream.PriorityNormal,
		Distance: 30, // selects LOD1
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(res.LOD, string(res.Payload))
	fmt.Println(mgr.Stats().CacheMisses)
	// Output:
	// LOD1 gate vertices
	// 1
}
