// Package assetstream is an asynchronous resource streaming manager for game assets.
//
// A Manager loads meshes, textures, audio, scenes, shaders, animations and
// materials through a pluggable JobExecutor, caches them under a byte budget
// and evicts the least recently used entries when the budget is exceeded.
// Distance-based LOD selection and region prefetch are built in.
//
// # Quick Start
//
//	store := blobstore.NewLocalStore("./assets")
//	mgr, _ := assetstream.New(assetstream.DefaultConfig(), executor.New(store))
//	defer mgr.Close()
//
//	res, err := mgr.Request(ctx, assetstream.Descriptor{
//	    ID:       "castle_gate",
//	    Type:     assetstream.TypeMesh,
//	    Priority: assetstream.PriorityNormal,
//	    Distance: 42,
//	})
//
// # Caching
//
// A cache hit returns immediately and never reaches the executor, regardless
// of the requested LOD. Call Unload to force a reload at another level.
// Concurrent requests for the same id share a single load.
//
// Entries requested with PriorityHigh or PriorityCritical, and pinned
// entries, are skipped by LRU eviction. When nothing else can be evicted the
// most recently inserted entry is dropped, so the budget always holds.
//
// # Regions
//
//	mgr.SetViewerPosition(assetstream.Vec3{X: 10})
//	mgr.RegisterRegion(ctx, assetstream.Region{
//	    ID:        "courtyard",
//	    Center:    assetstream.Vec3{X: 100},
//	    Priority:  assetstream.PriorityNormal,
//	    Resources: model.Refs(assetstream.TypeMesh, "fountain", "bench"),
//	})
//
// Registration prefetches every listed resource in the background.
// Unregistration demotes resources no other region references so LRU can
// reclaim them.
//
// # Observability
//
// Stats returns O(1) counters. Structured logs go through *Logger and
// operational metrics through a MetricsCollector; see the prommetrics
// package for a Prometheus implementation.
package assetstream
