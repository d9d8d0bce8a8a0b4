// Package testutil provides testing utilities for assetstream.
//
// This package is intended for use in tests and benchmarks only.
//
// # Fake Executor
//
//	exec := testutil.NewExecutor(1024)  // 1 KiB payload per load
//	exec.SetSize("castle", 4096)
//	exec.Fail("broken", errors.New("corrupt"))
//	release := exec.Block()             // hold every Submit until release()
//
// # Access Patterns
//
//	rng := testutil.NewRNG(seed)
//	id := rng.Zipf(1000, 1.2)           // skewed, a few hot assets
package testutil
