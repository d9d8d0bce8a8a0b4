// Package model defines core types used throughout assetstream.
//
// # Identity and Classification
//
//   - ResourceType: kind of asset (mesh, texture, audio, ...)
//   - Priority: eviction weight of a request (Low..Critical)
//   - LODLevel: detail tier (alias of lod.Level)
//   - State: lifecycle of a streamed resource
//
// # Data Types
//
//   - Descriptor: input of a stream request
//   - Resource: a cached or returned resource
//   - Region: named spatial area with an associated resource set
//   - MemoryBudget: aggregate byte ceiling plus informational per-type budgets
package model
