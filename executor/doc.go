// Package executor provides the default job executor of the streaming manager.
//
// A BlobExecutor resolves a load task to a blob name, reads the blob from a
// blobstore.BlobStore and decodes it with the codec package. Blobs are laid
// out as "<type>/<id>.lod<N>" with "<type>/<id>" as the LOD-independent
// fallback:
//
//	mesh/rock.lod0
//	mesh/rock.lod1
//	texture/grass
//
// Load slots and the IO byte rate are taken from a resource.Controller when
// one is configured.
package executor
