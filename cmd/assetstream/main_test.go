package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/assetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), nil, &stdout, &stderr)
	require.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr.String(), "usage: assetstream")

	stdout.Reset()
	require.NoError(t, run(context.Background(), []string{"help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "pack")

	err = run(context.Background(), []string{"bogus"}, &stdout, &stderr)
	require.ErrorIs(t, err, errUsage)
	assert.Contains(t, err.Error(), `"bogus"`)
}

func TestStoreOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    storeOptions
		wantErr bool
	}{
		{"none", storeOptions{}, true},
		{"dir", storeOptions{Dir: "/tmp/assets"}, false},
		{"s3", storeOptions{S3Bucket: "assets"}, false},
		{"minio", storeOptions{MinioEndpoint: "localhost:9000", MinioBucket: "assets"}, false},
		{"minio without bucket", storeOptions{MinioEndpoint: "localhost:9000"}, true},
		{"two backends", storeOptions{Dir: "/tmp/assets", S3Bucket: "assets"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, errUsage)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseRef(t *testing.T) {
	r, err := parseRef("texture/bricks")
	require.NoError(t, err)
	assert.Equal(t, "bricks", r.ID)
	assert.Equal(t, assetstream.TypeTexture, r.Type)

	d, err := r.descriptor()
	require.NoError(t, err)
	assert.Equal(t, assetstream.PriorityNormal, d.Priority)

	_, err = parseRef("bricks")
	assert.ErrorIs(t, err, errUsage)

	_, err = parseRef("texture/")
	assert.ErrorIs(t, err, errUsage)

	_, err = parseRef("sprite/bricks")
	assert.Error(t, err)
}

func TestRequestSpec_Descriptor(t *testing.T) {
	d, err := requestSpec{ID: "a", Type: assetstream.TypeMesh, Priority: "critical", LOD: 2}.descriptor()
	require.NoError(t, err)
	assert.Equal(t, assetstream.PriorityCritical, d.Priority)
	assert.Equal(t, assetstream.LOD2, d.LOD)

	_, err = requestSpec{ID: "a", Priority: "urgent"}.descriptor()
	assert.Error(t, err)

	_, err = requestSpec{ID: "a", LOD: 4}.descriptor()
	assert.Error(t, err)
}

func TestPack_Errors(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"pack", "--dir", dir}, &stdout, &stderr)
	assert.ErrorIs(t, err, errUsage)

	err = run(context.Background(), []string{"pack", "--dir", dir, "--lod", "7", "x.bin"}, &stdout, &stderr)
	assert.ErrorIs(t, err, errUsage)

	err = run(context.Background(), []string{"pack", "--dir", dir, "--id", "x", "a.bin", "b.bin"}, &stdout, &stderr)
	assert.ErrorIs(t, err, errUsage)

	err = run(context.Background(), []string{"pack", "--dir", dir, "--compression", "gzip", "x.bin"}, &stdout, &stderr)
	assert.Error(t, err)
}

func TestPackAndStream(t *testing.T) {
	src := t.TempDir()
	assets := t.TempDir()
	ctx := context.Background()

	rock := filepath.Join(src, "rock.bin")
	gate := filepath.Join(src, "gate.bin")
	require.NoError(t, os.WriteFile(rock, bytes.Repeat([]byte("rock"), 64), 0o644))
	require.NoError(t, os.WriteFile(gate, bytes.Repeat([]byte("gate"), 32), 0o644))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(ctx, []string{"pack", "--dir", assets, "--lod", "0", rock}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "mesh/rock.lod0\t256 bytes\tzstd")

	stdout.Reset()
	require.NoError(t, run(ctx, []string{"pack", "--dir", assets, "--compression", "lz4", gate}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "mesh/gate\t128 bytes\tlz4")

	manifestPath := filepath.Join(src, "level.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(`
viewer: {x: 0, y: 0, z: 0}
regions:
  - id: courtyard
    center: {x: 5, y: 0, z: 0}
    radius: 20
    priority: high
    resources:
      - {id: gate, type: mesh}
requests:
  - {id: rock, type: mesh}
`), 0o644))

	stdout.Reset()
	err := run(ctx, []string{
		"stream", "--dir", assets, "--manifest", manifestPath, "--log-level", "error",
		"mesh/rock",
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	var st assetstream.Stats
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &st))
	assert.Equal(t, int64(2), st.TotalLoads)
	assert.Equal(t, int64(0), st.FailedLoads)
	assert.Equal(t, int64(2), st.CachedResources)
	assert.Equal(t, int64(256+128), st.TotalMemoryUsed)
	assert.Equal(t, int64(256+128), st.MemoryByType[assetstream.TypeMesh])
}

func TestStream_FailedRequest(t *testing.T) {
	assets := t.TempDir()
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{
		"stream", "--dir", assets, "--log-level", "error", "texture/missing",
	}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 requests failed")

	var st assetstream.Stats
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &st))
	assert.Equal(t, int64(1), st.FailedLoads)
}

func TestStream_BadConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "stream.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("max_concurrent_loads: -1\n"), 0o644))

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"stream", "--dir", t.TempDir(), "--config", cfgPath,
	}, &stdout, &stderr)
	assert.ErrorIs(t, err, assetstream.ErrValidation)
}

func TestRun_CommandHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"stream", "--help"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "--manifest")
}
