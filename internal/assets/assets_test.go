package assets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-lambda-examples/internal/bundle"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string]string
	puts    []string
	statErr error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string]string)}
}

func (m *memStore) Stat(_ context.Context, bucket, key string) (ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statErr != nil {
		return ObjectInfo{}, m.statErr
	}
	if _, ok := m.objects[bucket+"/"+key]; !ok {
		return ObjectInfo{}, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
	}
	return ObjectInfo{Key: key}, nil
}

func (m *memStore) PutFile(_ context.Context, bucket, key, path, contentType string) (ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = path
	m.puts = append(m.puts, key)
	return ObjectInfo{Key: key, Size: 42}, nil
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Endpoint: "s3.eu-west-1.amazonaws.com",
		Region:   "eu-west-1",
		Bucket:   "examples-assets",
		UseSSL:   true,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no endpoint", func(c *Config) { c.Endpoint = " " }},
		{"scheme in endpoint", func(c *Config) { c.Endpoint = "https://s3.amazonaws.com" }},
		{"no bucket", func(c *Config) { c.Bucket = "" }},
		{"no region", func(c *Config) { c.Region = "" }},
		{"access key only", func(c *Config) { c.AccessKey = "AKIA" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewMinIOClient(t *testing.T) {
	client, err := NewMinIOClient(Config{
		Endpoint:  "localhost:9000",
		Region:    "us-east-1",
		Bucket:    "assets",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", client.EndpointURL().Host)

	_, err = NewMinioStoreWithClient(nil)
	assert.Error(t, err)
}

func TestPublish(t *testing.T) {
	store := newMemStore()
	store.objects["assets/lambda/aaa.zip"] = "existing"

	p := &Publisher{Store: store, Bucket: "assets", Prefix: "lambda/", Logger: zap.NewNop()}
	assets := []bundle.Asset{
		{Key: "aaa.zip", Path: "/stage/asset.aaa.zip"},
		{Key: "bbb.zip", Path: "/stage/asset.bbb.zip"},
	}

	results, err := p.Publish(context.Background(), assets)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Skipped)
	assert.Equal(t, "lambda/aaa.zip", results[0].Key)
	assert.False(t, results[1].Skipped)
	assert.Equal(t, "lambda/bbb.zip", results[1].Key)
	assert.Equal(t, []string{"lambda/bbb.zip"}, store.puts)
	assert.Equal(t, "/stage/asset.bbb.zip", store.objects["assets/lambda/bbb.zip"])
}

func TestPublish_StatError(t *testing.T) {
	store := newMemStore()
	store.statErr = errors.New("access denied")

	p := &Publisher{Store: store, Bucket: "assets"}
	_, err := p.Publish(context.Background(), []bundle.Asset{{Key: "aaa.zip"}})
	assert.ErrorContains(t, err, "access denied")
	assert.Empty(t, store.puts)
}
