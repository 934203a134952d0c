package assetstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"
)

// Mirror backends.
const (
	BackendFS     = "fs"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// mirrorPrefix namespaces blobs inside the mirror store.
const mirrorPrefix = "emotes"

// Mirror is a shared, secondary blob tier consulted before the CDN.
type Mirror interface {
	// Fetch returns the blob stored under rel. ok is false when absent.
	Fetch(ctx context.Context, rel string) (data []byte, ok bool, err error)
	// Put stores data under rel.
	Put(ctx context.Context, rel string, data []byte) error
}

// LodeMirror is a Mirror on a lode store.
// The store is created lazily from the factory on first use.
type LodeMirror struct {
	backend string
	factory lode.StoreFactory

	once     sync.Once
	store    lode.Store
	storeErr error
}

// NewLodeMirror creates a mirror over an arbitrary lode store factory.
func NewLodeMirror(backend string, factory lode.StoreFactory) *LodeMirror {
	return &LodeMirror{backend: backend, factory: factory}
}

// NewFSMirror creates a mirror rooted at a directory, typically a shared mount.
func NewFSMirror(root string) *LodeMirror {
	return NewLodeMirror(BackendFS, lode.NewFSFactory(root))
}

// NewMemoryMirror creates an in-process mirror.
func NewMemoryMirror() *LodeMirror {
	return NewLodeMirror(BackendMemory, lode.NewMemoryFactory())
}

// Backend names the mirror's storage backend.
func (m *LodeMirror) Backend() string {
	return m.backend
}

func (m *LodeMirror) getOrCreateStore() (lode.Store, error) {
	m.once.Do(func() {
		m.store, m.storeErr = m.factory()
	})
	return m.store, m.storeErr
}

// Fetch implements Mirror.
func (m *LodeMirror) Fetch(ctx context.Context, rel string) ([]byte, bool, error) {
	key := mirrorKey(rel)
	store, err := m.getOrCreateStore()
	if err != nil {
		return nil, false, wrap("mirror_init", m.backend, err)
	}

	ok, err := store.Exists(ctx, key)
	if err != nil {
		return nil, false, wrap("mirror_stat", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, false, wrap("mirror_get", key, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, wrap("mirror_get", key, err)
	}
	return data, true, nil
}

// Put implements Mirror.
func (m *LodeMirror) Put(ctx context.Context, rel string, data []byte) error {
	key := mirrorKey(rel)
	store, err := m.getOrCreateStore()
	if err != nil {
		return wrap("mirror_init", m.backend, err)
	}
	if err := store.Put(ctx, key, bytes.NewReader(data)); err != nil {
		return wrap("mirror_put", key, err)
	}
	return nil
}

// mirrorKey maps a cache-relative path to a slash-separated store key.
func mirrorKey(rel string) string {
	return path.Join(mirrorPrefix, filepath.ToSlash(rel))
}

// S3Config holds configuration for the S3 mirror backend.
type S3Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Prefix is the key prefix within the bucket (optional).
	Prefix string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. Cloudflare R2, MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not subdomain).
	UsePathStyle bool
}

// Validate checks that required S3 configuration is present.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	return nil
}

// ParseS3Path parses a path in format "bucket/prefix" or "bucket".
func ParseS3Path(p string) (bucket, prefix string) {
	bucket, prefix, _ = strings.Cut(p, "/")
	return bucket, prefix
}

// NewS3Mirror creates a mirror on S3 or an S3-compatible service.
// Uses the AWS SDK default credential chain (env vars, shared config, IAM role).
func NewS3Mirror(ctx context.Context, s3cfg S3Config) (*LodeMirror, error) {
	if err := s3cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if s3cfg.Region != "" {
		opts = append(opts, config.WithRegion(s3cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, wrap("mirror_init", s3cfg.Bucket, fmt.Errorf("load AWS config: %w", err))
	}

	var s3Opts []func(*s3.Options)
	if s3cfg.Endpoint != "" {
		endpoint := s3cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if s3cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	client := s3.NewFromConfig(awsConfig, s3Opts...)

	factory := func() (lode.Store, error) {
		return lodes3.New(client, lodes3.Config{
			Bucket: s3cfg.Bucket,
			Prefix: s3cfg.Prefix,
		})
	}
	return NewLodeMirror(BackendS3, factory), nil
}

// Verify LodeMirror implements Mirror.
var _ Mirror = (*LodeMirror)(nil)
