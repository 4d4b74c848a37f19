package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"github.com/mindforge-ai/mindforge-backend/internal/platform/envutil"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/kberr"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/logger"
)

// wrapStorageErr tags bucket failures with kberr.ErrStorage so callers can
// match the class without parsing messages.
func wrapStorageErr(op, key, bucket string, err error) error {
	return fmt.Errorf("%s object %q in bucket %q: %w: %w", op, key, bucket, kberr.ErrStorage, err)
}

const (
	uploadTimeout = 2 * time.Minute
	removeTimeout = 30 * time.Second

	// removeConcurrency bounds the fan-out of a batched removal.
	removeConcurrency = 8
)

// BucketService is the object storage capability the metadata layer depends
// on. Every operation is idempotent: removing a key that no longer exists is
// a success, so a retried cleanup never turns into a new failure.
type BucketService interface {
	Upload(ctx context.Context, key string, file io.Reader) error
	RemoveOne(ctx context.Context, key string) error
	// RemoveMany removes a batch of keys in one call and returns the keys
	// that could not be removed. The error covers batch-level failures only;
	// per-key failures are reported through the first return value.
	RemoveMany(ctx context.Context, keys []string) ([]string, error)
	GetPublicURL(key string) string
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucketName    string
	cdnDomain     string
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")

	bucketName := envutil.GetEnv("KNOWLEDGE_GCS_BUCKET_NAME", "", log)
	if bucketName == "" {
		return nil, fmt.Errorf("missing env var KNOWLEDGE_GCS_BUCKET_NAME")
	}
	cdnDomain := envutil.GetEnv("KNOWLEDGE_CDN_DOMAIN", "", log)

	ctx := context.Background()
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	stClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		bucketName:    bucketName,
		cdnDomain:     cdnDomain,
	}, nil
}

func (bs *bucketService) Upload(ctx context.Context, key string, file io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := bs.storageClient.Bucket(bs.bucketName).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return wrapStorageErr("write", key, bs.bucketName, err)
	}
	if err := w.Close(); err != nil {
		return wrapStorageErr("close", key, bs.bucketName, err)
	}
	return nil
}

func (bs *bucketService) RemoveOne(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, removeTimeout)
	defer cancel()

	err := bs.storageClient.Bucket(bs.bucketName).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return wrapStorageErr("delete", key, bs.bucketName, err)
	}
	return nil
}

func (bs *bucketService) RemoveMany(ctx context.Context, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	var (
		mu     sync.Mutex
		failed []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(removeConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			if err := bs.RemoveOne(gctx, key); err != nil {
				bs.log.Warn("Batched blob removal failed for key", "key", key, "error", err)
				mu.Lock()
				failed = append(failed, key)
				mu.Unlock()
			}
			// Per-key failures are collected, not propagated: one bad key
			// must not cancel the rest of the batch.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return failed, err
	}
	sort.Strings(failed)
	return failed, nil
}

func (bs *bucketService) GetPublicURL(key string) string {
	if bs.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", bs.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucketName, key)
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if s == "" {
		return ""
	}
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".txt"), strings.HasSuffix(s, ".md"):
		return "text/plain"
	case strings.HasSuffix(s, ".html"), strings.HasSuffix(s, ".htm"):
		return "text/html"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	case strings.HasSuffix(s, ".csv"):
		return "text/csv"
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return ""
	}
}
