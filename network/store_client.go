package network

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/op/go-logging"
	"github.com/tunevault/library-services/constants"
	"github.com/tunevault/library-services/models/service"
)

/*
   Formally define the slice of the minio client we use, so we can mock
   it for testing. See https://min.io/docs/minio/linux/developers/go/API.html

   Note that we define object-level methods only. This system needs to
   list, put, stat, and delete objects. It does not need to create
   buckets or modify bucket policies, and we don't want it to even be
   able to perform those operations.
*/

type S3Client interface {
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	RemoveObjects(ctx context.Context, bucketName string, objectsCh <-chan minio.ObjectInfo, opts minio.RemoveObjectsOptions) <-chan minio.RemoveObjectError
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// StoreClient wraps the per-account S3 clients behind the small set
// of object operations the rest of the system needs: full listings,
// uploads, and single or batch deletes.
type StoreClient struct {
	clients map[string]S3Client
	buckets []*service.StorageBucket
	logger  *logging.Logger
}

// NewStoreClient returns a StoreClient over the given S3 clients and
// bucket configs. Every configured bucket must have a client for its
// provider; a bucket we can't reach would silently vanish from scans,
// so this fails instead.
func NewStoreClient(clients map[string]S3Client, buckets []*service.StorageBucket, logger *logging.Logger) (*StoreClient, error) {
	for _, b := range buckets {
		if clients[b.Provider] == nil {
			return nil, fmt.Errorf("no S3 client for provider %s (bucket account %d)", b.Provider, b.AccountNumber)
		}
	}
	return &StoreClient{
		clients: clients,
		buckets: buckets,
		logger:  logger,
	}, nil
}

// Buckets returns the configured storage buckets in account order.
func (sc *StoreClient) Buckets() []*service.StorageBucket {
	return sc.buckets
}

// AllObjects enumerates every object in every configured bucket,
// draining each listing to completion. The store listing API is
// cursor-based; a partial listing would misclassify a not-yet-seen
// valid object as an orphan, so any listing failure fails the whole
// call.
func (sc *StoreClient) AllObjects(ctx context.Context) ([]*service.StorageObject, error) {
	objects := make([]*service.StorageObject, 0)
	for _, bucket := range sc.buckets {
		client := sc.clients[bucket.Provider]
		listing := client.ListObjects(ctx, bucket.Bucket, minio.ListObjectsOptions{
			Recursive: true,
		})
		for info := range listing {
			if info.Err != nil {
				return nil, fmt.Errorf("listing bucket %s (account %d): %v",
					bucket.Bucket, bucket.AccountNumber, info.Err)
			}
			objects = append(objects, &service.StorageObject{
				Key:           info.Key,
				Size:          info.Size,
				AccountNumber: bucket.AccountNumber,
			})
		}
	}
	return objects, nil
}

// PutObject uploads content to the given bucket under the given key.
func (sc *StoreClient) PutObject(ctx context.Context, bucket *service.StorageBucket, key string, reader io.Reader, size int64, contentType string) error {
	client := sc.clients[bucket.Provider]
	if contentType == "" {
		contentType = constants.ContentTypeBinary
	}
	_, err := client.PutObject(ctx, bucket.Bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("putting %s to bucket %s: %v", key, bucket.Bucket, err)
	}
	sc.logger.Infof("Put %s/%s (%d bytes)", bucket.Bucket, key, size)
	return nil
}

// ObjectSize returns the size in bytes of the object at the given key,
// or an error if the object does not exist.
func (sc *StoreClient) ObjectSize(ctx context.Context, bucket *service.StorageBucket, key string) (int64, error) {
	client := sc.clients[bucket.Provider]
	info, err := client.StatObject(ctx, bucket.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// DeleteObject removes a single object. Deleting a key that's already
// gone is a no-op, not an error, since a prior attempt may have
// succeeded after its response was lost.
func (sc *StoreClient) DeleteObject(ctx context.Context, bucket *service.StorageBucket, key string) error {
	client := sc.clients[bucket.Provider]
	err := client.RemoveObject(ctx, bucket.Bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		if strings.Contains(err.Error(), "key does not exist") {
			sc.logger.Warningf("Object %s/%s does not exist. May have been deleted in prior run.", bucket.Bucket, key)
			return nil
		}
		sc.logger.Errorf("Attempt to delete %s/%s failed: %v", bucket.Bucket, key, err)
		return err
	}
	sc.logger.Infof("Deleted %s/%s", bucket.Bucket, key)
	return nil
}

// DeleteKeys removes the given keys from all configured buckets,
// in batches of at most constants.MaxDeleteBatchSize keys. All batches
// are issued concurrently and each batch's result is collected
// independently, so one failing batch never aborts its siblings.
//
// Because batch delete on an S3-compatible store is idempotent (keys
// that don't exist in a bucket simply aren't there afterward, with no
// error), we don't need to know which bucket holds each key. A key
// counts as deleted if no bucket reported a real error for it.
func (sc *StoreClient) DeleteKeys(ctx context.Context, keys []string) (deletedCount int, errors []*service.ProcessingError) {
	if len(keys) == 0 {
		return 0, nil
	}

	var wg sync.WaitGroup
	var mutex sync.Mutex
	failedKeys := make(map[string]bool)

	for _, bucket := range sc.buckets {
		for start := 0; start < len(keys); start += constants.MaxDeleteBatchSize {
			end := start + constants.MaxDeleteBatchSize
			if end > len(keys) {
				end = len(keys)
			}
			batch := keys[start:end]
			wg.Add(1)
			go func(bucket *service.StorageBucket, batch []string) {
				defer wg.Done()
				batchErrors := sc.deleteBatch(ctx, bucket, batch)
				mutex.Lock()
				defer mutex.Unlock()
				for _, procErr := range batchErrors {
					failedKeys[procErr.Identifier] = true
					errors = append(errors, procErr)
				}
			}(bucket, batch)
		}
	}
	wg.Wait()

	for _, key := range keys {
		if !failedKeys[key] {
			deletedCount++
		}
	}
	return deletedCount, errors
}

// deleteBatch issues one batch delete against one bucket and collects
// per-object errors. Missing keys are not errors.
func (sc *StoreClient) deleteBatch(ctx context.Context, bucket *service.StorageBucket, batch []string) []*service.ProcessingError {
	client := sc.clients[bucket.Provider]
	objectsCh := make(chan minio.ObjectInfo, len(batch))
	for _, key := range batch {
		objectsCh <- minio.ObjectInfo{Key: key}
	}
	close(objectsCh)

	procErrors := make([]*service.ProcessingError, 0)
	for removeErr := range client.RemoveObjects(ctx, bucket.Bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if removeErr.Err == nil {
			continue
		}
		if strings.Contains(removeErr.Err.Error(), "key does not exist") {
			continue
		}
		sc.logger.Errorf("Batch delete of %s/%s failed: %v",
			bucket.Bucket, removeErr.ObjectName, removeErr.Err)
		procErrors = append(procErrors, service.NewProcessingError(
			removeErr.ObjectName,
			fmt.Sprintf("delete from bucket %s: %v", bucket.Bucket, removeErr.Err),
			false,
		))
	}
	return procErrors
}
