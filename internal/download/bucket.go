package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/media"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/pathsafe"
)

// S3ClientInterface is the part of the S3 client the bucket sink needs
type S3ClientInterface interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// StorageClient provides the underlying S3 client, as r2.Client does
type StorageClient interface {
	GetS3Client() interface{}
	GetBucketName() string
}

// BucketSink copies downloads into an S3-compatible bucket under a prefix
type BucketSink struct {
	client      *http.Client
	s3Client    S3ClientInterface
	bucket      string
	prefix      string
	thumbPrefix string
	thumbnails  bool

	// serializes key resolution and the write that claims the key
	mu sync.Mutex
}

// BucketOptions configures a BucketSink
type BucketOptions struct {
	Prefix      string
	ThumbPrefix string
	Thumbnails  bool
}

// NewBucketSink creates a bucket sink from a storage client
func NewBucketSink(httpClient *http.Client, storage StorageClient, opts BucketOptions) (*BucketSink, error) {
	s3Client := extractS3Client(storage)
	if s3Client == nil {
		return nil, errors.New("storage client has no usable S3 client")
	}
	return newBucketSink(httpClient, s3Client, storage.GetBucketName(), opts), nil
}

func newBucketSink(httpClient *http.Client, s3Client S3ClientInterface, bucket string, opts BucketOptions) *BucketSink {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &BucketSink{
		client:      httpClient,
		s3Client:    s3Client,
		bucket:      bucket,
		prefix:      normalizePrefix(opts.Prefix),
		thumbPrefix: normalizePrefix(opts.ThumbPrefix),
		thumbnails:  opts.Thumbnails,
	}
}

func extractS3Client(storage StorageClient) S3ClientInterface {
	if storage == nil {
		return nil
	}
	if s3c, ok := storage.GetS3Client().(S3ClientInterface); ok {
		return s3c
	}
	return nil
}

// RequestDownload implements Requester
func (s *BucketSink) RequestDownload(ctx context.Context, req Request) error {
	_, err := s.Save(ctx, req)
	return err
}

// Save copies req into the bucket and returns the object key used
func (s *BucketSink) Save(ctx context.Context, req Request) (string, error) {
	body, _, err := fetch(ctx, s.client, req)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		return "", &SinkError{Operation: "read", Path: req.RelativePath, Err: err}
	}

	contentType := media.TypeForPath(req.RelativePath)
	key, err := s.put(ctx, req.RelativePath, data, contentType)
	if err != nil {
		return "", err
	}
	logrus.Infof("Successfully stored %s as %s", req.RelativePath, key)

	if s.thumbnails && media.IsImageType(contentType) {
		if err := s.putThumbnail(ctx, key, data); err != nil {
			logrus.Warnf("Failed to store thumbnail for %s: %v", key, err)
		}
	}
	return key, nil
}

func (s *BucketSink) put(ctx context.Context, rel string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := s.resolveKey(ctx, rel)
	if err != nil {
		return "", err
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.s3Client.PutObject(ctx, input); err != nil {
		return "", &SinkError{Operation: "upload to bucket", Path: key, Err: err}
	}
	return key, nil
}

// resolveKey finds the first of key, "name (1).ext", ... not yet in the bucket
func (s *BucketSink) resolveKey(ctx context.Context, rel string) (string, error) {
	for i := 0; i < maxSuffix; i++ {
		key := s.prefix + pathsafe.WithSuffix(rel, i)
		exists, err := s.objectExists(ctx, key)
		if err != nil {
			return "", &SinkError{Operation: "check remote file", Path: key, Err: err}
		}
		if !exists {
			return key, nil
		}
	}
	return "", &SinkError{Operation: "check file conflict", Path: rel, Err: fmt.Errorf("no free key after %d attempts", maxSuffix)}
}

func (s *BucketSink) objectExists(ctx context.Context, key string) (bool, error) {
	_, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			return false, nil
		}

		// some providers only surface the status in the message
		if strings.Contains(err.Error(), "StatusCode: 404") ||
			strings.Contains(err.Error(), "NotFound") {
			return false, nil
		}

		return false, err
	}
	return true, nil
}

func (s *BucketSink) putThumbnail(ctx context.Context, key string, data []byte) error {
	var buf bytes.Buffer
	if err := media.WriteThumbnail(&buf, bytes.NewReader(data)); err != nil {
		return err
	}

	thumbKey := s.thumbPrefix + media.ThumbnailName(strings.TrimPrefix(key, s.prefix))
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(thumbKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return &SinkError{Operation: "upload thumbnail", Path: thumbKey, Err: err}
	}
	return nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.ReplaceAll(prefix, "\\", "/"), "/")
	if prefix == "" {
		return ""
	}
	return path.Clean(prefix) + "/"
}
