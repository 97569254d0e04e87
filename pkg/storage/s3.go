package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client is the slice of the S3 API that S3Store calls. *s3.Client
// satisfies it; tests substitute an in-memory fake.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store is a FileStore on an S3-compatible bucket (AWS, MinIO, R2).
// The order archive mirror and `tably orders export` write through
// it. Paths map to object keys under an optional prefix; the client
// carries its own credentials, region, and endpoint.
type S3Store struct {
	client S3Client
	bucket string
	prefix string
}

var _ FileStore = (*S3Store)(nil)

// NewS3 returns a store writing under prefix in bucket. An empty
// prefix addresses the whole bucket.
func NewS3(client S3Client, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// object maps a store path to its bucket key.
func (s *S3Store) object(path string) *string {
	if s.prefix != "" {
		path = s.prefix + "/" + path
	}
	return aws.String(path)
}

// Read streams the named object. The error wraps os.ErrNotExist when
// the key is absent.
func (s *S3Store) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.object(path),
	})
	switch {
	case isMissing(err):
		return nil, fmt.Errorf("storage: read %s: %w", path, os.ErrNotExist)
	case err != nil:
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return out.Body, nil
}

// Write streams data to a background PutObject through a pipe. The
// caller must Close to finish the upload; Close blocks until the
// upload settles and returns its error. S3 publishes the object only
// on success, so the write is atomic at the object level.
func (s *S3Store) Write(ctx context.Context, path string) (io.WriteCloser, error) {
	pr, pw := io.Pipe()
	up := &upload{pipe: pw, settled: make(chan struct{})}
	go func() {
		defer close(up.settled)
		_, up.err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    s.object(path),
			Body:   pr,
		})
		// A failed upload must also release writers blocked on the pipe.
		pr.CloseWithError(up.err)
	}()
	return up, nil
}

// Delete removes the object. S3 treats deleting a missing key as
// success, so Delete is idempotent without extra handling.
func (s *S3Store) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.object(path),
	})
	return err
}

// Exists probes the key with HeadObject.
func (s *S3Store) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.object(path),
	})
	switch {
	case isMissing(err):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// List pages through ListObjectsV2 and returns the store-relative
// paths under prefix, sorted.
func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	var token *string
	for {
		page, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            s.object(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			rel := *obj.Key
			if s.prefix != "" {
				rel = strings.TrimPrefix(rel, s.prefix+"/")
			}
			out = append(out, rel)
		}
		if page.IsTruncated == nil || !*page.IsTruncated {
			break
		}
		token = page.NextContinuationToken
	}
	sort.Strings(out)
	return out, nil
}

// upload adapts a background PutObject to io.WriteCloser.
type upload struct {
	pipe    *io.PipeWriter
	settled chan struct{}
	err     error
}

func (u *upload) Write(p []byte) (int, error) {
	return u.pipe.Write(p)
}

// Close sends EOF to the upload body and waits for PutObject to
// settle.
func (u *upload) Close() error {
	u.pipe.Close()
	<-u.settled
	return u.err
}

// isMissing reports whether err is S3's flavor of not-found.
func isMissing(err error) bool {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return false
	}
	code := ae.ErrorCode()
	return code == "NoSuchKey" || code == "NotFound"
}
