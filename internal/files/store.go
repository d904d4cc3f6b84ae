// Package files uploads user documents to object storage and lists them.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cardialink/portal-api/pkg/logging"
)

// ErrUnsupportedFileType is returned when a filename's extension is outside
// the allowlist. The caller corrects the input and retries.
var ErrUnsupportedFileType = errors.New("files: unsupported file type")

// allowedExtensions is the upload allowlist: scan images, DICOM files and
// reports.
var allowedExtensions = []string{".jpg", ".jpeg", ".png", ".dcm", ".pdf"}

// IsAllowed reports whether the filename's extension is on the allowlist.
// Matching is case-insensitive.
func IsAllowed(filename string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range allowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// AllowedExtensions returns a copy of the upload allowlist.
func AllowedExtensions() []string {
	out := make([]string, len(allowedExtensions))
	copy(out, allowedExtensions)
	return out
}

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Record describes one uploaded object.
type Record struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	PublicURL    string    `json:"public_url"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Store uploads user files to the public user-files bucket. Objects are
// keyed uploads/<ownerID>/<timestamp>_<filename> so uploads never collide
// and listing can be scoped per user.
type Store struct {
	bucket   string
	region   string
	endpoint string
	s3Client S3API
	logger   *logging.Logger
	now      func() time.Time
}

// NewStore creates a file Store. endpoint overrides the public URL host for
// local S3-compatible backends; leave it empty for AWS.
func NewStore(s3Client S3API, bucket, region, endpoint string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		bucket:   bucket,
		region:   region,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		s3Client: s3Client,
		logger:   logger,
		now:      time.Now,
	}
}

// Key builds the namespaced object key for an upload.
func (s *Store) Key(ownerID, filename string) string {
	return fmt.Sprintf("uploads/%s/%d_%s", ownerID, s.now().UnixMilli(), filename)
}

// PublicURL derives the object's public URL from bucket and key. No
// signing is involved: links only resolve if the bucket is public-readable.
func (s *Store) PublicURL(key string) string {
	if s.endpoint != "" {
		u := url.URL{Path: "/" + s.bucket + "/" + key}
		return s.endpoint + u.EscapedPath()
	}
	u := url.URL{
		Scheme: "https",
		Host:   fmt.Sprintf("%s.s3.%s.amazonaws.com", s.bucket, s.region),
		Path:   "/" + key,
	}
	return u.String()
}

// Upload validates the filename against the allowlist and writes the object.
func (s *Store) Upload(ctx context.Context, ownerID, filename string, body io.Reader) (*Record, error) {
	if !IsAllowed(filename) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filename)
	}

	key := s.Key(ownerID, filename)
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentTypeFor(filename)),
	})
	if err != nil {
		return nil, fmt.Errorf("files: s3 put %s: %w", key, err)
	}

	s.logger.Info("uploaded user file",
		"owner_id", ownerID,
		"key", key,
	)

	return &Record{
		Name:      filename,
		Path:      key,
		PublicURL: s.PublicURL(key),
	}, nil
}

// List returns the owner's uploads, newest first. An owner with no uploads
// gets an empty slice, not an error.
func (s *Store) List(ctx context.Context, ownerID string) ([]Record, error) {
	prefix := fmt.Sprintf("uploads/%s/", ownerID)
	out := []Record{}

	var token *string
	for {
		resp, err := s.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("files: s3 list %s: %w", prefix, err)
		}
		for _, obj := range resp.Contents {
			key := aws.ToString(obj.Key)
			rec := Record{
				Name:      path.Base(key),
				Path:      key,
				PublicURL: s.PublicURL(key),
			}
			if obj.Size != nil {
				rec.Size = *obj.Size
			}
			if obj.LastModified != nil {
				rec.LastModified = *obj.LastModified
			}
			out = append(out, rec)
		}
		if resp.IsTruncated == nil || !*resp.IsTruncated {
			break
		}
		token = resp.NextContinuationToken
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastModified.After(out[j].LastModified)
	})
	return out, nil
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".dcm":
		return "application/dicom"
	default:
		return "application/octet-stream"
	}
}
