// Package s3catalog implements catalog.Catalog on an S3 compatible bucket.
//
// A folder is a key prefix "<prefix>/<name>/" materialized by a zero-byte
// marker object so that empty folders can be found again. File ids are
// object keys.
package s3catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sgaunet/gdsync/pkg/catalog"
	"github.com/sgaunet/gdsync/pkg/constants"
)

// ErrMissingBucket is returned when no bucket name is configured.
var ErrMissingBucket = errors.New("S3 bucket name is required")

// Options configures the S3 connection.
type Options struct {
	// Endpoint overrides the AWS endpoint, e.g. a MinIO URL. Path-style
	// addressing is used whenever it is set.
	Endpoint string
	Region   string
	Bucket   string
	// Prefix is prepended to every folder key.
	Prefix string
	// AccessKeyID and SecretAccessKey are optional static credentials.
	// The default AWS credential chain is used when they are empty.
	AccessKeyID     string
	SecretAccessKey string
}

// Catalog stores archives in an S3 bucket.
type Catalog struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	bucket     string
	region     string
	prefix     string
}

var _ catalog.Catalog = (*Catalog)(nil)

// New creates an S3 catalog. No network call is made.
func New(ctx context.Context, opts Options) (*Catalog, error) {
	if opts.Bucket == "" {
		return nil, ErrMissingBucket
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Catalog{
		client: client,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = constants.S3PartSize
			u.Concurrency = constants.S3Concurrency
		}),
		downloader: manager.NewDownloader(client, func(d *manager.Downloader) {
			d.PartSize = constants.S3PartSize
			d.Concurrency = constants.S3Concurrency
		}),
		bucket: opts.Bucket,
		region: region,
		prefix: strings.Trim(opts.Prefix, "/"),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (c *Catalog) EnsureBucket(ctx context.Context) error {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("failed to check bucket %s: %w", c.bucket, err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(c.bucket)}
	// us-east-1 rejects an explicit location constraint.
	if c.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.region),
		}
	}
	if _, err := c.client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", c.bucket, err)
	}
	return nil
}

// FindOrCreateFolder returns the key prefix of folder name, writing its marker when missing.
func (c *Catalog) FindOrCreateFolder(ctx context.Context, name string) (string, error) {
	folderID := folderKey(c.prefix, name)
	marker := folderID + "/"

	_, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(marker),
	})
	if err == nil {
		return folderID, nil
	}
	if !isNotFound(err) {
		return "", fmt.Errorf("failed to look up folder %s: %w", name, err)
	}

	_, err = c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(marker),
		Body:          strings.NewReader(""),
		ContentLength: aws.Int64(0),
		ContentType:   aws.String(constants.S3FolderMarkerContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", name, err)
	}
	return folderID, nil
}

// Upload streams r to folderID/fileName using multipart uploads for large archives.
func (c *Catalog) Upload(ctx context.Context, folderID, fileName string, r io.Reader, size int64) (string, error) {
	key := folderID + "/" + fileName
	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(constants.ArchiveMimeType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := c.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}

// FindLatest lists the objects directly under folderID and returns the most recent match.
func (c *Catalog) FindLatest(ctx context.Context, folderID, nameSubstring string) (*catalog.Ref, error) {
	listPrefix := folderID + "/"
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(listPrefix),
	})

	var refs []catalog.Ref
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list folder %s: %w", folderID, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimPrefix(key, listPrefix)
			// The folder marker and nested keys are not archives of this folder.
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			refs = append(refs, catalog.Ref{ID: key, Name: name})
		}
	}
	return catalog.Latest(refs, nameSubstring), nil
}

// Download fetches the object fileID into memory.
func (c *Catalog) Download(ctx context.Context, fileID string) ([]byte, error) {
	buf := manager.NewWriteAtBuffer([]byte{})
	_, err := c.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", fileID, err)
	}
	return buf.Bytes(), nil
}

// folderKey joins the catalog prefix and a folder name.
func folderKey(prefix, name string) string {
	name = strings.Trim(name, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) {
		return true
	}
	// Some S3 compatible servers answer HEAD requests with a bare status code.
	var apiErr interface{ ErrorCode() string }
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	return false
}
