package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/yndnr/rostervault/internal/core/domain"
	"github.com/yndnr/rostervault/internal/infra/tlsroots"
)

const (
	// ContentType is set on every uploaded blob.
	ContentType = "application/zstd"

	DefaultStorageClass = "STANDARD_IA"
	DefaultTimeout      = 60 * time.Second
)

// S3Config configures the S3 backend.
type S3Config struct {
	Bucket string
	Region string

	// Endpoint overrides the service endpoint for S3-compatible stores.
	Endpoint  string
	PathStyle bool

	StorageClass string

	// Timeout bounds each API call.
	Timeout time.Duration

	// Static credentials. When empty the SDK default chain is used.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// CAFile is a PEM bundle trusted in place of the system roots,
	// for S3-compatible stores behind a private CA.
	CAFile string
}

// S3 is a Store backed by an S3 bucket.
type S3 struct {
	client *s3.Client
	cfg    S3Config
	logger *slog.Logger
}

// NewS3 builds an S3 client from cfg and the SDK default configuration.
func NewS3(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, domain.ErrConfiguration.WithDetails("s3 bucket is required")
	}
	if cfg.Region == "" {
		return nil, domain.ErrConfiguration.WithDetails("s3 region is required")
	}
	if cfg.StorageClass == "" {
		cfg.StorageClass = DefaultStorageClass
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	if cfg.CAFile != "" {
		pool, err := tlsroots.LoadFile(cfg.CAFile)
		if err != nil {
			return nil, domain.ErrConfiguration.WithDetails("load s3 ca file").WithCause(err)
		}
		opts = append(opts, awsconfig.WithHTTPClient(
			awshttp.NewBuildableClient().WithTransportOptions(pool.ConfigureTransport)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, domain.ErrConfiguration.WithDetails("load aws config").WithCause(err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	logger.Info("s3 store configured",
		"bucket", cfg.Bucket,
		"region", cfg.Region,
		"endpoint", cfg.Endpoint,
		"storage_class", cfg.StorageClass)

	return &S3{client: client, cfg: cfg, logger: logger}, nil
}

// Put uploads data with the configured storage class.
func (s *S3) Put(ctx context.Context, key string, data []byte, meta map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(ContentType),
		StorageClass:  types.StorageClass(s.cfg.StorageClass),
		Metadata:      meta,
	})
	return classify("put", key, err)
}

// List pages through every object under prefix. Metadata is not populated.
func (s *S3) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var out []ObjectInfo
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.cfg.Bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, classify("list", prefix, err)
		}
		for _, obj := range page.Contents {
			out = append(out, ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified).UTC(),
			})
		}
	}
	return out, nil
}

// Get downloads the object body.
func (s *S3) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classify("get", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify("get", key, err)
	}
	return data, nil
}

// Head returns size, modification time and user metadata.
func (s *S3) Head(ctx context.Context, key string) (ObjectInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return ObjectInfo{}, classify("head", key, err)
	}
	return ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(resp.ContentLength),
		LastModified: aws.ToTime(resp.LastModified).UTC(),
		Metadata:     resp.Metadata,
	}, nil
}

// Delete removes key. S3 reports success for missing keys.
func (s *S3) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	return classify("delete", key, err)
}

// S3 error codes that mean the caller lacks access.
var permissionCodes = map[string]bool{
	"AccessDenied":          true,
	"AllAccessDisabled":     true,
	"AccountProblem":        true,
	"ExpiredToken":          true,
	"InvalidAccessKeyId":    true,
	"InvalidToken":          true,
	"SignatureDoesNotMatch": true,
}

var notFoundCodes = map[string]bool{
	"NoSuchKey":    true,
	"NotFound":     true,
	"NoSuchBucket": true,
}

// classify maps an SDK error onto the remote store error kinds.
func classify(op, target string, err error) error {
	if err == nil {
		return nil
	}
	details := fmt.Sprintf("%s %s", op, target)

	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return domain.ErrObjectNotFound.WithDetails(details).WithCause(err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch code := apiErr.ErrorCode(); {
		case notFoundCodes[code]:
			return domain.ErrObjectNotFound.WithDetails(details).WithCause(err)
		case permissionCodes[code]:
			return domain.ErrStorePermission.WithDetails(details).WithCause(err)
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return domain.ErrObjectNotFound.WithDetails(details).WithCause(err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.ErrStorePermission.WithDetails(details).WithCause(err)
		}
	}

	return domain.ErrStoreTransient.WithDetails(details).WithCause(err)
}
