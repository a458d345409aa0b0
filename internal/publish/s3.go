package publish

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"akleg-data/internal/components/assert"
	"akleg-data/internal/components/telemetry"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// S3Config is optional, an empty bucket disables the upload.
type S3Config struct {
	Bucket   string `json:"bucket"`
	Prefix   string `json:"prefix"`
	Region   string `json:"region"`
	Endpoint string `json:"endpoint"`
	// path style addressing, required by most self hosted s3 implementations
	PathStyle bool `json:"path_style"`
	// falls back to the default credential chain when empty
	AccessKeyId     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// PutObjectAPI is the part of *s3.Client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Uploader struct {
	client PutObjectAPI
	config S3Config
	tel    telemetry.API
}

// NewS3Client builds a client from the config and the default aws configuration sources.
func NewS3Client(ctx context.Context, c S3Config) (*s3.Client, error) {
	region := c.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if c.AccessKeyId != "" {
		opts = append(opts, config.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     c.AccessKeyId,
					SecretAccessKey: c.SecretAccessKey,
					Source:          "akleg config",
				}, nil
			},
		)))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.UsePathStyle = c.PathStyle
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
	}), nil
}

func NewS3Uploader(client PutObjectAPI, c S3Config, tel telemetry.API) *S3Uploader {
	assert.NotNil(client)
	assert.NotNil(tel)
	return &S3Uploader{
		client: client,
		config: c,
		tel:    telemetry.NewScopedAPI("publish", tel),
	}
}

func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".csv":
		return "text/csv"
	case ".parquet":
		return "application/vnd.apache.parquet"
	case ".db":
		return "application/vnd.sqlite3"
	case ".json":
		return "application/json"
	}
	return "application/octet-stream"
}

// Key returns the object key of a file relative to the export directory.
func (u *S3Uploader) Key(branch, rel string) string {
	return path.Join(strings.Trim(u.config.Prefix, "/"), branch, filepath.ToSlash(rel))
}

// Upload puts every file under dir at <prefix>/<branch>/<relative path>, it returns the keys written.
func (u *S3Uploader) Upload(ctx context.Context, dir, branch string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "S3Uploader.Upload")
	defer span.End()
	span.SetAttributes(
		attribute.String("bucket", u.config.Bucket),
		attribute.String("branch", branch),
	)

	var keys []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !d.Type().IsRegular() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		key := u.Key(branch, rel)
		err = u.put(ctx, p, key)
		if err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		u.tel.ReportBroken(report_s3_put, err, u.config.Bucket)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return keys, err
	}
	return keys, nil
}

func (u *S3Uploader) put(ctx context.Context, p, key string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	u.tel.ReportDebug("put object", key, info.Size())
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.config.Bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType(p)),
	})
	return err
}
