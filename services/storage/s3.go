// Package storagesvc stores uploaded media (video thumbnails) on S3.
package storagesvc

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

type S3Uploader struct {
	uploader *manager.Uploader
	bucket   string
	region   string
}

func NewS3Uploader(ctx context.Context, conf *core.Config) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(conf.Storage.Region),
	}
	// fall back to the default credential chain when no static keys are set
	if conf.Storage.AccessKeyID != "" && conf.Storage.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.Storage.AccessKeyID, conf.Storage.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3Uploader{
		uploader: manager.NewUploader(client),
		bucket:   conf.Storage.Bucket,
		region:   conf.Storage.Region,
	}, nil
}

// Upload stores the object and returns its public URL.
func (u *S3Uploader) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        body,
	})
	if err != nil {
		return "", errors.Wrap(err, "uploading object")
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key), nil
}
