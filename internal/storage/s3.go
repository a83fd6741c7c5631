package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/momentum/configs"
)

// S3Mirror uploads written documents to an S3 compatible bucket.
type S3Mirror struct {
	bucket   string
	prefix   string
	uploader *s3manager.Uploader
	logger   *logrus.Logger
}

// NewS3Mirror creates a mirror for cfg. A custom endpoint switches to path-style addressing.
func NewS3Mirror(cfg configs.S3Config, logger *logrus.Logger) (*S3Mirror, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Mirror{
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		uploader: s3manager.NewUploader(sess),
		logger:   logger,
	}, nil
}

// Upload copies every file to <prefix>/<dir>/<file> in the bucket.
func (m *S3Mirror) Upload(ctx context.Context, paths ...string) error {
	for _, p := range paths {
		if err := m.upload(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (m *S3Mirror) upload(ctx context.Context, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()

	key := ObjectKey(m.prefix, p)
	out, err := m.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	m.logger.WithField("location", out.Location).Infof("Mirrored %s", p)
	return nil
}

// ObjectKey keeps the parent directory of a document so sources do not collide.
func ObjectKey(prefix, p string) string {
	dir := filepath.Base(filepath.Dir(p))
	return path.Join(prefix, dir, filepath.Base(p))
}
