package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/relabs-tech/shopadmin/core/logger"
)

// S3Configuration holds the configuration for the S3 media store
type S3Configuration struct {
	AWSRegion     string `env:"AWS_REGION,required" description:"the AWS region of the media bucket"`
	AWSBucketName string `env:"AWS_BUCKET_NAME,required" description:"the name of the media bucket"`
	AccessID      string `env:"AWS_ACCESS_ID,required" description:"the AWS access id"`
	AccessKey     string `env:"AWS_ACCESS_KEY,required" description:"the AWS access key"`
	KeyPrefix     string `env:"AWS_KEY_PREFIX,default=shopadmin/" description:"prefix for all media keys"`
}

// S3 is the media store implementation for AWS S3
type S3 struct {
	config      aws.Config
	region      string
	bucket      string
	baseKeyName string
}

// NewS3 returns a new S3 media store
func NewS3(mediaConfig S3Configuration) (*S3, error) {
	if mediaConfig.AWSBucketName == "" {
		return nil, fmt.Errorf("AWSBucketName must not be empty")
	}

	cfg, err := config.LoadDefaultConfig(
		context.TODO(),
		config.WithRegion(mediaConfig.AWSRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(mediaConfig.AccessID, mediaConfig.AccessKey, "")),
	)
	if err != nil {
		return nil, err
	}
	logger.Default().Debugln("S3 media store enabled")
	s := S3{cfg, mediaConfig.AWSRegion, mediaConfig.AWSBucketName, mediaConfig.KeyPrefix}
	return &s, nil
}

// Upload puts the data into a new key object and returns its public URL
func (s *S3) Upload(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	client := s3.NewFromConfig(s.config)

	fullKey := s.baseKeyName + key
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fullKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload media, %v", err)
	}
	logger.Default().Infoln("uploaded media ", fullKey)

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, fullKey), nil
}

// Delete removes the object behind the given public URL. URLs pointing
// anywhere else than this store's bucket are rejected.
func (s *S3) Delete(ctx context.Context, url string) error {
	prefix := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.bucket, s.region)
	if !strings.HasPrefix(url, prefix) {
		return fmt.Errorf("url %s does not belong to bucket %s", url, s.bucket)
	}
	fullKey := strings.TrimPrefix(url, prefix)

	client := s3.NewFromConfig(s.config)
	_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		logger.Default().Error("could not delete ", fullKey)
		return err
	}
	logger.Default().Infoln("deleted media ", fullKey)
	return nil
}
