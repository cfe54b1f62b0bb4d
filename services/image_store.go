package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/juju/errors"

	"foodwagen/utils"
)

// ImageStore keeps uploaded food images and restaurant logos and returns
// the public URL to put in a food item.
type ImageStore interface {
	Upload(ctx context.Context, dataURL, folder string) (string, error)
}

// ObjectPutter is the slice of the S3 API the image store needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3ImageStore struct {
	client  ObjectPutter
	bucket  string
	baseURL string
}

// NewS3ImageStore uses client to write to bucket. Public URLs are built from
// baseURL (for example a CloudFront domain), or the bucket's S3 URL when empty.
func NewS3ImageStore(client ObjectPutter, bucket, region, baseURL string) *S3ImageStore {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3ImageStore{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

// NewS3ImageStoreFromEnv loads the default AWS credential chain.
func NewS3ImageStoreFromEnv(ctx context.Context, bucket, region, baseURL string) (*S3ImageStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errors.Annotate(err, "loading AWS config for S3")
	}
	return NewS3ImageStore(s3.NewFromConfig(cfg), bucket, region, baseURL), nil
}

func (s *S3ImageStore) Upload(ctx context.Context, dataURL, folder string) (string, error) {
	img, err := utils.ParseBase64DataURL(dataURL)
	if err != nil {
		return "", errors.Trace(err)
	}
	key := fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.NewString(), img.Ext())

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", errors.Annotatef(err, "uploading %s to S3", key)
	}
	logger.Infof("uploaded image %s (%d bytes)", key, len(img.Data))
	return s.baseURL + "/" + key, nil
}
