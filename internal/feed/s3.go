package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3GetObjectAPI is the part of the S3 client the fetcher needs.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher reads a feed object from S3 or an S3-compatible store.
type S3Fetcher struct {
	Client S3GetObjectAPI
	Bucket string
	Key    string
}

// NewS3Client builds a client from the default credential chain. A non-empty
// endpoint selects path-style addressing for S3-compatible stores.
func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// ParseS3Location splits "s3://bucket/key".
func ParseS3Location(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", err
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Scheme != "s3" || u.Host == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 location %q: want s3://bucket/key", location)
	}
	return u.Host, key, nil
}

func (f S3Fetcher) Name() string { return "s3://" + f.Bucket + "/" + f.Key }

func (f S3Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	out, err := f.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.Bucket),
		Key:    aws.String(f.Key),
	})
	if err != nil {
		fe := &FetchError{Source: f.Name(), Err: err}
		var re *awshttp.ResponseError
		if errors.As(err, &re) {
			fe.StatusCode = re.HTTPStatusCode()
		}
		return nil, fe
	}
	defer out.Body.Close()
	data, err := io.ReadAll(io.LimitReader(out.Body, maxPayload))
	if err != nil {
		return nil, &FetchError{Source: f.Name(), Err: err}
	}
	return data, nil
}
