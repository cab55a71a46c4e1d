package feed

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	body  string
	err   error
	input *s3.GetObjectInput
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestS3Fetcher(t *testing.T) {
	client := &fakeS3{body: feedJSON}
	l := NewLoader(Blob{Fetcher: S3Fetcher{Client: client, Bucket: "parts", Key: "data/listings.json"}, Decode: DecodeJSON}, nil, 0)

	res := l.Load(context.Background())
	require.NoError(t, res.Err)
	assert.Len(t, res.Listings, 4)
	assert.Equal(t, "parts", aws.ToString(client.input.Bucket))
	assert.Equal(t, "data/listings.json", aws.ToString(client.input.Key))
	assert.Equal(t, "s3://parts/data/listings.json", l.Source())
}

func TestS3FetcherError(t *testing.T) {
	client := &fakeS3{err: errors.New("access denied")}
	_, err := S3Fetcher{Client: client, Bucket: "b", Key: "k"}.Fetch(context.Background())
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "s3://b/k", fe.Source)
}

func TestParseS3Location(t *testing.T) {
	bucket, key, err := ParseS3Location("s3://parts/feeds/listings.json")
	require.NoError(t, err)
	assert.Equal(t, "parts", bucket)
	assert.Equal(t, "feeds/listings.json", key)

	for _, bad := range []string{"https://parts/x", "s3://parts", "s3:///key"} {
		_, _, err := ParseS3Location(bad)
		assert.Error(t, err, bad)
	}
}
