package imagestore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucon/glucon-api/application/port/outbound"
)

type fakeS3 struct {
	objects      map[string][]byte
	contentTypes map[string]string
	putErr       error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(params.Bucket) + "/" + aws.ToString(params.Key)
	f.objects[key] = data
	f.contentTypes[key] = aws.ToString(params.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(params.Bucket) + "/" + aws.ToString(params.Key)
	data, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(strings.NewReader(string(data))),
		ContentType: aws.String(f.contentTypes[key]),
	}, nil
}

func TestS3ImageStore_SaveAndOpen(t *testing.T) {
	client := newFakeS3()
	store := newS3ImageStore(client, "recipes", "")
	ctx := context.Background()

	name, err := store.Save(ctx, "soup.jpg", "", strings.NewReader("jpeg"))
	require.NoError(t, err)

	_, ok := client.objects["recipes/images/"+name]
	assert.True(t, ok)
	assert.Equal(t, "image/jpeg", client.contentTypes["recipes/images/"+name])

	rc, contentType, err := store.Open(ctx, name)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
	assert.Equal(t, "image/jpeg", contentType)
}

func TestS3ImageStore_OpenMissing(t *testing.T) {
	store := newS3ImageStore(newFakeS3(), "recipes", "img/")

	_, _, err := store.Open(context.Background(), "missing.png")
	assert.ErrorIs(t, err, outbound.ErrImageNotFound)

	_, _, err = store.Open(context.Background(), "../missing.png")
	assert.ErrorIs(t, err, outbound.ErrImageNotFound)
}

func TestS3ImageStore_SaveFailure(t *testing.T) {
	client := newFakeS3()
	client.putErr = errors.New("access denied")
	store := newS3ImageStore(client, "recipes", "")

	_, err := store.Save(context.Background(), "soup.jpg", "image/jpeg", strings.NewReader("jpeg"))
	assert.ErrorContains(t, err, "access denied")
}
