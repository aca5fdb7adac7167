package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labelscan/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		f.body, _ = io.ReadAll(params.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_Put(t *testing.T) {
	image := &domain.LabelImage{Data: []byte("png-bytes"), ContentType: "image/png"}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	newStore := func(client putObjectAPI, publicURL string) *S3Store {
		store := newS3Store(client, Options{
			Bucket:    "labels-bucket",
			Region:    "eu-central-1",
			Prefix:    "labels",
			PublicURL: publicURL,
		})
		store.now = func() time.Time { return at }
		return store
	}

	t.Run("uploads and returns bucket URL", func(t *testing.T) {
		fake := &fakeS3{}
		store := newStore(fake, "")

		url, err := store.Put(context.Background(), "abc", image)

		require.NoError(t, err)
		assert.Equal(t, "https://labels-bucket.s3.eu-central-1.amazonaws.com/labels/2024/05/abc.png", url)
		assert.Equal(t, "labels-bucket", aws.ToString(fake.input.Bucket))
		assert.Equal(t, "labels/2024/05/abc.png", aws.ToString(fake.input.Key))
		assert.Equal(t, "image/png", aws.ToString(fake.input.ContentType))
		assert.Equal(t, []byte("png-bytes"), fake.body)
	})

	t.Run("uses public URL when configured", func(t *testing.T) {
		store := newStore(&fakeS3{}, "https://cdn.example.com/")

		url, err := store.Put(context.Background(), "k", image)

		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/labels/2024/05/k.png", url)
	})

	t.Run("wraps upload errors", func(t *testing.T) {
		store := newStore(&fakeS3{err: errors.New("access denied")}, "")

		_, err := store.Put(context.Background(), "k", image)

		assert.ErrorIs(t, err, domain.ErrStorageFailure)
	})

	t.Run("rejects empty image", func(t *testing.T) {
		store := newStore(&fakeS3{}, "")

		_, err := store.Put(context.Background(), "k", &domain.LabelImage{})

		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		contentType string
		want        string
	}{
		{"jpeg", "image/jpeg", "labels/2024/05/job-1.jpg"},
		{"png", "image/png", "labels/2024/05/job-1.png"},
		{"unknown subtype", "image/x-label", "labels/2024/05/job-1.x-label"},
		{"no type", "", "labels/2024/05/job-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectKey("labels", "job-1", tt.contentType, at))
		})
	}
}
