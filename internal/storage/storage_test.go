package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentengagement/api/internal/config"
)

func TestBuildPublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StorageConfig
		key  string
		want string
	}{
		{
			name: "public base wins",
			cfg:  config.StorageConfig{PublicBaseURL: "https://cdn.example.edu/qr/", Endpoint: "http://minio:9000", Bucket: "qr"},
			key:  "101_library_StudentEngagement",
			want: "https://cdn.example.edu/qr/101_library_StudentEngagement",
		},
		{
			name: "endpoint path style",
			cfg:  config.StorageConfig{Endpoint: "http://minio:9000/", Bucket: "qr"},
			key:  "101_library_StudentEngagement",
			want: "http://minio:9000/qr/101_library_StudentEngagement",
		},
		{
			name: "bare endpoint uses ssl flag",
			cfg:  config.StorageConfig{Endpoint: "storage.example.edu", Bucket: "qr", UseSSL: true},
			key:  "7_gym_StudentEngagement",
			want: "https://storage.example.edu/qr/7_gym_StudentEngagement",
		},
		{
			name: "aws virtual host",
			cfg:  config.StorageConfig{Bucket: "qr", Region: "eu-west-1"},
			key:  "7_study hall_StudentEngagement",
			want: "https://qr.s3.eu-west-1.amazonaws.com/7_study%20hall_StudentEngagement",
		},
		{
			name: "aws default region",
			cfg:  config.StorageConfig{Bucket: "qr"},
			key:  "k",
			want: "https://qr.s3.us-east-1.amazonaws.com/k",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildPublicURL(tt.cfg, tt.key))
		})
	}
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Driver: "gcs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gcs")
}

func TestNewMinioStore_ParsesEndpoint(t *testing.T) {
	store, err := NewMinioStore(config.StorageConfig{
		Endpoint:        "https://minio.example.edu:9000",
		Bucket:          "qr",
		CredentialsFile: "/nonexistent/credentials",
	})
	require.NoError(t, err)
	assert.Equal(t, "minio.example.edu:9000", store.client.EndpointURL().Host)
	assert.Equal(t, "https", store.client.EndpointURL().Scheme)
}

type fakeS3 struct {
	headErr   error
	createErr error
	putErr    error

	created *s3.CreateBucketInput
	put     *s3.PutObjectInput
	body    []byte
}

func (f *fakeS3) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func (f *fakeS3) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = in
	return &s3.CreateBucketOutput{}, f.createErr
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	return &s3.PutObjectOutput{}, f.putErr
}

func TestS3Store_Upload(t *testing.T) {
	fake := &fakeS3{}
	store := &S3Store{client: fake, cfg: config.StorageConfig{Bucket: "qr", Region: "us-east-1"}}

	url, err := store.Upload(context.Background(), "101_library_StudentEngagement", []byte("png"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "https://qr.s3.us-east-1.amazonaws.com/101_library_StudentEngagement", url)
	require.NotNil(t, fake.put)
	assert.Equal(t, "qr", aws.ToString(fake.put.Bucket))
	assert.Equal(t, "101_library_StudentEngagement", aws.ToString(fake.put.Key))
	assert.Equal(t, "image/png", aws.ToString(fake.put.ContentType))
	assert.Equal(t, types.ObjectCannedACLPublicRead, fake.put.ACL)
	assert.Equal(t, []byte("png"), fake.body)
}

func TestS3Store_UploadError(t *testing.T) {
	fake := &fakeS3{putErr: errors.New("access denied")}
	store := &S3Store{client: fake, cfg: config.StorageConfig{Bucket: "qr"}}

	_, err := store.Upload(context.Background(), "k", []byte("png"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestS3Store_EnsureBucket(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		fake := &fakeS3{}
		store := &S3Store{client: fake, cfg: config.StorageConfig{Bucket: "qr"}}

		require.NoError(t, store.EnsureBucket(context.Background()))
		assert.Nil(t, fake.created)
	})

	t.Run("creates with location", func(t *testing.T) {
		fake := &fakeS3{headErr: &types.NotFound{}}
		store := &S3Store{client: fake, cfg: config.StorageConfig{Bucket: "qr", Region: "eu-west-1"}}

		require.NoError(t, store.EnsureBucket(context.Background()))
		require.NotNil(t, fake.created)
		require.NotNil(t, fake.created.CreateBucketConfiguration)
		assert.Equal(t, types.BucketLocationConstraint("eu-west-1"), fake.created.CreateBucketConfiguration.LocationConstraint)
	})

	t.Run("already owned", func(t *testing.T) {
		fake := &fakeS3{headErr: &types.NotFound{}, createErr: &types.BucketAlreadyOwnedByYou{}}
		store := &S3Store{client: fake, cfg: config.StorageConfig{Bucket: "qr"}}

		require.NoError(t, store.EnsureBucket(context.Background()))
	})

	t.Run("create fails", func(t *testing.T) {
		fake := &fakeS3{headErr: &types.NotFound{}, createErr: errors.New("forbidden")}
		store := &S3Store{client: fake, cfg: config.StorageConfig{Bucket: "qr"}}

		assert.Error(t, store.EnsureBucket(context.Background()))
	})
}

func TestNewS3Store_LoadOptions(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	var lo awsconfig.LoadOptions
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		return aws.Config{Region: lo.Region}, nil
	}

	_, err := NewS3Store(context.Background(), config.StorageConfig{
		Driver:          DriverS3,
		CredentialsFile: "/etc/engagement/credentials",
		Profile:         "engagement",
		Bucket:          "qr",
	})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", lo.Region)
	assert.Equal(t, []string{"/etc/engagement/credentials"}, lo.SharedCredentialsFiles)
	assert.Equal(t, "engagement", lo.SharedConfigProfile)

	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("bad profile")
	}
	_, err = NewS3Store(context.Background(), config.StorageConfig{Driver: DriverS3})
	assert.Error(t, err)
}
