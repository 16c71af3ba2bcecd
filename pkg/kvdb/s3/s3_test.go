package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/lintang-b-s/osm-geocoder/pkg/kvdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func TestStoreGet(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "geocoder", "index")

	t.Run("not found", func(t *testing.T) {
		mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return *in.Bucket == "geocoder" && *in.Key == "index/country/grid/3"
		})).Return(nil, &types.NoSuchKey{}).Once()

		_, err := store.Get(context.Background(), "country/grid/3")
		assert.ErrorIs(t, err, kvdb.ErrorsKeyNotExists)
	})

	t.Run("found", func(t *testing.T) {
		mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return *in.Key == "index/country/grid/4"
		})).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader("shard")),
		}, nil).Once()

		v, err := store.Get(context.Background(), "country/grid/4")
		require.NoError(t, err)
		assert.Equal(t, []byte("shard"), v)
	})

	mockClient.AssertExpectations(t)
}

func TestStorePutBatch(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "geocoder", "index")

	seen := map[string]string{}
	mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "geocoder"
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(*s3.PutObjectInput)
		body, _ := io.ReadAll(in.Body)
		seen[*in.Key] = string(body)
	}).Return(&s3.PutObjectOutput{}, nil).Twice()

	err := store.PutBatch(context.Background(), map[string][]byte{
		"place/grid/0": []byte("a"),
		"place/grid/1": []byte("b"),
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"index/place/grid/0": "a", "index/place/grid/1": "b"}, seen)
	mockClient.AssertExpectations(t)
}
