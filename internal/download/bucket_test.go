package download

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockS3Client 用于模拟 S3 客户端
type MockS3Client struct {
	mock.Mock
	bodies map[string][]byte
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if params.Body != nil {
		data, _ := io.ReadAll(params.Body)
		if m.bodies == nil {
			m.bodies = make(map[string][]byte)
		}
		m.bodies[aws.ToString(params.Key)] = data
	}
	args := m.Called(ctx, params)
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *MockS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*s3.HeadObjectOutput), args.Error(1)
}

// MockStorageClient 用于模拟存储客户端
type MockStorageClient struct {
	s3Client *MockS3Client
}

func (m *MockStorageClient) GetS3Client() interface{} {
	if m.s3Client == nil {
		return nil
	}
	return m.s3Client
}

func (m *MockStorageClient) GetBucketName() string {
	return "comfy"
}

// MockNotFoundError 模拟 404 错误
type MockNotFoundError struct{}

func (e *MockNotFoundError) Error() string {
	return "NotFound: StatusCode: 404"
}

func keyIs(key string) interface{} {
	return mock.MatchedBy(func(in *s3.HeadObjectInput) bool { return aws.ToString(in.Key) == key })
}

func putKeyIs(key string) interface{} {
	return mock.MatchedBy(func(in *s3.PutObjectInput) bool { return aws.ToString(in.Key) == key })
}

func TestBucketSink_Save(t *testing.T) {
	server := newAssetServer(t, map[string][]byte{"a.png": []byte("pixels")})
	mockS3 := &MockS3Client{}
	mockS3.On("HeadObject", mock.Anything, keyIs("output/x/a.png")).Return((*s3.HeadObjectOutput)(nil), &MockNotFoundError{})
	mockS3.On("PutObject", mock.Anything, putKeyIs("output/x/a.png")).Return(&s3.PutObjectOutput{}, nil)

	sink, err := NewBucketSink(server.Client(), &MockStorageClient{s3Client: mockS3}, BucketOptions{Prefix: "/output"})
	require.NoError(t, err)

	key, err := sink.Save(context.Background(), Request{URL: server.URL + "/view?filename=a.png", RelativePath: "x/a.png"})
	require.NoError(t, err)

	assert.Equal(t, "output/x/a.png", key)
	assert.Equal(t, []byte("pixels"), mockS3.bodies["output/x/a.png"])
	mockS3.AssertExpectations(t)
}

func TestBucketSink_ResolvesConflicts(t *testing.T) {
	server := newAssetServer(t, map[string][]byte{"a.png": []byte("pixels")})
	mockS3 := &MockS3Client{}
	mockS3.On("HeadObject", mock.Anything, keyIs("out/a.png")).Return(&s3.HeadObjectOutput{}, nil)
	mockS3.On("HeadObject", mock.Anything, keyIs("out/a (1).png")).Return(&s3.HeadObjectOutput{}, nil)
	mockS3.On("HeadObject", mock.Anything, keyIs("out/a (2).png")).Return((*s3.HeadObjectOutput)(nil), &MockNotFoundError{})
	mockS3.On("PutObject", mock.Anything, putKeyIs("out/a (2).png")).Return(&s3.PutObjectOutput{}, nil)

	sink := newBucketSink(server.Client(), mockS3, "comfy", BucketOptions{Prefix: "out"})
	key, err := sink.Save(context.Background(), Request{URL: server.URL + "/view?filename=a.png", RelativePath: "a.png"})
	require.NoError(t, err)

	assert.Equal(t, "out/a (2).png", key)
	mockS3.AssertNumberOfCalls(t, "HeadObject", 3)
}

func TestBucketSink_HeadFailure(t *testing.T) {
	server := newAssetServer(t, map[string][]byte{"a.png": []byte("pixels")})
	mockS3 := &MockS3Client{}
	mockS3.On("HeadObject", mock.Anything, mock.Anything).Return((*s3.HeadObjectOutput)(nil), errors.New("access denied"))

	sink := newBucketSink(server.Client(), mockS3, "comfy", BucketOptions{})
	err := sink.RequestDownload(context.Background(), Request{URL: server.URL + "/view?filename=a.png", RelativePath: "a.png"})

	var sinkErr *SinkError
	require.ErrorAs(t, err, &sinkErr)
	assert.Equal(t, "check remote file", sinkErr.Operation)
	mockS3.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
}

func TestBucketSink_Thumbnail(t *testing.T) {
	server := newAssetServer(t, map[string][]byte{"wide.png": pngBytes(t, 600, 300)})
	mockS3 := &MockS3Client{}
	mockS3.On("HeadObject", mock.Anything, mock.Anything).Return((*s3.HeadObjectOutput)(nil), &MockNotFoundError{})
	mockS3.On("PutObject", mock.Anything, mock.Anything).Return(&s3.PutObjectOutput{}, nil)

	sink := newBucketSink(server.Client(), mockS3, "comfy", BucketOptions{Prefix: "output", ThumbPrefix: "thumbs", Thumbnails: true})
	_, err := sink.Save(context.Background(), Request{URL: server.URL + "/view?filename=wide.png", RelativePath: "r/wide.png"})
	require.NoError(t, err)

	assert.Contains(t, mockS3.bodies, "output/r/wide.png")
	assert.NotEmpty(t, mockS3.bodies["thumbs/r/wide.jpg"])
	mockS3.AssertNumberOfCalls(t, "PutObject", 2)
}

func TestNewBucketSink_NoClient(t *testing.T) {
	_, err := NewBucketSink(nil, &MockStorageClient{}, BucketOptions{})
	assert.Error(t, err)
}

func TestNormalizePrefix(t *testing.T) {
	assert.Equal(t, "", normalizePrefix(""))
	assert.Equal(t, "", normalizePrefix("/"))
	assert.Equal(t, "output/", normalizePrefix("output"))
	assert.Equal(t, "a/b/", normalizePrefix("\\a\\b\\"))
}
