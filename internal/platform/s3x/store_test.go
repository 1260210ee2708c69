package s3x

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/assets-backend/internal/platform/blobstore"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

type memS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	ctypes  map[string]string
}

func newMemS3() *memS3 {
	return &memS3{objects: map[string][]byte{}, ctypes: map[string]string{}}
}

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[aws.ToString(in.Key)] = b
	m.ctypes[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (m *memS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (m *memS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (m *memS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := []string{}
	for k := range m.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	api := newMemS3()
	store := NewWithAPI(logger.Nop(), api, "assets")

	require.NoError(t, store.Put(ctx, "upload/images/2024/01/02/x/a-original.jpg", strings.NewReader("A"), 1, ""))
	require.NoError(t, store.Put(ctx, "upload/images/2024/01/02/x/a-thumbnail.jpg", strings.NewReader("T"), 1, ""))
	require.NoError(t, store.Put(ctx, "upload/images/2024/01/02/y/b-original.jpg", strings.NewReader("B"), 1, ""))
	require.Equal(t, "image/jpeg", api.ctypes["upload/images/2024/01/02/x/a-original.jpg"])

	rc, err := store.Get(ctx, "upload/images/2024/01/02/x/a-original.jpg")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.Equal(t, "A", string(body))

	require.NoError(t, store.DeletePrefix(ctx, "upload/images/2024/01/02/x"))
	ok, err := store.Exists(ctx, "upload/images/2024/01/02/x/a-thumbnail.jpg")
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = store.Exists(ctx, "upload/images/2024/01/02/y/b-original.jpg")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = store.Get(ctx, "upload/images/2024/01/02/x/a-original.jpg")
	require.True(t, errors.Is(err, blobstore.ErrNotFound))
	require.NoError(t, store.Delete(ctx, "upload/images/2024/01/02/x/a-original.jpg"))
}

func TestStoreRejectsBadKeys(t *testing.T) {
	store := NewWithAPI(logger.Nop(), newMemS3(), "assets")
	err := store.Put(context.Background(), "../x", strings.NewReader(""), 0, "")
	require.True(t, errors.Is(err, blobstore.ErrInvalidKey))
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), logger.Nop(), Config{Region: "us-east-1"})
	require.Error(t, err)
}
