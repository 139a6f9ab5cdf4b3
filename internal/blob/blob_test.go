package blob

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSource(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "resumes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "resumes", "cv.txt"), []byte("hello"), 0o644))

	src := NewLocalSource(root)
	ctx := context.Background()

	data, err := src.Fetch(ctx, "resumes/cv.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	data, err = src.Fetch(ctx, "../resumes/cv.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = src.Fetch(ctx, "resumes/missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, src.Delete(ctx, "resumes/cv.txt"))
	require.NoError(t, src.Delete(ctx, "resumes/cv.txt"))
	_, err = src.Fetch(ctx, "resumes/cv.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

type fakeObjects struct {
	objects map[string]string
	deleted []string
	err     error
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, *in.Key)
	return &s3.DeleteObjectOutput{}, f.err
}

func TestObjectSource(t *testing.T) {
	api := &fakeObjects{objects: map[string]string{"u1/cv.pdf": "%PDF"}}
	src := NewObjectSource(api, "resumes")
	ctx := context.Background()

	data, err := src.Fetch(ctx, "u1/cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	_, err = src.Fetch(ctx, "u1/none.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, src.Delete(ctx, "u1/cv.pdf"))
	assert.Equal(t, []string{"u1/cv.pdf"}, api.deleted)

	api.err = errors.New("connection reset")
	_, err = src.Fetch(ctx, "u1/cv.pdf")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
