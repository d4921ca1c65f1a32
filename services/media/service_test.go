package media

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"chamber122/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	fail    error
	keys    []string
	removed []string
}

func (f *fakeStorage) PresignPut(_ context.Context, key string) (*url.URL, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.keys = append(f.keys, key)
	return url.Parse("https://files.example.com/media/" + key + "?X-Amz-Signature=abc")
}

func (f *fakeStorage) PublicURL(key string) string { return "https://cdn.example.com/" + key }

func (f *fakeStorage) Bucket() string { return "media" }

func (f *fakeStorage) RemovePrefix(_ context.Context, prefix string) (int, error) {
	if f.fail != nil {
		return 0, f.fail
	}
	kept := f.keys[:0]
	n := 0
	for _, k := range f.keys {
		if strings.HasPrefix(k, prefix) {
			f.removed = append(f.removed, k)
			n++
			continue
		}
		kept = append(kept, k)
	}
	f.keys = kept
	return n, nil
}

func newTestService(t *testing.T, storage *fakeStorage) *Service {
	t.Helper()
	node, err := snowflake.NewNode(4)
	require.NoError(t, err)
	p := ServiceParams{Node: node}
	if storage != nil {
		p.Storage = storage
	}
	return NewService(p)
}

func TestPresign(t *testing.T) {
	storage := &fakeStorage{}
	svc := newTestService(t, storage)

	up, err := svc.Presign(context.Background(), "u1", PresignRequest{
		Purpose: PurposeCover, FileName: "Summer Market Poster.PNG", ContentType: "image/png",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(up.ObjectKey, "cover/u1/"))
	require.True(t, strings.HasSuffix(up.ObjectKey, "-summer-market-poster.png"))
	require.Equal(t, "https://cdn.example.com/"+up.ObjectKey, up.PublicURL)
	require.Contains(t, up.UploadURL, "X-Amz-Signature")
	require.Equal(t, []string{up.ObjectKey}, storage.keys)
}

func TestPresignRejectsNonImages(t *testing.T) {
	svc := newTestService(t, &fakeStorage{})
	_, err := svc.Presign(context.Background(), "u1", PresignRequest{Purpose: PurposeLogo, FileName: "a.exe", ContentType: "application/octet-stream"})
	require.True(t, errutil.Is(err, errutil.StatusUnsupportedMediaType))
}

func TestPresignWithoutStorage(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.Presign(context.Background(), "u1", PresignRequest{Purpose: PurposeLogo, FileName: "a.png", ContentType: "image/png"})
	require.True(t, errutil.Is(err, errutil.StatusNotImplemented))
}

func TestPresignStorageFailure(t *testing.T) {
	svc := newTestService(t, &fakeStorage{fail: errors.New("boom")})
	_, err := svc.Presign(context.Background(), "u1", PresignRequest{Purpose: PurposeLogo, FileName: "a.png", ContentType: "image/png"})
	require.True(t, errutil.Is(err, errutil.StatusBadGateway))
}

func TestPurgeOwnerRemovesOnlyThatUsersUploads(t *testing.T) {
	storage := &fakeStorage{}
	svc := newTestService(t, storage)
	ctx := context.Background()

	_, err := svc.Presign(ctx, "user-1", PresignRequest{Purpose: PurposeCover, FileName: "a.png", ContentType: "image/png"})
	require.NoError(t, err)
	_, err = svc.Presign(ctx, "user-1", PresignRequest{Purpose: PurposeLogo, FileName: "b.png", ContentType: "image/png"})
	require.NoError(t, err)
	_, err = svc.Presign(ctx, "user-10", PresignRequest{Purpose: PurposeCover, FileName: "c.png", ContentType: "image/png"})
	require.NoError(t, err)

	n, err := svc.PurgeOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Len(t, storage.keys, 1)
	require.True(t, strings.HasPrefix(storage.keys[0], "cover/user-10/"))

	_, err = svc.PurgeOwner(ctx, " ")
	require.True(t, errutil.Is(err, errutil.StatusBadRequest))
}

func TestPurgeOwnerWithoutStorage(t *testing.T) {
	svc := newTestService(t, nil)
	n, err := svc.PurgeOwner(context.Background(), "user-1")
	require.NoError(t, err)
	require.Zero(t, n)
}
