package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/dto"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func pngUpload() Upload {
	body := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 64)...)
	return Upload{Filename: `C:\fotos\fachada.png`, Size: int64(len(body)), Body: bytes.NewReader(body)}
}

func uploadFixture() (UploadService, *MockImageRepository, *memStorage, *domain.Property) {
	p := &domain.Property{ID: "prop-1", TenantID: "tenant-1", Code: "C-1"}
	images := &MockImageRepository{}
	files := newMemStorage()
	return NewUploadService(NewMockPropertyRepository(p), images, files, 1024), images, files, p
}

func TestUploadService_Upload(t *testing.T) {
	svc, _, files, p := uploadFixture()
	ctx := context.Background()

	first, err := svc.Upload(ctx, "tenant-1", p.ID, pngUpload())
	require.NoError(t, err)
	assert.Equal(t, "image/png", first.ContentType)
	assert.Equal(t, "fachada.png", first.Filename)
	assert.True(t, strings.HasPrefix(first.Path, "tenant-1/prop-1/"))
	assert.True(t, strings.HasSuffix(first.Path, ".png"))
	assert.Equal(t, "/uploads/"+first.Path, first.URL)
	assert.True(t, first.IsCover, "first image becomes cover")
	assert.Len(t, files.files[first.Path], int(pngUpload().Size))

	second, err := svc.Upload(ctx, "tenant-1", p.ID, pngUpload())
	require.NoError(t, err)
	assert.False(t, second.IsCover)

	require.NoError(t, svc.SetCover(ctx, "tenant-1", p.ID, second.ID))
	list, err := svc.List(ctx, "tenant-1", p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].IsCover)
	assert.True(t, list[1].IsCover)

	require.NoError(t, svc.Delete(ctx, "tenant-1", p.ID, first.ID))
	assert.Equal(t, 1, files.Len())
	assert.ErrorIs(t, svc.Delete(ctx, "tenant-1", p.ID, first.ID), ErrImageNotFound)
}

func TestUploadService_Rejections(t *testing.T) {
	svc, _, files, p := uploadFixture()
	ctx := context.Background()

	_, err := svc.Upload(ctx, "tenant-1", p.ID, Upload{Filename: "notes.txt", Size: 11, Body: strings.NewReader("hello world")})
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = svc.Upload(ctx, "tenant-1", p.ID, Upload{Filename: "big.png", Size: 4096, Body: bytes.NewReader(pngHeader)})
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = svc.Upload(ctx, "tenant-1", p.ID, Upload{Filename: "empty.png", Size: 0, Body: bytes.NewReader(nil)})
	assert.ErrorIs(t, err, ErrEmptyUpload)

	_, err = svc.Upload(ctx, "tenant-2", p.ID, pngUpload())
	assert.ErrorIs(t, err, ErrPropertyNotFound, "other tenants cannot upload to the property")

	assert.Equal(t, 0, files.Len())
}

func TestUploadService_RemovesFileWhenInsertFails(t *testing.T) {
	svc, images, files, p := uploadFixture()
	images.Fail = errors.New("db down")

	_, err := svc.Upload(context.Background(), "tenant-1", p.ID, pngUpload())
	assert.Error(t, err)
	assert.Equal(t, 0, files.Len())
}

func TestUploadService_DeleteChecksProperty(t *testing.T) {
	svc, _, _, p := uploadFixture()
	ctx := context.Background()
	img, err := svc.Upload(ctx, "tenant-1", p.ID, pngUpload())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "tenant-1", "other-prop", img.ID), ErrImageNotFound)
	assert.ErrorIs(t, svc.SetCover(ctx, "tenant-1", p.ID, "missing"), ErrImageNotFound)
}

func TestContactService(t *testing.T) {
	p := &domain.Property{ID: "prop-1", TenantID: "tenant-1"}
	svc := NewContactService(NewMockContactRepository(), NewMockPropertyRepository(p))
	ctx := context.Background()

	c, err := svc.Create(ctx, "tenant-1", &dto.CreateContactRequest{PropertyID: p.ID, Name: " João ", Email: "JOAO@x.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.ContactStatusNew, c.Status)
	assert.Equal(t, "joao@x.com", c.Email)

	_, err = svc.Create(ctx, "tenant-2", &dto.CreateContactRequest{PropertyID: p.ID, Name: "Ana"})
	assert.ErrorIs(t, err, ErrPropertyNotFound)

	updated, err := svc.UpdateStatus(ctx, "tenant-1", c.ID, "in_progress")
	require.NoError(t, err)
	assert.Equal(t, domain.ContactStatusInProgress, updated.Status)

	_, err = svc.UpdateStatus(ctx, "tenant-1", c.ID, "lost")
	_, isValidation := AsValidationError(err)
	assert.True(t, isValidation)

	list, total, err := svc.List(ctx, "tenant-1", &dto.ContactListQuery{Status: "in_progress"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)

	_, err = svc.Get(ctx, "tenant-2", c.ID)
	assert.ErrorIs(t, err, ErrContactNotFound)
	require.NoError(t, svc.Delete(ctx, "tenant-1", c.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "tenant-1", c.ID), ErrContactNotFound)
}
