package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/repository"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/storage"
	"github.com/imobsites/imobsites-panel/pkg/logger"
)

// sniffLen is how much of an upload is read to detect its type
const sniffLen = 3072

// imageTypes maps the accepted content types to stored extensions
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Upload is an incoming image file
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// UploadService stores property photos
type UploadService interface {
	Upload(ctx context.Context, tenantID, propertyID string, up Upload) (*domain.PropertyImage, error)
	List(ctx context.Context, tenantID, propertyID string) ([]*domain.PropertyImage, error)
	SetCover(ctx context.Context, tenantID, propertyID, imageID string) error
	Delete(ctx context.Context, tenantID, propertyID, imageID string) error
}

type uploadService struct {
	props    repository.PropertyRepository
	images   repository.ImageRepository
	files    storage.Storage
	maxBytes int64
}

// NewUploadService creates a new UploadService
func NewUploadService(props repository.PropertyRepository, images repository.ImageRepository, files storage.Storage, maxBytes int64) UploadService {
	return &uploadService{props: props, images: images, files: files, maxBytes: maxBytes}
}

func (s *uploadService) requireProperty(ctx context.Context, tenantID, propertyID string) error {
	p, err := s.props.GetByID(ctx, tenantID, propertyID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrPropertyNotFound
	}
	return nil
}

func (s *uploadService) Upload(ctx context.Context, tenantID, propertyID string, up Upload) (*domain.PropertyImage, error) {
	if up.Size == 0 {
		return nil, ErrEmptyUpload
	}
	if s.maxBytes > 0 && up.Size > s.maxBytes {
		return nil, ErrImageTooLarge
	}
	if err := s.requireProperty(ctx, tenantID, propertyID); err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(up.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if n == 0 {
		return nil, ErrEmptyUpload
	}
	head = head[:n]
	contentType := mimetype.Detect(head).String()
	ext, ok := imageTypes[contentType]
	if !ok {
		return nil, ErrUnsupportedImage
	}

	body := io.MultiReader(bytes.NewReader(head), up.Body)
	if s.maxBytes > 0 {
		body = io.LimitReader(body, s.maxBytes)
	}

	id := uuid.New().String()
	key := storage.Key(tenantID, propertyID, id+ext)
	url, err := s.files.Save(ctx, key, body)
	if err != nil {
		return nil, err
	}

	img := &domain.PropertyImage{
		ID:          id,
		TenantID:    tenantID,
		PropertyID:  propertyID,
		Filename:    originalName(up.Filename, id+ext),
		Path:        key,
		URL:         url,
		ContentType: contentType,
		SizeBytes:   up.Size,
		CreatedAt:   time.Now(),
	}
	if err := s.images.Create(ctx, img); err != nil {
		if rmErr := s.files.Remove(ctx, key); rmErr != nil {
			logger.Get().WithContext(ctx).Warn("failed to remove orphan upload", zap.String("path", key), zap.Error(rmErr))
		}
		return nil, err
	}
	return img, nil
}

// originalName keeps the client's base name for display
func originalName(name, fallback string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return fallback
	}
	if len(name) > 255 {
		name = name[len(name)-255:]
	}
	return name
}

func (s *uploadService) List(ctx context.Context, tenantID, propertyID string) ([]*domain.PropertyImage, error) {
	if err := s.requireProperty(ctx, tenantID, propertyID); err != nil {
		return nil, err
	}
	return s.images.ListByProperty(ctx, tenantID, propertyID)
}

func (s *uploadService) SetCover(ctx context.Context, tenantID, propertyID, imageID string) error {
	if err := s.requireProperty(ctx, tenantID, propertyID); err != nil {
		return err
	}
	if err := s.images.SetCover(ctx, tenantID, propertyID, imageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrImageNotFound
		}
		return err
	}
	return nil
}

func (s *uploadService) Delete(ctx context.Context, tenantID, propertyID, imageID string) error {
	img, err := s.images.GetByID(ctx, tenantID, imageID)
	if err != nil {
		return err
	}
	if img == nil || img.PropertyID != propertyID {
		return ErrImageNotFound
	}
	if err := s.images.Delete(ctx, tenantID, imageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrImageNotFound
		}
		return err
	}
	if err := s.files.Remove(ctx, img.Path); err != nil {
		logger.Get().WithContext(ctx).Warn("failed to remove image file", zap.String("image_id", imageID), zap.Error(err))
	}
	return nil
}
