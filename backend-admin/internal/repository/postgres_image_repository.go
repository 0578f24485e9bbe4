package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/domain"
	"github.com/imobsites/imobsites-panel/pkg/database"
)

const imageColumns = `
	id, tenant_id, property_id, filename, path, url, content_type, size_bytes, is_cover, sort_order, created_at`

// PostgresImageRepository implements ImageRepository using PostgreSQL
type PostgresImageRepository struct {
	db DBTX
}

// NewPostgresImageRepository creates a new PostgresImageRepository
func NewPostgresImageRepository(db DBTX) *PostgresImageRepository {
	return &PostgresImageRepository{db: db}
}

func scanImage(row pgx.Row) (*domain.PropertyImage, error) {
	img := &domain.PropertyImage{}
	err := row.Scan(
		&img.ID, &img.TenantID, &img.PropertyID, &img.Filename, &img.Path, &img.URL,
		&img.ContentType, &img.SizeBytes, &img.IsCover, &img.SortOrder, &img.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// ListByProperty returns images in display order
func (r *PostgresImageRepository) ListByProperty(ctx context.Context, tenantID, propertyID string) ([]*domain.PropertyImage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+imageColumns+` FROM property_images
		WHERE tenant_id = $1 AND property_id = $2
		ORDER BY sort_order ASC, created_at ASC`, tenantID, propertyID)
	if err != nil {
		if notFound(err) {
			return []*domain.PropertyImage{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	images := make([]*domain.PropertyImage, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// GetByID retrieves an image of the tenant
func (r *PostgresImageRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.PropertyImage, error) {
	img, err := scanImage(r.db.QueryRow(ctx,
		`SELECT `+imageColumns+` FROM property_images WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return img, nil
}

// Create fills SortOrder and IsCover from the property's existing images
func (r *PostgresImageRepository) Create(ctx context.Context, img *domain.PropertyImage) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO property_images (id, tenant_id, property_id, filename, path, url, content_type,
		                             size_bytes, is_cover, sort_order, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8,
		       NOT EXISTS (SELECT 1 FROM property_images WHERE property_id = $3 AND is_cover),
		       COALESCE((SELECT MAX(sort_order) + 1 FROM property_images WHERE property_id = $3), 0),
		       $9
		RETURNING is_cover, sort_order`,
		img.ID, img.TenantID, img.PropertyID, img.Filename, img.Path, img.URL, img.ContentType,
		img.SizeBytes, img.CreatedAt,
	).Scan(&img.IsCover, &img.SortOrder)
}

// SetCover moves the cover flag to imageID
func (r *PostgresImageRepository) SetCover(ctx context.Context, tenantID, propertyID, imageID string) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE property_images SET is_cover = (id = $3)
			WHERE tenant_id = $1 AND property_id = $2`, tenantID, propertyID, imageID)
		if err := affected(tag, err); err != nil {
			return err
		}
		var cover bool
		err = tx.QueryRow(ctx, `
			SELECT is_cover FROM property_images
			WHERE tenant_id = $1 AND property_id = $2 AND id = $3`, tenantID, propertyID, imageID).Scan(&cover)
		if notFound(err) {
			return ErrNotFound
		}
		return err
	})
}

// Delete removes the image; the lowest remaining sort order inherits the cover
func (r *PostgresImageRepository) Delete(ctx context.Context, tenantID, id string) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var propertyID string
		var wasCover bool
		err := tx.QueryRow(ctx, `
			DELETE FROM property_images WHERE tenant_id = $1 AND id = $2
			RETURNING property_id, is_cover`, tenantID, id).Scan(&propertyID, &wasCover)
		if err != nil {
			if notFound(err) {
				return ErrNotFound
			}
			return err
		}
		if !wasCover {
			return nil
		}
		_, err = tx.Exec(ctx, `
			UPDATE property_images SET is_cover = TRUE
			WHERE id = (SELECT id FROM property_images WHERE property_id = $1
			            ORDER BY sort_order ASC, created_at ASC LIMIT 1)`, propertyID)
		return err
	})
}
