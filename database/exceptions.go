// Package database - exception persistence
package database

import (
	"context"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/docksafe/docksafe-backend/model"
)

// CreateException persists a new exception record and returns its key
func (s *Store) CreateException(ctx context.Context, exc *model.Exception) (string, error) {
	meta, err := s.DB.Collections["exception"].CreateDocument(ctx, exc)
	if err != nil {
		return "", err
	}
	exc.Key = meta.Key
	return meta.Key, nil
}

// GetException fetches an exception by key, nil when not found
func (s *Store) GetException(ctx context.Context, key string) (*model.Exception, error) {
	query := `
		FOR e IN exception
			FILTER e._key == @key
			LIMIT 1
			RETURN e
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"key": key},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	if cursor.HasMore() {
		var exc model.Exception
		if _, err := cursor.ReadDocument(ctx, &exc); err != nil {
			return nil, err
		}
		return &exc, nil
	}
	return nil, nil
}

// UpdateException applies a typed partial update to an exception
func (s *Store) UpdateException(ctx context.Context, key string, upd model.ExceptionUpdate) error {
	patch := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if upd.Reason != nil {
		patch["reason"] = *upd.Reason
	}
	if upd.ApprovedBy != nil {
		patch["approved_by"] = *upd.ApprovedBy
	}
	if upd.ExpiresAt != nil {
		patch["expires_at"] = *upd.ExpiresAt
	}
	if upd.IsActive != nil {
		patch["is_active"] = *upd.IsActive
	}

	query := `UPDATE @key WITH @patch IN exception`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"key":   key,
			"patch": patch,
		},
	})
	if err != nil {
		return err
	}
	return cursor.Close()
}

// DeleteException removes an exception record
func (s *Store) DeleteException(ctx context.Context, key string) error {
	query := `REMOVE @key IN exception`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"key": key},
	})
	if err != nil {
		return err
	}
	return cursor.Close()
}

// ListExceptions returns exceptions, optionally narrowed to one image scope
// (global records included) and to active records only
func (s *Store) ListExceptions(ctx context.Context, imageName string, activeOnly bool) ([]model.Exception, error) {
	query := `
		FOR e IN exception
			FILTER @image_name == "" OR e.image_name == null OR e.image_name == @image_name
			FILTER @active_only == false OR e.is_active == true
			SORT e.created_at DESC
			RETURN e
	`
	return s.queryExceptions(ctx, query, map[string]interface{}{
		"image_name":  imageName,
		"active_only": activeOnly,
	})
}

// ExceptionsForImage returns the exceptions that apply to one image: active,
// not expired, and either global or scoped to exactly that image. This is the
// set the post-scan filter consumes.
func (s *Store) ExceptionsForImage(ctx context.Context, imageName string) ([]model.Exception, error) {
	query := `
		FOR e IN exception
			FILTER e.is_active == true
			FILTER e.image_name == null OR e.image_name == @image_name
			FILTER e.expires_at == null OR DATE_TIMESTAMP(e.expires_at) > DATE_NOW()
			RETURN e
	`
	return s.queryExceptions(ctx, query, map[string]interface{}{
		"image_name": imageName,
	})
}

func (s *Store) queryExceptions(ctx context.Context, query string, bindVars map[string]interface{}) ([]model.Exception, error) {
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	exceptions := []model.Exception{}
	for cursor.HasMore() {
		var exc model.Exception
		if _, err := cursor.ReadDocument(ctx, &exc); err != nil {
			return nil, err
		}
		exceptions = append(exceptions, exc)
	}
	return exceptions, nil
}
