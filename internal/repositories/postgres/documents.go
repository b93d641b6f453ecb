package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/moderation-service/internal/repositories"
)

// allowedOperators whitelists the comparison operators a query condition may
// carry before it is interpolated into a WHERE clause.
var allowedOperators = map[string]bool{
	"=":  true,
	"!=": true,
	">":  true,
	">=": true,
	"<":  true,
	"<=": true,
}

// collection is a generic accessor over one table, treated as a keyed
// document collection: per-row atomic reads and writes, existence-checked
// mutation, equality/comparison filtering. Every failure is logged with the
// collection name and document id before being returned.
type collection[T any] struct {
	db     *gorm.DB
	name   string
	logger *slog.Logger
}

func newCollection[T any](db *gorm.DB, name string, logger *slog.Logger) *collection[T] {
	return &collection[T]{db: db, name: name, logger: logger}
}

func (c *collection[T]) get(ctx context.Context, id string) (*T, error) {
	var doc T
	err := c.db.WithContext(ctx).Table(c.name).Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.NewNotFoundError(c.name, id)
		}
		c.logFailure(ctx, "get", id, err)
		return nil, fmt.Errorf("failed to get document %s/%s: %w", c.name, id, err)
	}
	return &doc, nil
}

func (c *collection[T]) create(ctx context.Context, doc *T) error {
	if err := c.db.WithContext(ctx).Table(c.name).Create(doc).Error; err != nil {
		c.logFailure(ctx, "create", "", err)
		return fmt.Errorf("failed to create document in %s: %w", c.name, err)
	}
	return nil
}

// update patches the named fields of one document. The existence check and
// the write are two statements, not one atomic step; the row itself is
// still written atomically.
func (c *collection[T]) update(ctx context.Context, id string, patch map[string]interface{}) error {
	result := c.db.WithContext(ctx).Table(c.name).Where("id = ?", id).Updates(patch)
	if result.Error != nil {
		c.logFailure(ctx, "update", id, result.Error)
		return fmt.Errorf("failed to update document %s/%s: %w", c.name, id, result.Error)
	}
	if result.RowsAffected == 0 {
		if exists, err := c.exists(ctx, id); err == nil && !exists {
			return repositories.NewNotFoundError(c.name, id)
		}
	}
	return nil
}

func (c *collection[T]) remove(ctx context.Context, id string) error {
	result := c.db.WithContext(ctx).Table(c.name).Where("id = ?", id).Delete(new(T))
	if result.Error != nil {
		c.logFailure(ctx, "delete", id, result.Error)
		return fmt.Errorf("failed to delete document %s/%s: %w", c.name, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NewNotFoundError(c.name, id)
	}
	return nil
}

// query returns all documents matching every condition.
func (c *collection[T]) query(ctx context.Context, conditions []repositories.Condition) ([]*T, error) {
	tx := c.db.WithContext(ctx).Table(c.name)
	tx, err := applyConditions(tx, conditions)
	if err != nil {
		return nil, err
	}

	var docs []*T
	if err := tx.Find(&docs).Error; err != nil {
		c.logFailure(ctx, "query", "", err)
		return nil, fmt.Errorf("failed to query %s: %w", c.name, err)
	}
	return docs, nil
}

func (c *collection[T]) count(ctx context.Context, conditions []repositories.Condition) (int64, error) {
	tx := c.db.WithContext(ctx).Table(c.name)
	tx, err := applyConditions(tx, conditions)
	if err != nil {
		return 0, err
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		c.logFailure(ctx, "count", "", err)
		return 0, fmt.Errorf("failed to count %s: %w", c.name, err)
	}
	return total, nil
}

func (c *collection[T]) exists(ctx context.Context, id string) (bool, error) {
	total, err := c.count(ctx, []repositories.Condition{repositories.Eq("id", id)})
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

func applyConditions(tx *gorm.DB, conditions []repositories.Condition) (*gorm.DB, error) {
	for _, cond := range conditions {
		if !allowedOperators[cond.Operator] {
			return nil, fmt.Errorf("unsupported query operator %q", cond.Operator)
		}
		tx = tx.Where(fmt.Sprintf("%s %s ?", cond.Field, cond.Operator), cond.Value)
	}
	return tx, nil
}

func (c *collection[T]) logFailure(ctx context.Context, operation, id string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.ErrorContext(ctx, "document operation failed",
		"collection", c.name,
		"document_id", id,
		"operation", operation,
		"error", err)
}
