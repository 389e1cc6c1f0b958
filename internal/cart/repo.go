package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmorales-dev/storefront-backend/pkg/db/models"
)

// Repository encapsulates cart line persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListLines returns the user's cart lines with their items, oldest first.
func (r *Repository) ListLines(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Preload("Item").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&lines).
		Error
	return lines, err
}

// GetLine loads the user's line for one item.
func (r *Repository) GetLine(ctx context.Context, userID, itemID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		First(&line).
		Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// AddQty merges qty into the user's line for the item, creating the line when
// absent. The unique (user_id, item_id) constraint makes concurrent adds
// collapse into a single row.
func (r *Repository) AddQty(ctx context.Context, userID, itemID uuid.UUID, qty int) error {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return gorm.ErrInvalidValue
	}

	return r.db.WithContext(ctx).
		Exec(`INSERT INTO cart_lines (id, user_id, item_id, qty, created_at, updated_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
ON CONFLICT (user_id, item_id)
DO UPDATE SET qty = cart_lines.qty + excluded.qty, updated_at = CURRENT_TIMESTAMP`,
			uuid.New(), userID, itemID, qty).
		Error
}

// ReplaceQty overwrites the line's quantity and reports whether a line existed.
func (r *Repository) ReplaceQty(ctx context.Context, userID, itemID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		UpdateColumn("qty", qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteLine removes the user's line for the item and reports whether a row
// existed.
func (r *Repository) DeleteLine(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Delete(&models.CartLine{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Clear removes every line the user holds.
func (r *Repository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartLine{}).
		Error
}
