package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
)

const itemColumns = `id, owner_id, item_id, quantity, activated_quantity`

// PutItem inserts or replaces a line. Used to seed inventories.
func (s *Store) PutItem(ctx context.Context, it action.UserItem) error {
	if it.OwnerID == "" || it.ItemID == "" || it.Quantity <= 0 {
		return fmt.Errorf("put item: %w: owner, item and positive quantity required", ErrInvalid)
	}
	if it.ActivatedQuantity < 0 || it.ActivatedQuantity > it.Quantity {
		return fmt.Errorf("put item: %w: activated quantity out of range", ErrInvalid)
	}
	if it.ID == "" {
		it.ID = uuid.Must(uuid.NewV7()).String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, item_id) DO UPDATE SET
			quantity = excluded.quantity,
			activated_quantity = excluded.activated_quantity
	`, it.ID, it.OwnerID, it.ItemID, it.Quantity, it.ActivatedQuantity)
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// GetItem returns the line with the given id.
func (s *Store) GetItem(ctx context.Context, id string) (action.UserItem, error) {
	return getItem(ctx, s.db, `WHERE id = ?`, id)
}

// ListOwner returns one owner's lines ordered by item id.
func (s *Store) ListOwner(ctx context.Context, ownerID string) ([]action.UserItem, error) {
	return listItems(ctx, s.db, `WHERE owner_id = ? ORDER BY item_id ASC, id ASC`, ownerID)
}

// ListAll returns every line ordered by owner then item.
func (s *Store) ListAll(ctx context.Context) ([]action.UserItem, error) {
	return listItems(ctx, s.db, `ORDER BY owner_id ASC, item_id ASC, id ASC`)
}

func getItem(ctx context.Context, q querier, where string, args ...any) (action.UserItem, error) {
	var it action.UserItem
	err := q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM user_items `+where, args...).
		Scan(&it.ID, &it.OwnerID, &it.ItemID, &it.Quantity, &it.ActivatedQuantity)
	if errors.Is(err, sql.ErrNoRows) {
		return action.UserItem{}, ErrNotFound
	}
	if err != nil {
		return action.UserItem{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

func listItems(ctx context.Context, q querier, tail string, args ...any) ([]action.UserItem, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+itemColumns+` FROM user_items `+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []action.UserItem{}
	for rows.Next() {
		var it action.UserItem
		if err := rows.Scan(&it.ID, &it.OwnerID, &it.ItemID, &it.Quantity, &it.ActivatedQuantity); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// applyUnit applies one unit action inside q. Domain failures return
// ErrNotFound, ErrCapacity or ErrInvalid wrapped with context; nothing is
// written when they occur.
func applyUnit(ctx context.Context, q querier, a action.Action) error {
	switch a.Kind() {
	case action.KindActivate:
		it, err := getItem(ctx, q, `WHERE id = ?`, a.TargetID())
		if err != nil {
			return fmt.Errorf("user item %s: %w", a.TargetID(), err)
		}
		if it.ActivatedQuantity >= it.Quantity {
			return ErrCapacity
		}
		return setActivated(ctx, q, it.ID, it.ActivatedQuantity+1)

	case action.KindDeactivate:
		it, err := getItem(ctx, q, `WHERE id = ?`, a.TargetID())
		if err != nil {
			return fmt.Errorf("user item %s: %w", a.TargetID(), err)
		}
		if it.ActivatedQuantity <= 0 {
			return fmt.Errorf("%w: no active units", ErrInvalid)
		}
		return setActivated(ctx, q, it.ID, it.ActivatedQuantity-1)

	case action.KindAddItem:
		_, err := q.ExecContext(ctx, `
			INSERT INTO user_items (`+itemColumns+`)
			VALUES (?, ?, ?, 1, 0)
			ON CONFLICT(owner_id, item_id) DO UPDATE SET quantity = quantity + 1
		`, uuid.Must(uuid.NewV7()).String(), a.OwnerID(), a.ItemID())
		if err != nil {
			return fmt.Errorf("add item: %w", err)
		}
		return nil

	case action.KindRemoveItem:
		it, err := getItem(ctx, q, `WHERE owner_id = ? AND item_id = ?`, a.OwnerID(), a.ItemID())
		if err != nil {
			return fmt.Errorf("item %s for %s: %w", a.ItemID(), a.OwnerID(), err)
		}
		if it.Quantity <= 1 {
			if _, err := q.ExecContext(ctx, `DELETE FROM user_items WHERE id = ?`, it.ID); err != nil {
				return fmt.Errorf("remove item: %w", err)
			}
			return nil
		}
		_, err = q.ExecContext(ctx, `
			UPDATE user_items
			SET quantity = quantity - 1,
			    activated_quantity = MIN(activated_quantity, quantity - 1)
			WHERE id = ?
		`, it.ID)
		if err != nil {
			return fmt.Errorf("remove item: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: unsupported kind %s", ErrInvalid, a.Kind())
}

func setActivated(ctx context.Context, q querier, id string, n int) error {
	if _, err := q.ExecContext(ctx, `UPDATE user_items SET activated_quantity = ? WHERE id = ?`, n, id); err != nil {
		return fmt.Errorf("update activation: %w", err)
	}
	return nil
}
