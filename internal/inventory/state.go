package inventory

import (
	"slices"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
)

// Cloner is implemented by state types whose copies share no memory.
type Cloner[S any] interface {
	Clone() S
}

// AdminState is every inventory line across all owners.
type AdminState struct {
	Items []action.UserItem
}

// Clone returns a deep copy.
func (s AdminState) Clone() AdminState {
	return AdminState{Items: slices.Clone(s.Items)}
}

// Item returns the line with the given user-item id.
func (s AdminState) Item(id string) (action.UserItem, bool) {
	if i := indexByID(s.Items, id); i >= 0 {
		return s.Items[i], true
	}
	return action.UserItem{}, false
}

// LiveState is the inventory of one owner.
type LiveState struct {
	OwnerID string
	Items   []action.UserItem
}

// Clone returns a deep copy.
func (s LiveState) Clone() LiveState {
	return LiveState{OwnerID: s.OwnerID, Items: slices.Clone(s.Items)}
}

// Item returns the line with the given user-item id.
func (s LiveState) Item(id string) (action.UserItem, bool) {
	if i := indexByID(s.Items, id); i >= 0 {
		return s.Items[i], true
	}
	return action.UserItem{}, false
}

// Line returns the line holding itemID.
func (s LiveState) Line(itemID string) (action.UserItem, bool) {
	if i := indexByItem(s.Items, itemID); i >= 0 {
		return s.Items[i], true
	}
	return action.UserItem{}, false
}

func indexByID(items []action.UserItem, id string) int {
	return slices.IndexFunc(items, func(it action.UserItem) bool { return it.ID == id })
}

func indexByItem(items []action.UserItem, itemID string) int {
	return slices.IndexFunc(items, func(it action.UserItem) bool { return it.ItemID == itemID })
}

// shiftActivated moves ActivatedQuantity by delta, clamped to
// [0, Quantity]. Returns false when the clamp turned it into a no-op.
func shiftActivated(it *action.UserItem, delta int) bool {
	next := min(max(it.ActivatedQuantity+delta, 0), it.Quantity)
	if next == it.ActivatedQuantity {
		return false
	}
	it.ActivatedQuantity = next
	return true
}

// addUnits grows (or creates) the line for itemID by n units.
func addUnits(items []action.UserItem, ownerID, itemID string, n int) []action.UserItem {
	if i := indexByItem(items, itemID); i >= 0 {
		items[i].Quantity += n
		return items
	}
	return append(items, action.UserItem{OwnerID: ownerID, ItemID: itemID, Quantity: n})
}

// removeUnits shrinks the line for itemID by up to n units, dropping it when
// empty and clamping activation. Returns how many units were removed.
func removeUnits(items []action.UserItem, itemID string, n int) ([]action.UserItem, int) {
	i := indexByItem(items, itemID)
	if i < 0 {
		return items, 0
	}
	removed := min(n, items[i].Quantity)
	items[i].Quantity -= removed
	if items[i].Quantity == 0 {
		return slices.Delete(items, i, i+1), removed
	}
	items[i].ActivatedQuantity = min(items[i].ActivatedQuantity, items[i].Quantity)
	return items, removed
}
