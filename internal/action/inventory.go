package action

// UserItem is one inventory line as served by the read endpoints.
// Quantity is the number of units owned; ActivatedQuantity how many of
// them are active, always within [0, Quantity].
type UserItem struct {
	ID                string `json:"id"`
	OwnerID           string `json:"ownerId"`
	ItemID            string `json:"itemId"`
	Quantity          int    `json:"quantity"`
	ActivatedQuantity int    `json:"activatedQuantity"`
}

// OwnerInventory is the response of GET /api/inventory/{ownerId}.
type OwnerInventory struct {
	OwnerID string     `json:"ownerId"`
	Items   []UserItem `json:"items"`
}

// AdminInventory is the response of GET /api/admin/inventory.
type AdminInventory struct {
	Items []UserItem `json:"items"`
}
