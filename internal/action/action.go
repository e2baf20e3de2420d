package action

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies which unit mutation an Action requests.
type Kind int

const (
	// KindActivate activates one unit of a user item.
	KindActivate Kind = iota + 1
	// KindDeactivate deactivates one unit of a user item.
	KindDeactivate
	// KindAddItem adds one unit of an item to an owner's inventory.
	KindAddItem
	// KindRemoveItem removes one unit of an item from an owner's inventory.
	KindRemoveItem
)

// Wire names for each kind, as sent to the batch endpoint.
const (
	TypeActivate   = "activate"
	TypeDeactivate = "deactivate"
	TypeAddItem    = "addItem"
	TypeRemoveItem = "removeItem"
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindActivate:
		return TypeActivate
	case KindDeactivate:
		return TypeDeactivate
	case KindAddItem:
		return TypeAddItem
	case KindRemoveItem:
		return TypeRemoveItem
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a wire name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case TypeActivate:
		return KindActivate, nil
	case TypeDeactivate:
		return KindDeactivate, nil
	case TypeAddItem:
		return KindAddItem, nil
	case TypeRemoveItem:
		return KindRemoveItem, nil
	default:
		return 0, fmt.Errorf("unknown action type %q", s)
	}
}

// Family returns the identity family the kind belongs to.
func (k Kind) Family() Family {
	switch k {
	case KindActivate, KindDeactivate:
		return FamilyActivation
	case KindAddItem, KindRemoveItem:
		return FamilyLineItem
	default:
		return 0
	}
}

// Opposite returns the kind that cancels k.
func (k Kind) Opposite() Kind {
	switch k {
	case KindActivate:
		return KindDeactivate
	case KindDeactivate:
		return KindActivate
	case KindAddItem:
		return KindRemoveItem
	case KindRemoveItem:
		return KindAddItem
	default:
		return 0
	}
}

// Positive reports whether the kind counts up in net arithmetic
// (Activate, AddItem).
func (k Kind) Positive() bool {
	return k == KindActivate || k == KindAddItem
}

// Family groups kinds that share an identity slot.
type Family int

const (
	// FamilyActivation covers Activate/Deactivate keyed by target id.
	FamilyActivation Family = iota + 1
	// FamilyLineItem covers AddItem/RemoveItem keyed by owner and item.
	FamilyLineItem
)

// PositiveKind returns the kind that counts up within the family.
func (f Family) PositiveKind() Kind {
	if f == FamilyLineItem {
		return KindAddItem
	}
	return KindActivate
}

// Key identifies the slot an action applies to. It is comparable and
// safe to use as a map key.
type Key struct {
	Family   Family
	TargetID string
	OwnerID  string
	ItemID   string
}

// String renders the key as targetId or ownerId:itemId.
func (k Key) String() string {
	if k.Family == FamilyLineItem {
		return k.OwnerID + ":" + k.ItemID
	}
	return k.TargetID
}

// Action is one immutable unit of user intent.
type Action struct {
	kind     Kind
	targetID string
	ownerID  string
	itemID   string
}

// Activate returns an action activating one unit of targetID.
func Activate(targetID string) Action {
	return Action{kind: KindActivate, targetID: targetID}
}

// Deactivate returns an action deactivating one unit of targetID.
func Deactivate(targetID string) Action {
	return Action{kind: KindDeactivate, targetID: targetID}
}

// AddItem returns an action adding one unit of itemID to ownerID.
func AddItem(ownerID, itemID string) Action {
	return Action{kind: KindAddItem, ownerID: ownerID, itemID: itemID}
}

// RemoveItem returns an action removing one unit of itemID from ownerID.
func RemoveItem(ownerID, itemID string) Action {
	return Action{kind: KindRemoveItem, ownerID: ownerID, itemID: itemID}
}

// FromKey builds the action of the given kind targeting key.
// The kind must belong to the key's family.
func FromKey(kind Kind, key Key) Action {
	if kind.Family() == FamilyLineItem {
		return lineItem(kind, key.OwnerID, key.ItemID)
	}
	return Action{kind: kind, targetID: key.TargetID}
}

func lineItem(kind Kind, ownerID, itemID string) Action {
	return Action{kind: kind, ownerID: ownerID, itemID: itemID}
}

// Expand returns n copies of a. Multi-unit requests must go through
// Expand so every queued record stays a single unit.
func Expand(a Action, n int) []Action {
	if n <= 0 {
		return nil
	}
	out := make([]Action, n)
	for i := range out {
		out[i] = a
	}
	return out
}

// Kind returns the action kind.
func (a Action) Kind() Kind { return a.kind }

// TargetID returns the activation target (activation family only).
func (a Action) TargetID() string { return a.targetID }

// OwnerID returns the owner (line-item family only).
func (a Action) OwnerID() string { return a.ownerID }

// ItemID returns the item (line-item family only).
func (a Action) ItemID() string { return a.itemID }

// Key returns the identity slot of the action.
func (a Action) Key() Key {
	if a.kind.Family() == FamilyLineItem {
		return Key{Family: FamilyLineItem, OwnerID: a.ownerID, ItemID: a.itemID}
	}
	return Key{Family: FamilyActivation, TargetID: a.targetID}
}

// IsZero reports whether a is the zero Action.
func (a Action) IsZero() bool {
	return a == Action{}
}

// Validate checks that the action names a known kind and carries the
// identifiers its family requires.
func (a Action) Validate() error {
	switch a.kind.Family() {
	case FamilyActivation:
		if strings.TrimSpace(a.targetID) == "" {
			return fmt.Errorf("%s: target id is required", a.kind)
		}
	case FamilyLineItem:
		if strings.TrimSpace(a.ownerID) == "" {
			return fmt.Errorf("%s: owner id is required", a.kind)
		}
		if strings.TrimSpace(a.itemID) == "" {
			return fmt.Errorf("%s: item id is required", a.kind)
		}
	default:
		return fmt.Errorf("unknown action kind %d", int(a.kind))
	}
	return nil
}

// String renders the action as kind:key, e.g. "activate:ui-1" or
// "addItem:u1:x".
func (a Action) String() string {
	return a.kind.String() + ":" + a.Key().String()
}

// wireAction is the JSON form of an Action on the batch endpoint.
type wireAction struct {
	Type     string `json:"type"`
	TargetID string `json:"targetId,omitempty"`
	OwnerID  string `json:"ownerId,omitempty"`
	ItemID   string `json:"itemId,omitempty"`
}

// MarshalJSON encodes the action in wire form.
func (a Action) MarshalJSON() ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(wireAction{
		Type:     a.kind.String(),
		TargetID: a.targetID,
		OwnerID:  a.ownerID,
		ItemID:   a.itemID,
	})
}

// UnmarshalJSON decodes and validates a wire action.
func (a *Action) UnmarshalJSON(data []byte) error {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind, err := ParseKind(w.Type)
	if err != nil {
		return err
	}
	var decoded Action
	if kind.Family() == FamilyLineItem {
		decoded = lineItem(kind, w.OwnerID, w.ItemID)
	} else {
		decoded = Action{kind: kind, targetID: w.TargetID}
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*a = decoded
	return nil
}
