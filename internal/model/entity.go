// Package model defines domain entities for the application.
package model

// Entity is a persisted record with an identifier of type ID.
// CopyFrom merges the fields the source marks as present into the receiver.
type Entity[ID comparable, E any] interface {
	GetID() ID
	SetID(id ID)
	CopyFrom(other E)
	Clone() E
}

// OwnedEntity is an Entity that belongs to exactly one Owner.
// The owner is assigned on create and is never touched by CopyFrom.
type OwnedEntity[ID comparable, E any] interface {
	Entity[ID, E]
	GetOwner() Owner
	SetOwner(owner Owner)
}

// Owner is the principal an owned entity belongs to.
type Owner interface {
	OwnerID() string
}

// SameOwner reports whether a and b identify the same owner.
// Owners compare by identifier only, whatever their representation.
func SameOwner(a, b Owner) bool {
	if a == nil || b == nil {
		return false
	}
	return a.OwnerID() == b.OwnerID()
}

// ServedOwner is an owner known only by its identifier, e.g. a principal managed
// by an external identity provider.
type ServedOwner struct {
	ID string `json:"id"`
}

// OwnerID implements Owner.
func (o ServedOwner) OwnerID() string {
	return o.ID
}
