package kernel

import (
	"strings"

	"dispatch/internal/pkg/errs"
)

// IdentityKind tells which arm of the Identity variant is populated.
type IdentityKind int

const (
	// Anonymous is the zero value: no identity could be resolved.
	Anonymous IdentityKind = iota
	// Structured identities carry a stable user id from the identity provider.
	Structured
	// Legacy identities only carry a display name. They predate structured
	// accounts and are kept for old checkouts.
	Legacy
)

// Identity is a runner, checkout holder or audit actor.
//
//	Identity = Structured(userID, displayName) | Legacy(displayName)
type Identity struct {
	kind        IdentityKind
	userID      string
	displayName string
}

func NewStructuredIdentity(userID, displayName string) (Identity, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Identity{}, errs.NewValueIsRequiredError("user id")
	}
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = userID
	}
	return Identity{kind: Structured, userID: userID, displayName: name}, nil
}

func NewLegacyIdentity(displayName string) (Identity, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return Identity{}, errs.NewValueIsRequiredError("display name")
	}
	return Identity{kind: Legacy, displayName: name}, nil
}

// RestoreIdentity rebuilds an identity from its persisted columns. A nil or
// empty user id yields a legacy identity.
func RestoreIdentity(userID *string, displayName string) (Identity, error) {
	if userID != nil && strings.TrimSpace(*userID) != "" {
		return NewStructuredIdentity(*userID, displayName)
	}
	return NewLegacyIdentity(displayName)
}

// SystemIdentity is the actor recorded for automated mutations.
func SystemIdentity() Identity {
	return Identity{kind: Structured, userID: "system", displayName: "system"}
}

func (i Identity) Kind() IdentityKind {
	return i.kind
}

func (i Identity) IsZero() bool {
	return i.kind == Anonymous
}

// UserID returns the stable id; empty for legacy identities.
func (i Identity) UserID() string {
	return i.userID
}

func (i Identity) DisplayName() string {
	return i.displayName
}

// UserIDPtr is the nullable column form of UserID.
func (i Identity) UserIDPtr() *string {
	if i.kind != Structured {
		return nil
	}
	id := i.userID
	return &id
}

func (i Identity) String() string {
	switch i.kind {
	case Structured:
		return i.displayName + " <" + i.userID + ">"
	case Legacy:
		return i.displayName
	default:
		return "anonymous"
	}
}

// Owns reports whether the holder i is the same person as candidate.
//
// A structured holder is owned by id only: a different person with the same
// display name does not match. A legacy holder has no id, so the display names
// are compared instead, whatever the candidate's kind.
func (i Identity) Owns(candidate Identity) bool {
	switch i.kind {
	case Structured:
		return candidate.kind == Structured && candidate.userID == i.userID
	case Legacy:
		return candidate.kind != Anonymous && candidate.displayName == i.displayName
	default:
		return false
	}
}
