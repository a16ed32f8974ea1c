/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package permission evaluates access-control entries scoped to a single
// identity. Entries accumulate (granting never overwrites an earlier entry)
// and are resolved at evaluation time: a matching unexpired deny beats any
// number of allows, the identity owner is always allowed, and expired
// entries count as absent.
package permission

import (
	"time"

	"github.com/google/uuid"

	"github.com/trustbloc/identity-hub/pkg/huberrors"
)

// Wildcard matches any value on the resource, action or grantee dimension.
const Wildcard = "*"

// Actions with engine-level meaning: holders of an unexpired allow for
// either may grant and revoke permissions on an identity they do not own.
const (
	ActionAdmin = "admin"
	ActionGrant = "grant_permissions"
)

// granteeCondition is the condition key binding an entry to one actor.
const granteeCondition = "grantee"

// Effect selects whether a matching entry allows or denies the action.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Permission is a single access-control entry scoped to an identity.
type Permission struct {
	ID         string            `json:"id"`
	Resource   string            `json:"resource"`
	Action     string            `json:"action"`
	Effect     Effect            `json:"effect"`
	Conditions map[string]string `json:"conditions,omitempty"`
	ExpiresAt  *time.Time        `json:"expiresAt,omitempty"`
	GrantedBy  string            `json:"grantedBy"`
	GrantedAt  time.Time         `json:"grantedAt"`
}

// Grantee returns the actor this entry is bound to, or Wildcard when the
// entry applies to every actor.
func (p Permission) Grantee() string {
	if grantee, ok := p.Conditions[granteeCondition]; ok && grantee != "" {
		return grantee
	}

	return Wildcard
}

func (p Permission) expired(now time.Time) bool {
	return p.ExpiresAt != nil && !p.ExpiresAt.After(now)
}

// matches reports whether the entry governs the given actor, resource and
// action. Wildcard is honoured on all three dimensions; querying with
// resource = Wildcard asks about the action anywhere on the identity.
// Expired entries never match.
func (p Permission) matches(actor, resource, action string, now time.Time) bool {
	if p.expired(now) {
		return false
	}

	if grantee := p.Grantee(); grantee != Wildcard && grantee != actor {
		return false
	}

	if p.Resource != Wildcard && resource != Wildcard && p.Resource != resource {
		return false
	}

	return p.Action == Wildcard || p.Action == action
}

// Engine applies the grant/revoke/evaluate policy for identity-scoped
// permission entries. It is a pure policy object; callers own persistence of
// the entries inside the identity record.
type Engine struct {
	errs *huberrors.Catalog
}

// NewEngine returns a permission engine backed by its own error catalog.
func NewEngine() *Engine {
	return &Engine{errs: huberrors.NewCatalog("permission-engine")}
}

// Grant appends a new entry and returns the extended slice plus the entry
// itself. Granting never overwrites: entries for the same (resource, action,
// grantee) tuple coexist and are resolved at evaluation time. The caller
// must have already established the grantor's authority via CanGrant.
func (e *Engine) Grant(perms []Permission, resource, action, grantee, grantor string, effect Effect,
	expiresAt *time.Time, now time.Time) ([]Permission, Permission, error) {
	const op = "Grant"

	if resource == "" || action == "" {
		return perms, Permission{}, e.errs.Errf(op, huberrors.CodeInvalidPermission,
			"resource and action are required")
	}

	switch effect {
	case EffectAllow, EffectDeny:
	default:
		return perms, Permission{}, e.errs.Errf(op, huberrors.CodeInvalidPermission,
			"effect must be %q or %q", EffectAllow, EffectDeny)
	}

	if expiresAt != nil && !expiresAt.After(now) {
		return perms, Permission{}, e.errs.Errf(op, huberrors.CodeInvalidPermission,
			"expiry %s is in the past", expiresAt.Format(time.RFC3339))
	}

	entry := Permission{
		ID:        uuid.New().String(),
		Resource:  resource,
		Action:    action,
		Effect:    effect,
		ExpiresAt: expiresAt,
		GrantedBy: grantor,
		GrantedAt: now,
	}

	if grantee != "" && grantee != Wildcard {
		entry.Conditions = map[string]string{granteeCondition: grantee}
	}

	return append(perms, entry), entry, nil
}

// Revoke hard-deletes the entry with the given ID, returning the remaining
// entries and the removed one.
func (e *Engine) Revoke(perms []Permission, permissionID string) ([]Permission, Permission, error) {
	const op = "Revoke"

	for i, p := range perms {
		if p.ID != permissionID {
			continue
		}

		remaining := make([]Permission, 0, len(perms)-1)
		remaining = append(remaining, perms[:i]...)
		remaining = append(remaining, perms[i+1:]...)

		return remaining, p, nil
	}

	return perms, Permission{}, e.errs.Errf(op, huberrors.CodePermissionNotFound,
		"no permission with id %s", permissionID)
}

// Evaluate resolves whether actor may perform action on resource within the
// identity owned by ownerDID. Policy order: the owner is always allowed; a
// matching unexpired deny wins over any allow; otherwise a matching
// unexpired allow grants access; otherwise the action is denied.
func (e *Engine) Evaluate(perms []Permission, ownerDID, actor, resource, action string, now time.Time) bool {
	if actor != "" && actor == ownerDID {
		return true
	}

	allowed := false

	for _, p := range perms {
		if !p.matches(actor, resource, action, now) {
			continue
		}

		if p.Effect == EffectDeny {
			return false
		}

		allowed = true
	}

	return allowed
}

// HasPermission reports whether actor may perform action anywhere on the
// identity owned by ownerDID.
func (e *Engine) HasPermission(perms []Permission, ownerDID, actor, action string, now time.Time) bool {
	return e.Evaluate(perms, ownerDID, actor, Wildcard, action, now)
}

// CanGrant reports whether grantor may grant or revoke permissions on the
// identity owned by ownerDID: the owner always can, as can any holder of an
// unexpired grant_permissions or admin allow.
func (e *Engine) CanGrant(perms []Permission, ownerDID, grantor string, now time.Time) bool {
	return e.HasPermission(perms, ownerDID, grantor, ActionGrant, now) ||
		e.HasPermission(perms, ownerDID, grantor, ActionAdmin, now)
}
