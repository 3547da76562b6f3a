// Package members keeps editable drafts of an account's member rows.
//
// Drafts are keyed by user ID so an edit always lands on the row it was made
// for, whatever order the list is displayed or refetched in. Nothing is sent
// anywhere until Commit is called.
package members

import (
	"errors"
	"sort"
	"sync"

	"github.com/princekumarofficial/familybook/internal/types"
)

var (
	ErrUnknownMember = errors.New("member is not in the table")
	ErrInvalidRole   = errors.New("invalid role")
	ErrUnknownFlag   = errors.New("unknown permission flag")
)

// Permission flag names as sent by clients.
const (
	FlagCanAdd    = "can_add"
	FlagCanEdit   = "can_edit"
	FlagCanDelete = "can_delete"
)

type Draft struct {
	Member      types.Member
	Role        types.Role
	Permissions types.Permissions
	Dirty       bool
}

// refresh marks the draft dirty when it differs from the stored row.
func (d *Draft) refresh() {
	d.Dirty = d.Role != d.Member.Role || d.Permissions != d.Member.Permissions
}

type Table struct {
	mu     sync.Mutex
	drafts map[string]*Draft
	order  []string
}

// NewTable seeds a table from a fetched member list.
func NewTable(list []types.Member) *Table {
	t := &Table{}
	t.Reseed(list)
	return t
}

// Reseed replaces the table after a refetch. Rows missing from list are
// dropped; pending edits on rows that still exist are kept.
func (t *Table) Reseed(list []types.Member) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := make(map[string]*Draft, len(list))
	order := make([]string, 0, len(list))
	for _, m := range list {
		if old, ok := t.drafts[m.UserID]; ok && old.Dirty {
			old.Member = m
			old.refresh()
			next[m.UserID] = old
		} else {
			next[m.UserID] = &Draft{Member: m, Role: m.Role, Permissions: m.Permissions}
		}
		order = append(order, m.UserID)
	}

	t.drafts = next
	t.order = order
}

func (t *Table) SetRole(userID string, role types.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	d, ok := t.drafts[userID]
	if !ok {
		return ErrUnknownMember
	}
	d.Role = role
	d.refresh()
	return nil
}

func (t *Table) SetPermission(userID, flag string, value bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	d, ok := t.drafts[userID]
	if !ok {
		return ErrUnknownMember
	}

	switch flag {
	case FlagCanAdd:
		d.Permissions.CanAdd = value
	case FlagCanEdit:
		d.Permissions.CanEdit = value
	case FlagCanDelete:
		d.Permissions.CanDelete = value
	default:
		return ErrUnknownFlag
	}
	d.refresh()
	return nil
}

// Apply sets role and every permission flag of update in one step.
func (t *Table) Apply(update types.MemberUpdate) error {
	if !update.Role.Valid() {
		return ErrInvalidRole
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	d, ok := t.drafts[update.UserID]
	if !ok {
		return ErrUnknownMember
	}
	d.Role = update.Role
	d.Permissions = update.Permissions
	d.refresh()
	return nil
}

// Get returns a copy of the draft for userID.
func (t *Table) Get(userID string) (Draft, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	d, ok := t.drafts[userID]
	if !ok {
		return Draft{}, false
	}
	return *d, true
}

// Rows returns the drafts in the order they were seeded.
func (t *Table) Rows() []Draft {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows := make([]Draft, 0, len(t.order))
	for _, id := range t.order {
		rows = append(rows, *t.drafts[id])
	}
	return rows
}

// Commit returns the dirty drafts as updates, sorted by user ID. The drafts
// become the new baseline, so a second Commit returns nothing.
func (t *Table) Commit() []types.MemberUpdate {
	t.mu.Lock()
	defer t.mu.Unlock()

	var updates []types.MemberUpdate
	for id, d := range t.drafts {
		if !d.Dirty {
			continue
		}
		updates = append(updates, types.MemberUpdate{UserID: id, Role: d.Role, Permissions: d.Permissions})
		d.Member.Role = d.Role
		d.Member.Permissions = d.Permissions
		d.Dirty = false
	}

	sort.Slice(updates, func(i, j int) bool { return updates[i].UserID < updates[j].UserID })
	return updates
}
