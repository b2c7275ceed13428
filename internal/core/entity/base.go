// Package entity defines the persistence contracts shared by all records:
// identity, audit timestamps and fetch-plan attachment.
package entity

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"catalogstore/internal/core/fetchplan"
	"catalogstore/internal/core/id"
)

// Record is anything a session can persist: a table name plus a key.
// Association rows are Records with a composite key.
type Record interface {
	TableName() string
	Key() map[string]any
}

// Entity is a Record identified by a surrogate ID and carrying audit timestamps.
type Entity interface {
	Record
	GetID() id.ID
	SetID(id.ID)
	IsTransient() bool
	StampCreate(now time.Time)
	StampUpdate(now time.Time)
}

// CreationStamped is implemented by records whose creation time is written
// on insert only.
type CreationStamped interface {
	CreatedAt() time.Time
	SetCreatedAt(time.Time)
}

// BaseEntity contains the identity and audit fields of every entity.
type BaseEntity struct {
	// ID is nil until the entity is first persisted.
	ID id.ID `db:"id" json:"id"`

	DateCreate time.Time `db:"date_create" json:"dateCreate"`
	DateUpdate time.Time `db:"date_update" json:"dateUpdate"`
}

// GetID returns the surrogate key.
func (b *BaseEntity) GetID() id.ID { return b.ID }

// SetID assigns the surrogate key.
func (b *BaseEntity) SetID(v id.ID) { b.ID = v }

// Key implements Record.
func (b *BaseEntity) Key() map[string]any {
	return map[string]any{"id": b.ID}
}

// IsTransient reports whether the entity has never been persisted.
func (b *BaseEntity) IsTransient() bool {
	return id.IsNil(b.ID)
}

// StampCreate sets DateCreate once; later calls are no-ops.
func (b *BaseEntity) StampCreate(now time.Time) {
	if b.DateCreate.IsZero() {
		b.DateCreate = now
	}
}

// CreatedAt returns DateCreate.
func (b *BaseEntity) CreatedAt() time.Time { return b.DateCreate }

// SetCreatedAt overwrites DateCreate with a value read from storage.
func (b *BaseEntity) SetCreatedAt(t time.Time) { b.DateCreate = t }

// StampUpdate refreshes DateUpdate. It never moves backwards, so a skewed
// clock cannot make an update look older than the previous one.
func (b *BaseEntity) StampUpdate(now time.Time) {
	if now.After(b.DateUpdate) {
		b.DateUpdate = now
	}
}

// FetchPlanned stores the plan an instance was loaded with.
// Presentation code inspects it to decide which relations are safe to render.
type FetchPlanned struct {
	plan fetchplan.Plan
}

// FetchPlan returns the plan the instance was hydrated with (zero if none).
func (f *FetchPlanned) FetchPlan() fetchplan.Plan { return f.plan }

// SetFetchPlan records the plan used to hydrate the instance.
func (f *FetchPlanned) SetFetchPlan(p fetchplan.Plan) { f.plan = p }

// PlanAware is implemented by entities that remember their fetch plan.
type PlanAware interface {
	FetchPlan() fetchplan.Plan
	SetFetchPlan(fetchplan.Plan)
}

// IdentityKey renders a stable string for a record's identity,
// e.g. "warehouses[id=0190...]". Used by identity maps.
func IdentityKey(r Record) string {
	return FormatKey(r.TableName(), r.Key())
}

// FormatKey renders table and key columns in the IdentityKey format.
func FormatKey(table string, key map[string]any) string {
	cols := make([]string, 0, len(key))
	for col := range key {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	var b strings.Builder
	b.WriteString(table)
	b.WriteByte('[')
	for i, col := range cols {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%v", col, key[col])
	}
	b.WriteByte(']')
	return b.String()
}

// Owned is a row of a to-many relation that points back at its owner entity.
type Owned interface {
	Record
	OwnerID() id.ID
}
