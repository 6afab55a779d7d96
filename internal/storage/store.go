// Package storage defines the persistence and clock ports consumed by the
// ledger core. The abstractions keep the services free of any knowledge of
// SQL or transports; swapping backends means implementing Store.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/models"
)

// Clock supplies the current time. Injectable so overdue computation and
// created-at stamping are testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Store is the persistence port for the ledger. All entity reads and writes
// are scoped to an owner id; an id from another owner's namespace behaves
// exactly like a missing row.
//
// Writes to versioned rows (peer debts, expense splits) use optimistic
// concurrency: the update only applies if the row still carries the version
// the caller read, otherwise it fails with a concurrent-modification error.
type Store interface {
	// Owners.
	CreateOwner(ctx context.Context, owner *models.Owner) error
	GetOwnerByEmail(ctx context.Context, email string) (*models.Owner, error)
	GetOwnerByID(ctx context.Context, id uuid.UUID) (*models.Owner, error)

	// Contacts.
	CreateContact(ctx context.Context, contact *models.Contact) error
	GetContact(ctx context.Context, ownerID, id uuid.UUID) (*models.Contact, error)
	UpdateContact(ctx context.Context, contact *models.Contact) error
	ListContacts(ctx context.Context, ownerID uuid.UUID) ([]*models.Contact, error)

	// Contact groups.
	CreateContactGroup(ctx context.Context, group *models.ContactGroup) error
	GetContactGroup(ctx context.Context, ownerID, id uuid.UUID) (*models.ContactGroup, error)
	UpdateContactGroupMembers(ctx context.Context, group *models.ContactGroup) error
	ListContactGroups(ctx context.Context, ownerID uuid.UUID) ([]*models.ContactGroup, error)

	// Peer debts.
	CreateDebt(ctx context.Context, debt *models.PeerDebt) error
	GetDebt(ctx context.Context, ownerID, id uuid.UUID) (*models.PeerDebt, error)
	// UpdateDebt writes settled amount and cancelled flag if the stored
	// version still matches debt.Version, then bumps debt.Version.
	UpdateDebt(ctx context.Context, debt *models.PeerDebt) error
	ListDebts(ctx context.Context, ownerID uuid.UUID) ([]*models.PeerDebt, error)
	ListDebtsByContact(ctx context.Context, ownerID, contactID uuid.UUID) ([]*models.PeerDebt, error)

	// Expense groups.
	CreateExpenseGroup(ctx context.Context, group *models.ExpenseGroup) error
	GetExpenseGroup(ctx context.Context, ownerID, id uuid.UUID) (*models.ExpenseGroup, error)
	UpdateExpenseGroupMembers(ctx context.Context, group *models.ExpenseGroup) error
	ListExpenseGroups(ctx context.Context, ownerID uuid.UUID) ([]*models.ExpenseGroup, error)

	// Group expenses and splits.
	CreateExpense(ctx context.Context, expense *models.GroupExpense) error
	GetExpense(ctx context.Context, ownerID, id uuid.UUID) (*models.GroupExpense, error)
	ListExpensesByGroup(ctx context.Context, ownerID, groupID uuid.UUID) ([]*models.GroupExpense, error)
	MarkExpenseCancelled(ctx context.Context, expense *models.GroupExpense) error
	GetSplit(ctx context.Context, ownerID, id uuid.UUID) (*models.ExpenseSplit, error)
	// UpdateSplit writes the settled amount if the stored version still
	// matches split.Version, then bumps split.Version.
	UpdateSplit(ctx context.Context, ownerID uuid.UUID, split *models.ExpenseSplit) error
	// HasUnsettledSplits reports whether the contact owes anything on a
	// non-cancelled expense in the group.
	HasUnsettledSplits(ctx context.Context, ownerID, groupID, contactID uuid.UUID) (bool, error)

	// Settlements.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	GetSettlement(ctx context.Context, ownerID, id uuid.UUID) (*models.Settlement, error)
	ListSettlements(ctx context.Context, ownerID uuid.UUID) ([]*models.Settlement, error)
	ListSettlementsByContact(ctx context.Context, ownerID, contactID uuid.UUID) ([]*models.Settlement, error)

	// InTx runs fn inside a single transaction. The Store handed to fn
	// sees uncommitted writes; any error rolls everything back, so a
	// failed command leaves the ledger in its pre-operation state.
	InTx(ctx context.Context, fn func(Store) error) error

	// Close releases any resources held by the store.
	Close() error
}
