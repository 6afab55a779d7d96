// Package models defines the domain entities of the social-finance ledger.
//
// # Entities
//
//   - Owner: an account that owns a private namespace of everything below
//   - Contact / ContactGroup: the people money is owed to or from
//   - PeerDebt: a single lent/borrowed record with partial-settlement tracking
//   - ExpenseGroup / GroupExpense / ExpenseSplit: shared expenses and shares
//   - Settlement: money actually moved, applied against debts and splits
//
// # Design principles
//
//  1. Entities are plain structs; all persistence goes through the storage
//     interfaces, no active-record behavior.
//  2. Statuses are derived from settled amounts, never stored as independent
//     truth. Recomputing a status is a pure function of state.
//  3. Ledger rows are never deleted. Debts and expenses are cancelled,
//     settlements are reversed by a new sign-opposite settlement.
//  4. Every entity belongs to exactly one owner; ids only resolve inside the
//     owner's namespace.
package models
