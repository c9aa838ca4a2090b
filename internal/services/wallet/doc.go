/*
Package wallet executes ledger commands against event sourced accounts.

Every command runs as one unit of work:

  - owners are resolved to accounts without locks
  - the participating accounts are locked in ascending id order
  - each account's history is replayed into a ledger.Aggregate
  - the aggregate validates the command and emits one event per account
  - the events are appended and the balance projections updated
  - the transaction commits, or nothing is kept

Usage:

	l := wallet.NewLedger(repo)
	svc := wallet.NewService(l, accounts, cache, notifier, wallet.Config{}, metrics)

	// Credit an owner's account
	res, err := svc.Deposit(ctx, ownerID, 1000)

	// Move funds between owners
	tr, err := svc.Transfer(ctx, payerID, payeeID, 250)

Error Handling:

Failures are the sentinel errors of package ledger and are matched with
errors.Is. ErrLockTimeout and ErrInfrastructure leave no trace and may be
retried with the same idempotency key; validation errors must not be.

Ordering:

Sorting lock acquisition by account id means two transfers over the same
pair of accounts in opposite directions queue on the same first lock
instead of deadlocking.
*/
package wallet
