package query

/*
	Description:
		Package `query` provides interface for querying mongo db
		This pachage is basicly nothing but wrap https://github.com/mongodb/mongo-go-driver
		so please read document at following link for any detail
		https://godoc.org/go.mongodb.org/mongo-driver/mongo

		NewMemory returns an in-process implementation with the same semantics for
		the subset of operators used by the repositories: equality selectors,
		single field sort, `$set` patches and `$inc` increments.

	Use Case:
		Please Read the testcases for usage of each method
*/

import (
	"fmt"
	"time"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/domain"
)

// TransactionLifetime is the default transactionLifetimeLimitSeconds of mongod
const TransactionLifetime = 60 * time.Second

var (
	// ErrNotFound is mongo document not found error
	ErrNotFound = fmt.Errorf("document not found")

	// ErrDuplicateKey is an error when violating unique index
	ErrDuplicateKey = fmt.Errorf("duplicate key")

	// ErrCollScan is error for unindexed query
	ErrCollScan = fmt.Errorf("COLLSCAN is not allowed")
)

type patchOp struct {
	patchMany bool
}

// PatchOp is an alias for functional argument
type PatchOp func(*patchOp)

// WithPatchMany specifies patchMany setting. To patch all entries selected, set patchMany = true.
func WithPatchMany(patchMany bool) PatchOp {
	return func(o *patchOp) {
		o.patchMany = patchMany
	}
}

// Index describes an index on table, fields are prefixed by '-' for descending order
type Index struct {
	Table  domain.Table
	Fields []string
	Unique bool
}

//Mongo abstract the mongo layer.
type Mongo interface {
	// Insert inserts a new document to the table
	Insert(context ctx.Ctx, table domain.Table, insert interface{}) error

	// FindOne get data from the table
	FindOne(context ctx.Ctx, table domain.Table, query, result interface{}) error

	// Count return counting for matched entry in the table
	Count(context ctx.Ctx, table domain.Table, selector interface{}) (n int, err error)

	// Upsert replaces the document matching selector, or inserts it if none matches
	Upsert(context ctx.Ctx, table domain.Table, selector, update interface{}) error

	// Search finds documents matching query, sort is a field name prefixed by '-' for descending order.
	// limit = 0 means no limit
	Search(context ctx.Ctx, table domain.Table, offset, limit int, sort string, query, results interface{}) error

	// Patch sets the fields of update on the document matching selector
	Patch(context ctx.Ctx, table domain.Table, selector, update interface{}, ops ...PatchOp) error

	// Increment increases field of the document matching selector by inc and decodes the result.
	// The document is created from selector if it does not exist
	Increment(context ctx.Ctx, table domain.Table, selector, result interface{}, field string, inc interface{}) error

	// EnsureIndexes creates the indexes if missing
	EnsureIndexes(context ctx.Ctx, indexes ...Index) error

	// RunWithTransaction runs run in a transaction, all writes done with the given ctx are
	// committed together when run returns nil and discarded otherwise. Reads see the store
	// as of the start of the transaction. Nested calls join the outer transaction. A failed
	// transaction is never retried. Mongo aborts transactions older than TransactionLifetime.
	RunWithTransaction(context ctx.Ctx, run func(ctx.Ctx) error) error

	// InTransaction reports whether context carries a running transaction
	InTransaction(context ctx.Ctx) bool
}
