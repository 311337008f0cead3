package usecase

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultBatchSize bounds rows per upsert transaction
	DefaultBatchSize = 100

	// DefaultTransactionTimeout is the maximum duration for a database transaction
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultLockTTL caps how long a crashed import can block its project
	DefaultLockTTL = 15 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)

var (
	// DefaultAbsoluteTolerance absorbs cent-level rounding between ledgers.
	DefaultAbsoluteTolerance = decimal.RequireFromString("0.01")

	// DefaultRelativeTolerance (0.1%) absorbs rounding on large amounts.
	DefaultRelativeTolerance = decimal.RequireFromString("0.001")
)
