package repository

import "context"

// TxRunner executes a function against transaction-scoped repositories.
// Either every write performed inside fn is committed, or none is. The
// booking service uses this to keep the trip row and its request rows
// mutually consistent during accept and cancel.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(trips TripRepository, requests RequestRepository) error) error
}
