package interfaces

import "sales-observer/src/models"

// -----------------------------------------------------------------------------
// ITransactionPusher is the hub surface the change listener needs: an
// immediate-push path plus the registered-client count used to skip work
// when nobody is watching.
// -----------------------------------------------------------------------------

type ITransactionPusher interface {
	// -----------------------------------------------------------------------------
	// PushTransaction hands an inserted record to the immediate-push path.
	PushTransaction(tx models.MTransaction)

	// -----------------------------------------------------------------------------
	// ClientCount reports the number of registered dashboard connections.
	ClientCount() int
}
