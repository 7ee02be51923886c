package frequency

import (
	"fmt"

	"provider-dashboard/config"
	"provider-dashboard/core"
	"provider-dashboard/models/submodel"

	"github.com/ChainSafe/log15"
	"github.com/stafiprotocol/go-substrate-rpc-client/types"
)

const (
	StatusSubmitting = "Submitting transaction"
	StatusInvalid    = "Invalid transaction"
	StatusSucceeded  = "Transaction succeeded"
	StatusFailed     = "Transaction failed. See chain explorer for details."
	StatusTimeout    = "Timeout reached or transaction was invalid."
)

// TxnStatusCallback receives every human readable status of a transaction.
type TxnStatusCallback func(reason core.Reason, status string)

// TxResult is one status update of a watched extrinsic. Events are only
// filled in once the extrinsic is finalized.
type TxResult struct {
	Status types.ExtrinsicStatus
	Events []*submodel.ChainEvent
}

// log and call the callback with the status.
func showExtrinsicStatus(log log15.Logger, reason core.Reason, status string, cb TxnStatusCallback) {
	log.Debug("Transaction status", "reason", reason, "status", status)
	cb(reason, status)
}

// ParseChainEvent reports a status update and tells whether the watch is over.
func ParseChainEvent(log log15.Logger, result TxResult, cb TxnStatusCallback) (done bool) {
	defer func() {
		if r := recover(); r != nil {
			showExtrinsicStatus(log, core.TxError, fmt.Sprintf("Error: %v", r), cb)
			done = true
		}
	}()

	status := result.Status
	switch {
	case status.IsInvalid:
		showExtrinsicStatus(log, core.TxInvalid, StatusInvalid, cb)
		return true
	case status.IsFinalized:
		showExtrinsicStatus(log, core.TxFinalized, fmt.Sprintf("Transaction is finalized in block hash %s", status.AsFinalized.Hex()), cb)
		for _, evt := range result.Events {
			if evt.ModuleId != config.SystemModuleId {
				continue
			}
			switch evt.EventId {
			case config.ExtrinsicSuccessEventId:
				showExtrinsicStatus(log, core.TxSucceeded, StatusSucceeded, cb)
			case config.ExtrinsicFailedEventId:
				showExtrinsicStatus(log, core.TxFailed, StatusFailed, cb)
			}
		}
		return true
	case status.IsInBlock:
		showExtrinsicStatus(log, core.TxInBlock, fmt.Sprintf("Transaction is included in blockHash %s", status.AsInBlock.Hex()), cb)
		return false
	default:
		name, terminal := humanStatus(status)
		showExtrinsicStatus(log, core.TxStatus, name, cb)
		return terminal
	}
}

// humanStatus names the remaining pool states. Usurped, dropped and
// finality timeouts end the watch.
func humanStatus(status types.ExtrinsicStatus) (string, bool) {
	switch {
	case status.IsFuture:
		return "Future", false
	case status.IsReady:
		return "Ready", false
	case status.IsBroadcast:
		return "Broadcast", false
	case status.IsRetracted:
		return "Retracted", false
	case status.IsFinalityTimeout:
		return "FinalityTimeout", true
	case status.IsUsurped:
		return "Usurped", true
	case status.IsDropped:
		return "Dropped", true
	default:
		return "Unknown", false
	}
}
