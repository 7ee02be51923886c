package core

import "time"

type Message struct {
	Source  string // transaction id
	Reason  Reason
	Content string
	Time    time.Time
}

type Reason string

const (
	TxSubmitting = Reason("Submitting")
	TxStatus     = Reason("Status")
	TxInBlock    = Reason("InBlock")
	TxFinalized  = Reason("Finalized")
	TxSucceeded  = Reason("Succeeded")
	TxFailed     = Reason("Failed")
	TxInvalid    = Reason("Invalid")
	TxError      = Reason("Error")
	TxDone       = Reason("Done")
)

// Terminal reports whether no further messages follow for the transaction.
func (r Reason) Terminal() bool {
	return r == TxDone
}
