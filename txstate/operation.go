package txstate

// Operation is a phase of the client-side transaction lifecycle.
// A run moves linearly through the pending phases and ends at
// TransactionFinished or one of the failure phases.
type Operation string

const (
	Idle Operation = "Idle"

	TransactionStart        Operation = "TransactionStart"
	TransactionStartFailure Operation = "TransactionStartFailure"

	InitTransaction        Operation = "InitTransaction"
	InitTransactionSuccess Operation = "InitTransactionSuccess"
	InitTransactionFailure Operation = "InitTransactionFailure"

	SignTransaction        Operation = "SignTransaction"
	SignTransactionSuccess Operation = "SignTransactionSuccess"
	SignTransactionFailure Operation = "SignTransactionFailure"

	SendTransaction        Operation = "SendTransaction"
	SendTransactionSuccess Operation = "SendTransactionSuccess"
	SendTransactionFailure Operation = "SendTransactionFailure"

	ConfirmTransaction        Operation = "ConfirmTransaction"
	ConfirmTransactionSuccess Operation = "ConfirmTransactionSuccess"
	ConfirmTransactionFailure Operation = "ConfirmTransactionFailure"

	WalletNotFound      Operation = "WalletNotFound"
	TransactionFinished Operation = "TransactionFinished"
)

// IsFailure reports whether op is a failure phase.
func (op Operation) IsFailure() bool {
	switch op {
	case TransactionStartFailure,
		InitTransactionFailure,
		SignTransactionFailure,
		SendTransactionFailure,
		ConfirmTransactionFailure,
		WalletNotFound:
		return true
	}
	return false
}

// IsTerminal reports whether op ends a run. From a terminal phase the only
// legal transition is back to Idle via an explicit reset by the owning view.
func (op Operation) IsTerminal() bool {
	return op == TransactionFinished || op.IsFailure()
}

// Label returns the human-readable label shown for this phase.
func (op Operation) Label() string {
	switch op {
	case Idle:
		return "Ready"
	case TransactionStart, InitTransaction:
		return "Preparing transaction"
	case TransactionStartFailure:
		return "Transaction could not be started"
	case InitTransactionSuccess, SignTransaction:
		return "Waiting for wallet signature"
	case InitTransactionFailure:
		return "Transaction could not be created"
	case SignTransactionSuccess, SendTransaction:
		return "Sending transaction"
	case SignTransactionFailure:
		return "Transaction was not signed"
	case SendTransactionSuccess, ConfirmTransaction:
		return "Confirming transaction"
	case SendTransactionFailure:
		return "Transaction could not be sent"
	case ConfirmTransactionSuccess, TransactionFinished:
		return "Transaction completed"
	case ConfirmTransactionFailure:
		return "Transaction could not be confirmed"
	case WalletNotFound:
		return "Wallet not connected"
	}
	return string(op)
}
