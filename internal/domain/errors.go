package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for domain operations
var (
	// ErrProxyAlreadyCreated is returned when an admin that already owns a proxy is asked to create another
	ErrProxyAlreadyCreated = errors.New("proxy already created for this admin")

	// ErrProxyNotCreated is returned when an upgrade is attempted before any proxy exists
	ErrProxyNotCreated = errors.New("proxy not created")

	// ErrUnauthorized is returned when someone other than the admin owner attempts a transition
	ErrUnauthorized = errors.New("caller is not the admin owner")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrMissingAdminAddress is returned when an upgrade is requested without an admin address
	ErrMissingAdminAddress = errors.New("admin contract address is not set")

	// ErrMissingPrivateKey is returned when no signing credential is configured
	ErrMissingPrivateKey = errors.New("private key is not set")

	// ErrMissingNetwork is returned when no network was selected
	ErrMissingNetwork = errors.New("network not specified")

	// ErrNetworkMismatch is returned when the RPC reports a different chain than configured
	ErrNetworkMismatch = errors.New("network mismatch")

	// ErrTransactionReverted is returned when a mined transaction has a failed status
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrArtifactNotFound is returned when no compiled artifact exists for a contract type
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrUnknownMethod is returned when a contract type has no method with the requested name
	ErrUnknownMethod = errors.New("unknown method")

	// ErrAborted is returned when the operator declines to broadcast
	ErrAborted = errors.New("aborted by operator")

	// ErrInvariantViolated is wrapped by every InvariantError
	ErrInvariantViolated = errors.New("invariant violated")
)

// ConfigError reports a required setting that is missing or malformed.
// It is always raised before any transaction is submitted.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// TransactionError reports a failed submission or confirmation at a given step.
type TransactionError struct {
	Step     string
	TxHash   common.Hash
	Orphaned []OrphanedContract
	Err      error
}

// OrphanedContract is a contract deployed earlier in a run that nothing references
// after the run aborted.
type OrphanedContract struct {
	Role    string
	Address common.Address
}

func (e *TransactionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed", e.Step)
	if e.TxHash != (common.Hash{}) {
		fmt.Fprintf(&b, " (tx %s)", e.TxHash.Hex())
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	for _, o := range e.Orphaned {
		fmt.Fprintf(&b, "; orphaned %s at %s", o.Role, o.Address.Hex())
	}
	return b.String()
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// InvariantError reports an observed on-chain state that contradicts what the
// run just established.
type InvariantError struct {
	Invariant string
	Expected  common.Address
	Actual    common.Address
}

func (e *InvariantError) Error() string {
	if e.Expected == (common.Address{}) {
		return fmt.Sprintf("invariant violated: %s: got %s", e.Invariant, e.Actual.Hex())
	}
	return fmt.Sprintf("invariant violated: %s: expected %s, got %s",
		e.Invariant, e.Expected.Hex(), e.Actual.Hex())
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolated
}
