package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTaxonomy_Is(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   error
	}{
		{
			name: "config error unwraps its cause",
			err:  &ConfigError{Field: "admin_address", Err: ErrMissingAdminAddress},
			is:   ErrMissingAdminAddress,
		},
		{
			name: "transaction error unwraps its cause",
			err:  &TransactionError{Step: "upgrade proxy", Err: fmt.Errorf("%w: boom", ErrTransactionReverted)},
			is:   ErrTransactionReverted,
		},
		{
			name: "invariant error",
			err:  &InvariantError{Invariant: "proxy address is stable across upgrades", Expected: proxyCC, Actual: implDD},
			is:   ErrInvariantViolated,
		},
		{
			name: "wrapped invariant error",
			err:  fmt.Errorf("verify: %w", &InvariantError{Invariant: "admin reports a proxy after creation"}),
			is:   ErrInvariantViolated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.is), "got %v", tt.err)
		})
	}
}

func TestInvariantError_Message(t *testing.T) {
	withExpected := &InvariantError{Invariant: "proxy points at the new implementation", Expected: implAA, Actual: implDD}
	assert.Equal(t,
		"invariant violated: proxy points at the new implementation: expected "+implAA.Hex()+", got "+implDD.Hex(),
		withExpected.Error())

	withoutExpected := &InvariantError{Invariant: "admin reports a proxy after creation"}
	assert.Equal(t,
		"invariant violated: admin reports a proxy after creation: got "+common.Address{}.Hex(),
		withoutExpected.Error())

	assert.False(t, errors.Is(withExpected, ErrTransactionReverted))
}

func TestTransactionError_ListsOrphans(t *testing.T) {
	err := &TransactionError{
		Step:   "create proxy",
		TxHash: common.HexToHash("0x01"),
		Err:    ErrTransactionReverted,
		Orphaned: []OrphanedContract{
			{Role: "implementation", Address: implAA},
			{Role: "admin", Address: adminBB},
		},
	}

	msg := err.Error()
	require.Contains(t, msg, "create proxy failed (tx "+common.HexToHash("0x01").Hex()+")")
	assert.Contains(t, msg, "orphaned implementation at "+implAA.Hex())
	assert.Contains(t, msg, "orphaned admin at "+adminBB.Hex())
}
