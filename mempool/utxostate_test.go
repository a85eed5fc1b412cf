// Copyright (C) 2025-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/luxfi/mempool/clock"
	"github.com/luxfi/mempool/ids"
	"github.com/luxfi/mempool/tx"
)

var errInvalidScript = errors.New("invalid script")

// fakeUtxoView is a hand-written UtxoView test double: a fixed set of
// known boxes, with no behavior worth generating a mock for.
type fakeUtxoView struct {
	boxes map[ids.BoxID]tx.Output
}

func (v *fakeUtxoView) BoxByID(boxID ids.BoxID) (tx.Output, bool) {
	out, ok := v.boxes[boxID]
	return out, ok
}

func (v *fakeUtxoView) WithUnconfirmedTransactions(txs []*tx.Transaction) UtxoView {
	merged := make(map[ids.BoxID]tx.Output, len(v.boxes))
	for k, val := range v.boxes {
		merged[k] = val
	}
	for _, t := range txs {
		for _, out := range t.Outputs {
			merged[out.BoxID] = out
		}
	}
	return &fakeUtxoView{boxes: merged}
}

func TestProcessUtxoStateDeclinesOnMissingAncestor(t *testing.T) {
	require := require.New(t)

	m, err := New(testSettings(10, 1), clock.NewMock(time.Unix(0, 0)), nil)
	require.NoError(err)
	defer m.Close()

	view := &fakeUtxoView{boxes: map[ids.BoxID]tx.Output{}}
	ctrl := gomock.NewController(t)
	validator := NewMockStateValidator(ctrl)

	utx := mkUtx(1, 99, 10, 1_000_000, 200) // spends box 99, which nothing produces
	outcome := m.Process(context.Background(), utx, UtxoState{View: view, Validator: validator})

	require.Equal(Declined, outcome.Kind)
	require.Equal("not all utxos in place yet", outcome.Reason)
}

func TestProcessUtxoStateAcceptsWhenAncestorPresent(t *testing.T) {
	require := require.New(t)

	m, err := New(testSettings(10, 1), clock.NewMock(time.Unix(0, 0)), nil)
	require.NoError(err)
	defer m.Close()

	view := &fakeUtxoView{boxes: map[ids.BoxID]tx.Output{
		{99}: {BoxID: ids.BoxID{99}, Value: 10_000_000},
	}}
	ctrl := gomock.NewController(t)
	validator := NewMockStateValidator(ctrl)
	validator.EXPECT().
		ValidateWithCost(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(uint64(1), nil)

	utx := mkUtx(1, 99, 10, 1_000_000, 200)
	outcome := m.Process(context.Background(), utx, UtxoState{View: view, Validator: validator})

	require.Equal(Accepted, outcome.Kind)
	require.True(m.Contains(ids.TxID{1}))
}

func TestProcessUtxoStateInvalidatesOnValidationFailure(t *testing.T) {
	require := require.New(t)

	m, err := New(testSettings(10, 1), clock.NewMock(time.Unix(0, 0)), nil)
	require.NoError(err)
	defer m.Close()

	view := &fakeUtxoView{boxes: map[ids.BoxID]tx.Output{
		{99}: {BoxID: ids.BoxID{99}, Value: 10_000_000},
	}}
	ctrl := gomock.NewController(t)
	validator := NewMockStateValidator(ctrl)
	validator.EXPECT().
		ValidateWithCost(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(uint64(0), errInvalidScript)

	utx := mkUtx(1, 99, 10, 1_000_000, 200)
	outcome := m.Process(context.Background(), utx, UtxoState{View: view, Validator: validator})

	require.Equal(Invalidated, outcome.Kind)
	require.False(m.Contains(ids.TxID{1}))
}
