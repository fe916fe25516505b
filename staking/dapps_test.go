// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/dappstaking/staking/registry"
	"github.com/vechain/dappstaking/staking/reverts"
	"github.com/vechain/dappstaking/types"
)

func TestRegister(t *testing.T) {
	test := newTest(t)
	deposit := test.Config().RegisterDeposit

	require.NoError(t, test.Register(dev1, dapp1))
	assertAmount(t, sub(initialFunds, deposit), test.free(dev1))
	reserved, err := test.balances.ReservedBalance(dev1)
	require.NoError(t, err)
	assertAmount(t, deposit, reserved)

	info, err := test.DApp(dapp1)
	require.NoError(t, err)
	assert.Equal(t, types.DAppID(0), info.ID)
	assert.Equal(t, dev1, info.Owner)
	assert.Equal(t, registry.StatusRegistered, info.Status)

	require.NoError(t, test.Register(dev2, dapp2))
	info, err = test.DApp(dapp2)
	require.NoError(t, err)
	assert.Equal(t, types.DAppID(1), info.ID)

	registered, err := test.RegisteredDApps()
	require.NoError(t, err)
	assert.Equal(t, []types.Address{dapp1, dapp2}, registered)
}

func TestRegister_Validation(t *testing.T) {
	test := newTest(t).withDApps()

	assertRevert(t, test.Register(carol, dapp1), reverts.AlreadyRegisteredContract)
	assertRevert(t, test.Register(dev1, dapp3), reverts.AlreadyUsedDeveloperAccount)
	assertRevert(t, test.Register(carol, types.Address{}), reverts.InvalidParameters)

	poor := types.BytesToAddress([]byte("poor"))
	assertRevert(t, test.Register(poor, dapp3), reverts.InsufficientBalance)
	// the failed registration is rolled back
	info, err := test.DApp(dapp3)
	require.NoError(t, err)
	assert.True(t, info.IsEmpty())

	require.NoError(t, test.Register(carol, dapp3))
	assertRevert(t, test.Register(alice, types.BytesToAddress([]byte("dapp4"))), reverts.ExceededMaxNumberOfContracts)
}

func TestRegister_DepositBehindLock(t *testing.T) {
	test := newTest(t)

	require.NoError(t, test.Lock(dev1, initialFunds))
	assertRevert(t, test.Register(dev1, dapp1), reverts.InsufficientBalance)
}

func TestUnregister(t *testing.T) {
	test := newTest(t).withDApps()

	test.advanceEra()
	require.NoError(t, test.Unregister(dapp1))
	assertAmount(t, initialFunds, test.free(dev1))

	info, err := test.DApp(dapp1)
	require.NoError(t, err)
	assert.Equal(t, registry.StatusUnregistered, info.Status)
	assert.Equal(t, types.EraIndex(1), info.UnregisteredEra)
	assert.True(t, info.RegisteredAt(0))
	assert.False(t, info.RegisteredAt(1))

	assertRevert(t, test.Unregister(dapp1), reverts.NotRegisteredContract)
	assertRevert(t, test.Unregister(dapp3), reverts.NotRegisteredContract)

	registered, err := test.RegisteredDApps()
	require.NoError(t, err)
	assert.Equal(t, []types.Address{dapp2}, registered)

	// the developer may register a new contract, the old id is never reused
	require.NoError(t, test.Register(dev1, dapp3))
	info, err = test.DApp(dapp3)
	require.NoError(t, err)
	assert.Equal(t, types.DAppID(2), info.ID)
}

func TestSetDAppOwner(t *testing.T) {
	test := newTest(t).withDApps()

	assertRevert(t, test.SetDAppOwner(carol, dapp1, carol), reverts.NotOwner)
	assertRevert(t, test.SetDAppOwner(dev1, dapp3, carol), reverts.NotRegisteredContract)
	assertRevert(t, test.SetDAppOwner(dev1, dapp1, types.Address{}), reverts.InvalidParameters)

	require.NoError(t, test.SetDAppOwner(dev1, dapp1, carol))
	info, err := test.DApp(dapp1)
	require.NoError(t, err)
	assert.Equal(t, carol, info.Owner)
	assert.Equal(t, dev1, info.Developer)

	// the previous owner lost its rights
	assertRevert(t, test.SetDAppOwner(dev1, dapp1, dev1), reverts.NotOwner)
}

func TestSetDAppRewardDestination(t *testing.T) {
	test := newTest(t).withDApps()

	assertRevert(t, test.SetDAppRewardDestination(carol, dapp1, carol), reverts.NotOwner)

	require.NoError(t, test.SetDAppRewardDestination(dev1, dapp1, carol))
	info, err := test.DApp(dapp1)
	require.NoError(t, err)
	assert.Equal(t, carol, info.RewardBeneficiary())

	require.NoError(t, test.SetDAppRewardDestination(dev1, dapp1, types.Address{}))
	info, err = test.DApp(dapp1)
	require.NoError(t, err)
	assert.Equal(t, dev1, info.RewardBeneficiary())
}
