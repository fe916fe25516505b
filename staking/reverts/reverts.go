// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the validation failures of staking operations. A revert is the
// caller's fault: it aborts the operation and is surfaced verbatim.
package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies a revert.
type Kind uint8

const (
	InsufficientBalance Kind = iota + 1
	NotEnoughFundsToUnlock
	TooManyUnlockingChunks
	UnavailableStakeFunds
	BelowMinimumStakeAmount
	NotRegisteredContract
	AlreadyRegisteredContract
	AlreadyUsedDeveloperAccount
	NoClaimableRewards
	AlreadyClaimed
	FutureEra
	HistoryUnavailable
	ZeroAmount
	LockedAmountBelowThreshold
	TooManyEraStakeValues
	TooManyStakedContracts
	MaxNumberOfStakersExceeded
	ExceededMaxNumberOfContracts
	UnclaimedRewardsRemaining
	NotStakedContract
	SameContract
	NotOwner
	Disabled
	RewardNotExpired
	RewardPayoutFailed
	InvalidParameters
	NoUnlockingChunks
	NotUnregisteredContract
)

var kindNames = map[Kind]string{
	InsufficientBalance:          "InsufficientBalance",
	NotEnoughFundsToUnlock:       "NotEnoughFundsToUnlock",
	TooManyUnlockingChunks:       "TooManyUnlockingChunks",
	UnavailableStakeFunds:        "UnavailableStakeFunds",
	BelowMinimumStakeAmount:      "BelowMinimumStakeAmount",
	NotRegisteredContract:        "NotRegisteredContract",
	AlreadyRegisteredContract:    "AlreadyRegisteredContract",
	AlreadyUsedDeveloperAccount:  "AlreadyUsedDeveloperAccount",
	NoClaimableRewards:           "NoClaimableRewards",
	AlreadyClaimed:               "AlreadyClaimed",
	FutureEra:                    "FutureEra",
	HistoryUnavailable:           "HistoryUnavailable",
	ZeroAmount:                   "ZeroAmount",
	LockedAmountBelowThreshold:   "LockedAmountBelowThreshold",
	TooManyEraStakeValues:        "TooManyEraStakeValues",
	TooManyStakedContracts:       "TooManyStakedContracts",
	MaxNumberOfStakersExceeded:   "MaxNumberOfStakersExceeded",
	ExceededMaxNumberOfContracts: "ExceededMaxNumberOfContracts",
	UnclaimedRewardsRemaining:    "UnclaimedRewardsRemaining",
	NotStakedContract:            "NotStakedContract",
	SameContract:                 "SameContract",
	NotOwner:                     "NotOwner",
	Disabled:                     "Disabled",
	RewardNotExpired:             "RewardNotExpired",
	RewardPayoutFailed:           "RewardPayoutFailed",
	InvalidParameters:            "InvalidParameters",
	NoUnlockingChunks:            "NoUnlockingChunks",
	NotUnregisteredContract:      "NotUnregisteredContract",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

// Newf creates a revert with a formatted message.
func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func (e *ErrRevert) Error() string {
	if e.message == "" {
		return e.kind.String()
	}
	return e.kind.String() + ": " + e.message
}

// Is matches another revert of the same kind, so errors.Is works against sentinel values.
func (e *ErrRevert) Is(target error) bool {
	var other *ErrRevert
	if !errors.As(target, &other) {
		return false
	}
	return other.kind == e.kind
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// Is reports whether err wraps a revert of the given kind.
func Is(err error, kind Kind) bool {
	var ve *ErrRevert
	if !errors.As(err, &ve) {
		return false
	}
	return ve.kind == kind
}

// KindOf returns the kind of the wrapped revert, or zero.
func KindOf(err error) Kind {
	var ve *ErrRevert
	if !errors.As(err, &ve) {
		return 0
	}
	return ve.kind
}
