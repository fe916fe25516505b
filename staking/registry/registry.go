// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/staking/reverts"
	"github.com/vechain/dappstaking/storage"
	"github.com/vechain/dappstaking/types"
)

type Status uint8

const (
	StatusRegistered Status = iota
	StatusUnregistered
)

func (s Status) String() string {
	if s == StatusUnregistered {
		return "Unregistered"
	}
	return "Registered"
}

// DAppInfo describes a registered contract. Entries are kept after unregistration so that
// claims for eras before it stay valid.
type DAppInfo struct {
	ID              types.DAppID
	Developer       types.Address
	Owner           types.Address
	Beneficiary     types.Address // zero means the owner
	Status          Status
	UnregisteredEra types.EraIndex
}

func (d *DAppInfo) IsEmpty() bool {
	return d.Developer.IsZero() && d.Owner.IsZero()
}

func (d *DAppInfo) IsRegistered() bool {
	return !d.IsEmpty() && d.Status == StatusRegistered
}

// RewardBeneficiary returns the account receiving dApp rewards.
func (d *DAppInfo) RewardBeneficiary() types.Address {
	if d.Beneficiary.IsZero() {
		return d.Owner
	}
	return d.Beneficiary
}

// RegisteredAt reports whether the contract could earn in era.
func (d *DAppInfo) RegisteredAt(era types.EraIndex) bool {
	if d.IsEmpty() {
		return false
	}
	return d.Status == StatusRegistered || era < d.UnregisteredEra
}

var (
	slotDApps      = storage.Slot("dapps")
	slotDevelopers = storage.Slot("dapp-developers")
	slotIDs        = storage.Slot("dapp-ids")
	slotNextID     = storage.Slot("dapp-next-id")
)

const registeredList = "registered-dapps"

// Service stores the contract registry.
type Service struct {
	dapps      *storage.Mapping[types.Address, DAppInfo]
	developers *storage.Mapping[types.Address, types.Address]
	ids        *storage.Mapping[types.DAppID, types.Address]
	nextID     *storage.Value[types.DAppID]
	registered *storage.LinkedList
}

func New(sctx *storage.Context) *Service {
	return &Service{
		dapps:      storage.NewMapping[types.Address, DAppInfo](sctx, slotDApps),
		developers: storage.NewMapping[types.Address, types.Address](sctx, slotDevelopers),
		ids:        storage.NewMapping[types.DAppID, types.Address](sctx, slotIDs),
		nextID:     storage.NewValue[types.DAppID](sctx, slotNextID),
		registered: storage.NewLinkedList(sctx, registeredList, types.Address{}),
	}
}

// Get returns the info of contract, an empty one if it was never registered.
func (s *Service) Get(contract types.Address) (*DAppInfo, error) {
	info, err := s.dapps.Get(contract)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get dapp")
	}
	return &info, nil
}

// GetRegistered returns the info of contract, failing unless it is registered.
func (s *Service) GetRegistered(contract types.Address) (*DAppInfo, error) {
	info, err := s.Get(contract)
	if err != nil {
		return nil, err
	}
	if !info.IsRegistered() {
		return nil, reverts.Newf(reverts.NotRegisteredContract, "%s", contract)
	}
	return info, nil
}

// ContractOf returns the contract registered with the given id.
func (s *Service) ContractOf(id types.DAppID) (types.Address, error) {
	contract, err := s.ids.Get(id)
	return contract, errors.Wrap(err, "failed to get dapp id")
}

// NextID returns the id the next registration gets, which is also the number of contracts
// ever registered.
func (s *Service) NextID() (types.DAppID, error) {
	id, err := s.nextID.Get()
	return id, errors.Wrap(err, "failed to get next dapp id")
}

// AllContracts returns every contract ever registered, in id order.
func (s *Service) AllContracts() ([]types.Address, error) {
	next, err := s.NextID()
	if err != nil {
		return nil, err
	}
	contracts := make([]types.Address, 0, next)
	for id := types.DAppID(0); id < next; id++ {
		contract, err := s.ContractOf(id)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, contract)
	}
	return contracts, nil
}

// DeveloperContract returns the contract the developer currently has registered.
func (s *Service) DeveloperContract(developer types.Address) (types.Address, error) {
	contract, err := s.developers.Get(developer)
	return contract, errors.Wrap(err, "failed to get developer contract")
}

// Register creates the registry entry and assigns the next id.
func (s *Service) Register(developer, contract types.Address, maxContracts uint32) (*DAppInfo, error) {
	if contract.IsZero() || developer.IsZero() {
		return nil, reverts.New(reverts.InvalidParameters, "zero address")
	}
	existing, err := s.Get(contract)
	if err != nil {
		return nil, err
	}
	if !existing.IsEmpty() {
		return nil, reverts.Newf(reverts.AlreadyRegisteredContract, "%s", contract)
	}
	used, err := s.DeveloperContract(developer)
	if err != nil {
		return nil, err
	}
	if !used.IsZero() {
		return nil, reverts.Newf(reverts.AlreadyUsedDeveloperAccount, "%s already registered %s", developer, used)
	}
	count, err := s.registered.Len()
	if err != nil {
		return nil, err
	}
	if count >= uint64(maxContracts) {
		return nil, reverts.Newf(reverts.ExceededMaxNumberOfContracts, "limit %d", maxContracts)
	}

	id, err := s.nextID.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get next dapp id")
	}
	if id == ^types.DAppID(0) {
		return nil, reverts.New(reverts.ExceededMaxNumberOfContracts, "dapp ids exhausted")
	}
	info := &DAppInfo{
		ID:        id,
		Developer: developer,
		Owner:     developer,
		Status:    StatusRegistered,
	}
	if err := s.dapps.Set(contract, *info); err != nil {
		return nil, errors.Wrap(err, "failed to set dapp")
	}
	if err := s.developers.Set(developer, contract); err != nil {
		return nil, errors.Wrap(err, "failed to set developer")
	}
	if err := s.ids.Set(id, contract); err != nil {
		return nil, errors.Wrap(err, "failed to set dapp id")
	}
	if err := s.nextID.Set(id + 1); err != nil {
		return nil, errors.Wrap(err, "failed to set next dapp id")
	}
	if err := s.registered.Add(contract); err != nil {
		return nil, err
	}
	return info, nil
}

// Unregister marks contract unregistered at era, irreversibly.
func (s *Service) Unregister(contract types.Address, era types.EraIndex) (*DAppInfo, error) {
	info, err := s.GetRegistered(contract)
	if err != nil {
		return nil, err
	}
	info.Status = StatusUnregistered
	info.UnregisteredEra = era
	if err := s.dapps.Set(contract, *info); err != nil {
		return nil, errors.Wrap(err, "failed to set dapp")
	}
	s.developers.Delete(info.Developer)
	if err := s.registered.Remove(contract); err != nil {
		return nil, err
	}
	return info, nil
}

// SetOwner transfers ownership; only the current owner may call it.
func (s *Service) SetOwner(caller, contract, owner types.Address) (*DAppInfo, error) {
	info, err := s.owned(caller, contract)
	if err != nil {
		return nil, err
	}
	if owner.IsZero() {
		return nil, reverts.New(reverts.InvalidParameters, "zero owner")
	}
	info.Owner = owner
	return info, errors.Wrap(s.dapps.Set(contract, *info), "failed to set dapp")
}

// SetBeneficiary sets where dApp rewards go, a zero beneficiary resets it to the owner.
func (s *Service) SetBeneficiary(caller, contract, beneficiary types.Address) (*DAppInfo, error) {
	info, err := s.owned(caller, contract)
	if err != nil {
		return nil, err
	}
	info.Beneficiary = beneficiary
	return info, errors.Wrap(s.dapps.Set(contract, *info), "failed to set dapp")
}

func (s *Service) owned(caller, contract types.Address) (*DAppInfo, error) {
	info, err := s.GetRegistered(contract)
	if err != nil {
		return nil, err
	}
	if info.Owner != caller {
		return nil, reverts.Newf(reverts.NotOwner, "%s is not the owner of %s", caller, contract)
	}
	return info, nil
}

// Registered returns the registered contracts in registration order.
func (s *Service) Registered() ([]types.Address, error) {
	return s.registered.Values()
}

// RegisteredCount returns the number of registered contracts.
func (s *Service) RegisteredCount() (uint64, error) {
	return s.registered.Len()
}

// Iter calls fn with every registered contract and its info.
func (s *Service) Iter(fn func(types.Address, *DAppInfo) error) error {
	return s.registered.Iter(func(contract types.Address) error {
		info, err := s.Get(contract)
		if err != nil {
			return err
		}
		return fn(contract, info)
	})
}
