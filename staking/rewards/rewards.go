// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rewards stores the reward history: the snapshot of every closed era, the stake every
// contract gathered per era and the tier rewards of every build&earn era.
package rewards

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/cache"
	"github.com/vechain/dappstaking/metrics"
	"github.com/vechain/dappstaking/staking/tiers"
	"github.com/vechain/dappstaking/storage"
	"github.com/vechain/dappstaking/types"
)

// EraInfo is the snapshot of a closed era. It is never modified after the era closes.
type EraInfo struct {
	StakerRewardPool *big.Int
	DAppRewardPool   *big.Int
	TotalStaked      *big.Int
	TotalLocked      *big.Int
	Period           types.PeriodNumber
	BuildAndEarn     bool
}

// ContractStakeInfo is the stake a contract gathered in one era.
type ContractStakeInfo struct {
	Total           *big.Int
	NumberOfStakers uint32
	RewardClaimed   bool
}

func (c *ContractStakeInfo) IsEmpty() bool {
	return c.Total.Sign() == 0 && c.NumberOfStakers == 0
}

func (c *ContractStakeInfo) normalize() {
	if c.Total == nil {
		c.Total = new(big.Int)
	}
}

var (
	slotEraInfos       = storage.Slot("era-infos")
	slotContractStakes = storage.Slot("contract-stakes")
	slotTierRewards    = storage.Slot("tier-rewards")

	metricCacheHits = metrics.LazyLoadCounterVec("reward_history_cache_total", []string{"kind", "result"})
)

const historyCacheSize = 512

// Service stores the reward history. Closed eras are immutable, so their snapshots and tier
// rewards are cached; the caches must be purged when a transaction is reverted.
type Service struct {
	eraInfos       *storage.Mapping[types.EraIndex, EraInfo]
	contractStakes *storage.Mapping[storage.CompositeKey, ContractStakeInfo]
	tierRewards    *storage.Mapping[types.EraIndex, tiers.DAppTierRewards]

	eraCache  *cache.LRU[types.EraIndex, *EraInfo]
	tierCache *cache.LRU[types.EraIndex, *tiers.DAppTierRewards]
}

func New(sctx *storage.Context) *Service {
	eraCache, _ := cache.NewLRU[types.EraIndex, *EraInfo](historyCacheSize)
	tierCache, _ := cache.NewLRU[types.EraIndex, *tiers.DAppTierRewards](historyCacheSize)
	return &Service{
		eraInfos:       storage.NewMapping[types.EraIndex, EraInfo](sctx, slotEraInfos),
		contractStakes: storage.NewMapping[storage.CompositeKey, ContractStakeInfo](sctx, slotContractStakes),
		tierRewards:    storage.NewMapping[types.EraIndex, tiers.DAppTierRewards](sctx, slotTierRewards),
		eraCache:       eraCache,
		tierCache:      tierCache,
	}
}

// PurgeCache drops cached history.
func (s *Service) PurgeCache() {
	s.eraCache.Purge()
	s.tierCache.Purge()
}

// EraInfo returns the snapshot of a closed era, or nil when there is none.
func (s *Service) EraInfo(era types.EraIndex) (*EraInfo, error) {
	if info, ok := s.eraCache.Get(era); ok {
		metricCacheHits().AddWithLabel(1, map[string]string{"kind": "era", "result": "hit"})
		return info, nil
	}
	metricCacheHits().AddWithLabel(1, map[string]string{"kind": "era", "result": "miss"})
	info, found, err := s.eraInfos.Lookup(era)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get era info")
	}
	if !found {
		return nil, nil
	}
	s.eraCache.Add(era, &info)
	return &info, nil
}

// CloseEra stores the snapshot of era.
func (s *Service) CloseEra(era types.EraIndex, info *EraInfo) error {
	existing, err := s.EraInfo(era)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.Errorf("era %d is already closed", era)
	}
	return errors.Wrap(s.eraInfos.Set(era, *info), "failed to set era info")
}

// TierRewards returns the tier rewards of a closed build&earn era, or nil.
func (s *Service) TierRewards(era types.EraIndex) (*tiers.DAppTierRewards, error) {
	if rewards, ok := s.tierCache.Get(era); ok {
		metricCacheHits().AddWithLabel(1, map[string]string{"kind": "tiers", "result": "hit"})
		return rewards, nil
	}
	metricCacheHits().AddWithLabel(1, map[string]string{"kind": "tiers", "result": "miss"})
	rewards, found, err := s.tierRewards.Lookup(era)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tier rewards")
	}
	if !found {
		return nil, nil
	}
	s.tierCache.Add(era, &rewards)
	return &rewards, nil
}

func (s *Service) SetTierRewards(era types.EraIndex, rewards *tiers.DAppTierRewards) error {
	s.tierCache.Remove(era)
	return errors.Wrap(s.tierRewards.Set(era, *rewards), "failed to set tier rewards")
}

func contractKey(contract types.Address, era types.EraIndex) storage.CompositeKey {
	return storage.CompositeKey{contract, era}
}

// ContractStake returns the stake of contract in era, an empty one when absent.
func (s *Service) ContractStake(contract types.Address, era types.EraIndex) (*ContractStakeInfo, error) {
	info, err := s.contractStakes.Get(contractKey(contract, era))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get contract stake")
	}
	info.normalize()
	return &info, nil
}

func (s *Service) SetContractStake(contract types.Address, era types.EraIndex, info *ContractStakeInfo) error {
	if info.IsEmpty() && !info.RewardClaimed {
		s.contractStakes.Delete(contractKey(contract, era))
		return nil
	}
	return errors.Wrap(s.contractStakes.Set(contractKey(contract, era), *info), "failed to set contract stake")
}

// RotateContractStake carries the stake of contract from era into era+1, unclaimed.
func (s *Service) RotateContractStake(contract types.Address, era types.EraIndex) error {
	info, err := s.ContractStake(contract, era)
	if err != nil {
		return err
	}
	next := &ContractStakeInfo{Total: new(big.Int).Set(info.Total), NumberOfStakers: info.NumberOfStakers}
	return s.SetContractStake(contract, era+1, next)
}

// Prune removes everything stored about era for the given contracts.
func (s *Service) Prune(era types.EraIndex, contracts []types.Address) {
	s.eraInfos.Delete(era)
	s.tierRewards.Delete(era)
	s.eraCache.Remove(era)
	s.tierCache.Remove(era)
	for _, contract := range contracts {
		s.contractStakes.Delete(contractKey(contract, era))
	}
}

// CacheStats returns the hit rate stats of the era snapshot cache.
func (s *Service) CacheStats() *cache.Stats {
	return s.eraCache.Stats()
}
