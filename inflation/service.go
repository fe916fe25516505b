// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package inflation computes the emission feeding the staking reward pools.
package inflation

import (
	"math"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/currency"
	"github.com/vechain/dappstaking/log"
	"github.com/vechain/dappstaking/metrics"
	"github.com/vechain/dappstaking/perthing"
	"github.com/vechain/dappstaking/storage"
	"github.com/vechain/dappstaking/types"
)

var logger = log.WithContext("pkg", "inflation")

var (
	// ErrInvalidParameters is returned when the parts do not sum to one.
	ErrInvalidParameters = errors.New("invalid inflation parameters")
	// ErrPayoutCapExceeded is returned when a payout would exceed the relaxed issuance safety cap.
	ErrPayoutCapExceeded = errors.New("reward payout exceeds issuance safety cap")
)

var (
	slotParams = storage.Slot("inflation-params")
	slotConfig = storage.Slot("inflation-config")

	metricDecayFactor = metrics.LazyLoadGauge("inflation_decay_factor_ppb")
	metricEmitted     = metrics.LazyLoadCounterVec("inflation_emitted_tokens", []string{"beneficiary"})
)

var tokenUnit = big.NewInt(1e18)

// wholeTokens converts an amount to whole tokens for the counters, saturating at MaxInt64.
func wholeTokens(amount *big.Int) int64 {
	if amount == nil || amount.Sign() <= 0 {
		return 0
	}
	n := new(big.Int).Quo(amount, tokenUnit)
	if !n.IsInt64() {
		return math.MaxInt64
	}
	return n.Int64()
}

// Beneficiaries receive the per block rewards.
type Beneficiaries struct {
	Collators types.Address
	Treasury  types.Address
}

// Service manages the inflation parameters and the active configuration.
type Service struct {
	params        *storage.Value[Parameters]
	config        *storage.Value[Configuration]
	currency      currency.Currency
	cycle         CycleConfig
	beneficiaries Beneficiaries
}

func New(sctx *storage.Context, cur currency.Currency, cycle CycleConfig, beneficiaries Beneficiaries) *Service {
	return &Service{
		params:        storage.NewValue[Parameters](sctx, slotParams),
		config:        storage.NewValue[Configuration](sctx, slotConfig),
		currency:      cur,
		cycle:         cycle,
		beneficiaries: beneficiaries,
	}
}

// Initialized reports whether parameters were ever stored.
func (s *Service) Initialized() (bool, error) {
	return s.params.Exists()
}

// Initialize stores the parameters and computes the first configuration.
func (s *Service) Initialize(params Parameters, era types.EraIndex) error {
	if err := s.ForceSetParameters(params); err != nil {
		return err
	}
	_, err := s.Recalculate(era)
	return err
}

func (s *Service) Parameters() (Parameters, error) {
	params, err := s.params.Get()
	return params, errors.Wrap(err, "failed to get inflation parameters")
}

func (s *Service) Configuration() (*Configuration, error) {
	config, err := s.config.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get inflation configuration")
	}
	config.normalize()
	return &config, nil
}

func (s *Service) setConfiguration(config *Configuration) error {
	metricDecayFactor().Set(int64(config.DecayFactor.Parts() / 1_000_000_000))
	return errors.Wrap(s.config.Set(*config), "failed to set inflation configuration")
}

// Recalculate recomputes the configuration from the stored parameters and the current issuance.
func (s *Service) Recalculate(era types.EraIndex) (*Configuration, error) {
	params, err := s.Parameters()
	if err != nil {
		return nil, err
	}
	issuance, err := s.currency.TotalIssuance()
	if err != nil {
		return nil, err
	}
	config := Compute(params, s.cycle, issuance, era)
	if err := s.setConfiguration(&config); err != nil {
		return nil, err
	}
	logger.Info("inflation recalculated",
		"era", era,
		"next", config.RecalculationEra,
		"issuance", issuance,
		"dappPool", config.DAppRewardPoolPerEra,
	)
	return &config, nil
}

// OnInitialize pays the decayed per block rewards and compounds the decay factor.
func (s *Service) OnInitialize() error {
	config, err := s.Configuration()
	if err != nil {
		return err
	}

	collators := config.DecayFactor.Mul(config.CollatorRewardPerBlock)
	treasury := config.DecayFactor.Mul(config.TreasuryRewardPerBlock)
	if err := s.currency.Mint(s.beneficiaries.Collators, collators); err != nil {
		return errors.Wrap(err, "failed to pay collators")
	}
	if err := s.currency.Mint(s.beneficiaries.Treasury, treasury); err != nil {
		return errors.Wrap(err, "failed to pay treasury")
	}
	metricEmitted().AddWithLabel(wholeTokens(collators), map[string]string{"beneficiary": "collators"})
	metricEmitted().AddWithLabel(wholeTokens(treasury), map[string]string{"beneficiary": "treasury"})

	if config.DecayRate.IsOne() {
		return nil
	}
	config.DecayFactor = config.DecayFactor.MulFrac(config.DecayRate)
	return s.setConfiguration(config)
}

// OnNewEra recalculates the configuration once its recalculation era is reached.
// It returns the new configuration, or nil when nothing changed.
func (s *Service) OnNewEra(era types.EraIndex) (*Configuration, error) {
	config, err := s.Configuration()
	if err != nil {
		return nil, err
	}
	if era < config.RecalculationEra {
		return nil, nil
	}
	return s.Recalculate(era)
}

// StakerAndDAppRewardPools returns the decayed staker and dApp pools of an era
// given the total staked amount.
func (s *Service) StakerAndDAppRewardPools(totalStaked *big.Int) (staker, dapp *big.Int, err error) {
	config, err := s.Configuration()
	if err != nil {
		return nil, nil, err
	}
	issuance, err := s.currency.TotalIssuance()
	if err != nil {
		return nil, nil, err
	}

	// adjustable = adjustable_pool * min(1, staked_ratio / ideal_staking_rate)
	stakedRatio := perthing.PerquintillFromRational(totalStaked, issuance)
	adjustment := stakedRatio.Div(config.IdealStakingRate)
	adjustable := adjustment.Mul(config.AdjustableStakerRewardPoolPerEra)

	staker = new(big.Int).Add(config.BaseStakerRewardPoolPerEra, adjustable)
	staker = config.DecayFactor.Mul(staker)
	dapp = config.DecayFactor.Mul(config.DAppRewardPoolPerEra)
	return staker, dapp, nil
}

// BonusRewardPool returns the decayed bonus pool of a period.
func (s *Service) BonusRewardPool() (*big.Int, error) {
	config, err := s.Configuration()
	if err != nil {
		return nil, err
	}
	return config.DecayFactor.Mul(config.BonusRewardPoolPerPeriod), nil
}

// PayoutReward mints a reward to account, refusing payouts that break the relaxed safety cap.
func (s *Service) PayoutReward(account types.Address, reward *big.Int) error {
	if err := s.checkPayoutCap(reward); err != nil {
		return err
	}
	return s.currency.Mint(account, reward)
}

func (s *Service) checkPayoutCap(payout *big.Int) error {
	config, err := s.Configuration()
	if err != nil {
		return err
	}
	issuance, err := s.currency.TotalIssuance()
	if err != nil {
		return err
	}

	newIssuance := new(big.Int).Add(issuance, payout)
	if newIssuance.Cmp(config.IssuanceSafetyCap) > 0 {
		logger.Error("issuance safety cap exceeded", "issuance", newIssuance, "cap", config.IssuanceSafetyCap)
	}
	// 1% overflow is tolerated for rounding
	relaxed := new(big.Int).Mul(config.IssuanceSafetyCap, big.NewInt(101))
	relaxed.Quo(relaxed, big.NewInt(100))
	if newIssuance.Cmp(relaxed) > 0 {
		return ErrPayoutCapExceeded
	}
	return nil
}

// ForceSetParameters replaces the parameters, they take effect at the next recalculation.
func (s *Service) ForceSetParameters(params Parameters) error {
	if !params.IsValid() {
		return ErrInvalidParameters
	}
	return errors.Wrap(s.params.Set(params), "failed to set inflation parameters")
}

// ForceSetConfiguration replaces the active configuration without validation.
func (s *Service) ForceSetConfiguration(config Configuration) error {
	config.normalize()
	logger.Warn("inflation configuration forced", "recalculationEra", config.RecalculationEra)
	return s.setConfiguration(&config)
}

// ForceRecalculation recomputes the configuration immediately.
func (s *Service) ForceRecalculation(era types.EraIndex) (*Configuration, error) {
	return s.Recalculate(era)
}
