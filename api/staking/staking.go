// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/api/utils"
	dappstaking "github.com/vechain/dappstaking/staking"
	"github.com/vechain/dappstaking/types"
)

// Staking serves read-only views of the engine state.
type Staking struct {
	engine *dappstaking.Engine
}

func New(engine *dappstaking.Engine) *Staking {
	return &Staking{engine}
}

func (s *Staking) handleGetProtocol(w http.ResponseWriter, _ *http.Request) error {
	ps, err := s.engine.ProtocolState()
	if err != nil {
		return err
	}
	totals, err := s.engine.Totals()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertProtocol(ps, totals))
}

func (s *Staking) handleGetLedger(w http.ResponseWriter, req *http.Request) error {
	account, err := utils.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	l, err := s.engine.Ledger(account)
	if err != nil {
		return err
	}
	contracts, err := s.engine.StakedContracts(account)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertLedger(l, contracts))
}

func (s *Staking) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	account, err := utils.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	contract, err := utils.ParseAddress("contract", mux.Vars(req)["contract"])
	if err != nil {
		return err
	}
	info, err := s.engine.StakerInfo(account, contract)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertStakerInfo(info))
}

func (s *Staking) handleGetDApps(w http.ResponseWriter, _ *http.Request) error {
	contracts, err := s.engine.RegisteredDApps()
	if err != nil {
		return err
	}
	dapps := make([]*DApp, 0, len(contracts))
	for _, contract := range contracts {
		info, err := s.engine.DApp(contract)
		if err != nil {
			return err
		}
		dapps = append(dapps, convertDApp(contract, info))
	}
	return utils.WriteJSON(w, dapps)
}

func (s *Staking) handleGetDApp(w http.ResponseWriter, req *http.Request) error {
	contract, err := utils.ParseAddress("contract", mux.Vars(req)["contract"])
	if err != nil {
		return err
	}
	info, err := s.engine.DApp(contract)
	if err != nil {
		return err
	}
	if info.IsEmpty() {
		return utils.NotFound(errors.Errorf("dapp %s not found", contract))
	}
	return utils.WriteJSON(w, convertDApp(contract, info))
}

func (s *Staking) handleGetContractStake(w http.ResponseWriter, req *http.Request) error {
	contract, err := utils.ParseAddress("contract", mux.Vars(req)["contract"])
	if err != nil {
		return err
	}
	era, err := s.parseEra(req)
	if err != nil {
		return err
	}
	cs, err := s.engine.ContractStake(contract, era)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{
		"era":             era,
		"total":           amount(cs.Total),
		"numberOfStakers": cs.NumberOfStakers,
		"rewardClaimed":   cs.RewardClaimed,
	})
}

func (s *Staking) handleGetEra(w http.ResponseWriter, req *http.Request) error {
	era, err := s.parseEra(req)
	if err != nil {
		return err
	}
	info, err := s.engine.EraInfo(era)
	if err != nil {
		return err
	}
	if info == nil {
		return utils.NotFound(errors.Errorf("era %d is open or pruned", era))
	}
	return utils.WriteJSON(w, convertEra(era, info))
}

func (s *Staking) handleGetEraTiers(w http.ResponseWriter, req *http.Request) error {
	era, err := s.parseEra(req)
	if err != nil {
		return err
	}
	rewards, err := s.engine.TierRewards(era)
	if err != nil {
		return err
	}
	if rewards == nil {
		return utils.NotFound(errors.Errorf("no tier assignment for era %d", era))
	}
	return utils.WriteJSON(w, convertTiers(era, rewards))
}

func (s *Staking) handleGetTiers(w http.ResponseWriter, _ *http.Request) error {
	config, err := s.engine.TierConfiguration()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertTierConfiguration(config))
}

func (s *Staking) handleGetPeriodEnd(w http.ResponseWriter, req *http.Request) error {
	period, err := utils.ParseUint32("period", mux.Vars(req)["period"])
	if err != nil {
		return err
	}
	end, err := s.engine.PeriodEnd(types.PeriodNumber(period))
	if err != nil {
		return err
	}
	if end == nil {
		return utils.NotFound(errors.Errorf("period %d has not ended or is pruned", period))
	}
	return utils.WriteJSON(w, utils.M{
		"period":           period,
		"finalEra":         end.FinalEra,
		"bonusRewardPool":  amount(end.BonusRewardPool),
		"totalVotingStake": amount(end.TotalVotingStake),
	})
}

func (s *Staking) handleGetInflation(w http.ResponseWriter, _ *http.Request) error {
	config, err := s.engine.InflationConfiguration()
	if err != nil {
		return err
	}
	params, err := s.engine.InflationParameters()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertInflation(config, params))
}

func (s *Staking) parseEra(req *http.Request) (types.EraIndex, error) {
	value := mux.Vars(req)["era"]
	if value == "current" {
		ps, err := s.engine.ProtocolState()
		if err != nil {
			return 0, err
		}
		return ps.Era, nil
	}
	era, err := utils.ParseUint32("era", value)
	return types.EraIndex(era), err
}

// Mount registers the routes under pathPrefix, or on root itself for an empty prefix.
func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root
	if pathPrefix != "" {
		sub = root.PathPrefix(pathPrefix).Subrouter()
	}

	sub.Path("/protocol").
		Methods(http.MethodGet).
		Name("staking_get_protocol").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetProtocol))
	sub.Path("/accounts/{address}/ledger").
		Methods(http.MethodGet).
		Name("staking_get_ledger").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetLedger))
	sub.Path("/accounts/{address}/stakes/{contract}").
		Methods(http.MethodGet).
		Name("staking_get_stake").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStake))
	sub.Path("/dapps").
		Methods(http.MethodGet).
		Name("staking_get_dapps").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetDApps))
	sub.Path("/dapps/{contract}").
		Methods(http.MethodGet).
		Name("staking_get_dapp").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetDApp))
	sub.Path("/dapps/{contract}/eras/{era}").
		Methods(http.MethodGet).
		Name("staking_get_contract_stake").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetContractStake))
	sub.Path("/eras/{era}").
		Methods(http.MethodGet).
		Name("staking_get_era").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetEra))
	sub.Path("/eras/{era}/tiers").
		Methods(http.MethodGet).
		Name("staking_get_era_tiers").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetEraTiers))
	sub.Path("/tiers").
		Methods(http.MethodGet).
		Name("staking_get_tiers").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetTiers))
	sub.Path("/periods/{period}").
		Methods(http.MethodGet).
		Name("staking_get_period_end").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetPeriodEnd))
	sub.Path("/inflation").
		Methods(http.MethodGet).
		Name("staking_get_inflation").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetInflation))
}
