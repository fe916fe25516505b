// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tiers

import (
	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/perthing"
	"github.com/vechain/dappstaking/storage"
)

var (
	slotParams = storage.Slot("tier-params")
	slotConfig = storage.Slot("tier-config")
)

// Service stores the tier parameters and the active configuration.
type Service struct {
	params *storage.Value[Parameters]
	config *storage.Value[Configuration]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		params: storage.NewValue[Parameters](sctx, slotParams),
		config: storage.NewValue[Configuration](sctx, slotConfig),
	}
}

func (s *Service) Parameters() (Parameters, error) {
	params, err := s.params.Get()
	return params, errors.Wrap(err, "failed to get tier parameters")
}

func (s *Service) SetParameters(params Parameters) error {
	if !params.IsValid() {
		return errors.New("invalid tier parameters")
	}
	return errors.Wrap(s.params.Set(params), "failed to set tier parameters")
}

func (s *Service) Configuration() (Configuration, error) {
	config, err := s.config.Get()
	return config, errors.Wrap(err, "failed to get tier configuration")
}

func (s *Service) SetConfiguration(config Configuration) error {
	if !config.IsValid() {
		return errors.New("invalid tier configuration")
	}
	return errors.Wrap(s.config.Set(config), "failed to set tier configuration")
}

// Recalculate replaces the configuration with one derived from the price.
func (s *Service) Recalculate(price perthing.FixedU64) (Configuration, error) {
	params, err := s.Parameters()
	if err != nil {
		return Configuration{}, err
	}
	config, err := s.Configuration()
	if err != nil {
		return Configuration{}, err
	}
	next := config.CalculateNew(price, params)
	if err := s.SetConfiguration(next); err != nil {
		return Configuration{}, err
	}
	return next, nil
}
