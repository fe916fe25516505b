// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/inflation"
	"github.com/vechain/dappstaking/staking/protocol"
	"github.com/vechain/dappstaking/staking/reverts"
	"github.com/vechain/dappstaking/staking/tiers"
	"github.com/vechain/dappstaking/types"
)

// Root operations. They are not gated by the maintenance mode.

// Force requests an era or subperiod transition at the next OnInitialize.
func (e *Engine) Force(f protocol.ForcingType) error {
	return e.exec("force", false, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		if f != protocol.ForceEra && f != protocol.ForceSubperiod {
			return reverts.Newf(reverts.InvalidParameters, "cannot force %s", f)
		}
		if err := e.protocol.Force(f); err != nil {
			return err
		}
		logger.Info("transition forced", "force", f, "era", ps.Era)
		e.events.emit(ps, EventForce, types.Address{}, types.Address{}, nil).Detail = f.String()
		return nil
	})
}

// SetMaintenanceMode enables or disables every user operation. Housekeeping keeps
// counting blocks but no era changes while enabled.
func (e *Engine) SetMaintenanceMode(enabled bool) error {
	return e.exec("set-maintenance-mode", false, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		ps.Maintenance = enabled
		if err := e.protocol.SetState(ps); err != nil {
			return err
		}
		logger.Info("maintenance mode", "enabled", enabled)
		e.events.emit(ps, EventMaintenanceMode, types.Address{}, types.Address{}, nil).Detail = strconv.FormatBool(enabled)
		return nil
	})
}

// ForceSetInflationParameters replaces the inflation parameters. They apply from the next recalculation.
func (e *Engine) ForceSetInflationParameters(params inflation.Parameters) error {
	return e.exec("force-inflation-parameters", false, func() error {
		if _, err := e.current(); err != nil {
			return err
		}
		if err := e.inflation.ForceSetParameters(params); err != nil {
			if errors.Is(err, inflation.ErrInvalidParameters) {
				return reverts.Newf(reverts.InvalidParameters, "%v", err)
			}
			return err
		}
		return nil
	})
}

// ForceInflationRecalculation recalculates the inflation configuration at the current era.
func (e *Engine) ForceInflationRecalculation() error {
	return e.exec("force-inflation-recalculation", false, func() error {
		ps, err := e.current()
		if err != nil {
			return err
		}
		_, err = e.inflation.ForceRecalculation(ps.Era)
		return err
	})
}

// SetTierParameters replaces the tier parameters used by the next tier recalculation.
func (e *Engine) SetTierParameters(params tiers.Parameters) error {
	return e.exec("set-tier-parameters", false, func() error {
		if _, err := e.current(); err != nil {
			return err
		}
		if !params.IsValid() {
			return reverts.New(reverts.InvalidParameters, "invalid tier parameters")
		}
		return e.tiers.SetParameters(params)
	})
}
