package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	simulatePair    string
	simulateVault   float64
	simulateLending float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一次待补奖励并触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateVault <= 0 && simulateLending <= 0 {
			return errors.New("--vault-usd 与 --lending-usd 至少一个必须大于 0")
		}
		return getApp().SimulateAlert(cmd.Context(), simulatePair, decimal.NewFromFloat(simulateVault), decimal.NewFromFloat(simulateLending))
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulatePair, "pair", "WSOL/USDC", "模拟的金库交易对")
	simulateCmd.Flags().Float64Var(&simulateVault, "vault-usd", 500000, "金库供应端待补金额 (USD)")
	simulateCmd.Flags().Float64Var(&simulateLending, "lending-usd", 0, "借贷待补金额 (USD)")
}
