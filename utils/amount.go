package utils

import (
	"fmt"
	"math/big"
	"strings"
)

var weiPerEth = new(big.Float).SetInt(big.NewInt(1000000000000000000))

// ParseAmountWithETH parses amounts of the form "1ETH" or "0.001ETH"
// into wei.
func ParseAmountWithETH(amountStr string) (*big.Int, error) {
	amountStr = strings.TrimSpace(amountStr)

	if !strings.HasSuffix(strings.ToUpper(amountStr), "ETH") {
		return nil, fmt.Errorf("amount must end with 'ETH' suffix (e.g., '1ETH', '0.01ETH')")
	}

	ethValue := strings.TrimSpace(strings.TrimSuffix(strings.ToUpper(amountStr), "ETH"))

	var ethFloat big.Float
	if _, ok := ethFloat.SetString(ethValue); !ok {
		return nil, fmt.Errorf("invalid numeric value: %s", ethValue)
	}

	weiFloat := new(big.Float).Mul(&ethFloat, weiPerEth)
	wei, _ := weiFloat.Int(nil)

	if wei.Cmp(big.NewInt(0)) <= 0 {
		return nil, fmt.Errorf("amount must be greater than 0")
	}

	return wei, nil
}

// GweiToWei converts a gwei amount to wei, truncating sub-wei precision.
func GweiToWei(gwei float64) *big.Int {
	weiFloat := new(big.Float).Mul(big.NewFloat(gwei), big.NewFloat(1e9))
	wei, _ := weiFloat.Int(nil)
	return wei
}
