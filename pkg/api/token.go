package api

import "github.com/ethereum/go-ethereum/common"

// Network names as they appear in x402 payment requirements.
const (
	NetworkBase          = "base"
	NetworkBaseSepolia   = "base-sepolia"
	NetworkAvalanche     = "avalanche"
	NetworkAvalancheFuji = "avalanche-fuji"
)

// Token describes an ERC-20 stablecoin accepted for payment.
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals int32
}

var usdc = map[string]Token{
	NetworkBase:          {Symbol: "USDC", Address: common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"), Decimals: 6},
	NetworkBaseSepolia:   {Symbol: "USDC", Address: common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e"), Decimals: 6},
	NetworkAvalanche:     {Symbol: "USDC", Address: common.HexToAddress("0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E"), Decimals: 6},
	NetworkAvalancheFuji: {Symbol: "USDC", Address: common.HexToAddress("0x5425890298aed601595a70AB815c96711a31Bc65"), Decimals: 6},
}

// USDC returns the USDC contract on network.
func USDC(network string) (Token, bool) {
	t, ok := usdc[network]

	return t, ok
}
