package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

//go:embed chains.default.yaml
var defaultRegistry []byte

// ChainDescriptor is one monitored chain deployment.
type ChainDescriptor struct {
	ChainID             int64       `yaml:"chain_id"`
	Name                string      `yaml:"name"`
	BlockExplorerURL    string      `yaml:"block_explorer_url"`
	Image               string      `yaml:"image"`
	ContractAddress     string      `yaml:"contract_address"`
	RPCURL              string      `yaml:"rpc_url"`
	FeeCollectorAddress string      `yaml:"fee_collector_address"`
	NativeAsset         NativeAsset `yaml:"native_asset"`
}

// NativeAsset describes the chain's gas token as it is seeded into the
// token table.
type NativeAsset struct {
	Symbol        string `yaml:"symbol"`
	Decimals      int    `yaml:"decimals"`
	Address       string `yaml:"address"`
	PriceOracleID string `yaml:"price_oracle_id"`
	ImageURI      string `yaml:"image_uri"`
}

type registryFile struct {
	Chains []ChainDescriptor `yaml:"chains"`
}

// LoadRegistry reads the chain registry from path, or the built-in
// registry when path is empty.
func LoadRegistry(path string) ([]ChainDescriptor, error) {
	raw := defaultRegistry
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		raw = b
	}
	return ParseRegistry(raw)
}

// ParseRegistry expands ${VAR} references, decodes the YAML document and
// validates every descriptor. Addresses are returned in checksum form.
func ParseRegistry(raw []byte) ([]ChainDescriptor, error) {
	var file registryFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &file); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}

	seen := make(map[int64]struct{}, len(file.Chains))
	chains := make([]ChainDescriptor, 0, len(file.Chains))
	for i, c := range file.Chains {
		if err := normalizeDescriptor(&c); err != nil {
			return nil, fmt.Errorf("chain[%d]: %w", i, err)
		}
		if _, dup := seen[c.ChainID]; dup {
			return nil, fmt.Errorf("chain[%d]: duplicate chain_id %d", i, c.ChainID)
		}
		seen[c.ChainID] = struct{}{}
		chains = append(chains, c)
	}
	return chains, nil
}

func normalizeDescriptor(c *ChainDescriptor) error {
	if c.ChainID <= 0 {
		return fmt.Errorf("chain_id must be positive")
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("name is required for chain %d", c.ChainID)
	}
	c.RPCURL = strings.TrimSpace(c.RPCURL)
	if c.RPCURL == "" {
		return fmt.Errorf("rpc_url is required for chain %d", c.ChainID)
	}

	var err error
	if c.ContractAddress, err = checksumAddress("contract_address", c.ContractAddress); err != nil {
		return err
	}
	if c.FeeCollectorAddress, err = checksumAddress("fee_collector_address", c.FeeCollectorAddress); err != nil {
		return err
	}
	if c.NativeAsset.Address, err = checksumAddress("native_asset.address", c.NativeAsset.Address); err != nil {
		return err
	}
	if c.NativeAsset.Symbol == "" {
		return fmt.Errorf("native_asset.symbol is required for chain %d", c.ChainID)
	}
	if c.NativeAsset.Decimals < 0 || c.NativeAsset.Decimals > 77 {
		return fmt.Errorf("native_asset.decimals %d out of range for chain %d", c.NativeAsset.Decimals, c.ChainID)
	}
	return nil
}

func checksumAddress(field, addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("%s %q is not a hex address", field, addr)
	}
	return common.HexToAddress(addr).Hex(), nil
}
