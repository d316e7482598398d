package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/tidwall/gjson"
)

type Artifact struct {
	ABI      string
	Bytecode string
}

// LoadArtifact reads a compiler artifact with top level abi and bytecode fields.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("artifact %s is not valid JSON", path)
	}

	abiJSON := gjson.GetBytes(data, "abi")
	bytecode := gjson.GetBytes(data, "bytecode")
	// some toolchains nest the bytecode object
	if bytecode.IsObject() {
		bytecode = bytecode.Get("object")
	}
	if !abiJSON.IsArray() || bytecode.String() == "" {
		return nil, fmt.Errorf("artifact %s has no abi or bytecode", path)
	}
	return &Artifact{ABI: abiJSON.Raw, Bytecode: bytecode.String()}, nil
}

type Deployment struct {
	Address common.Address
	TxHash  common.Hash
}

// Deploy creates the contract and waits until its code is on chain.
func Deploy(ctx context.Context, backend Backend, key *ecdsa.PrivateKey, chainID int64, artifact *Artifact, params ...interface{}) (*Deployment, error) {
	parsed, err := abi.JSON(strings.NewReader(artifact.ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse artifact ABI: %w", err)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(chainID))
	if err != nil {
		return nil, fmt.Errorf("failed to build transactor: %w", err)
	}
	opts.Context = ctx

	addr, tx, _, err := bind.DeployContract(opts, parsed, common.FromHex(artifact.Bytecode), backend, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to send deployment: %w", err)
	}

	if _, err := bind.WaitDeployed(ctx, backend, tx); err != nil {
		return nil, fmt.Errorf("waiting for deployment %s: %w", tx.Hash().Hex(), err)
	}
	return &Deployment{Address: addr, TxHash: tx.Hash()}, nil
}
