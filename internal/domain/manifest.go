package domain

import (
	"github.com/ethereum/go-ethereum/common"
)

// Contract roles used in progress output, manifests and error reports
const (
	RoleImplementation = "implementation"
	RoleAdmin          = "admin"
	RoleProxy          = "proxy"
)

// Default contract type names, matching the GameVoting project layout
const (
	DefaultImplementationContract = "GameVoting"
	DefaultAdminContract          = "GameVotingAdmin"
)

// Admin contract ABI surface the orchestrators rely on
const (
	MethodDeployProxy    = "deployProxy"
	MethodUpgrade        = "upgrade"
	MethodProxy          = "gameVotingProxy"
	MethodImplementation = "implementation"
	MethodOwner          = "owner"
)

// DeploymentManifest is the address triple produced by a successful deploy run
type DeploymentManifest struct {
	Network        string         `json:"network" yaml:"network"`
	ChainID        uint64         `json:"chainId" yaml:"chainId"`
	Deployer       common.Address `json:"deployer" yaml:"deployer"`
	Implementation common.Address `json:"implementation" yaml:"implementation"`
	Admin          common.Address `json:"admin" yaml:"admin"`
	Proxy          common.Address `json:"proxy" yaml:"proxy"`

	ImplementationContract string `json:"implementationContract" yaml:"implementationContract"`
	AdminContract          string `json:"adminContract" yaml:"adminContract"`

	Transactions []TransactionRecord `json:"transactions" yaml:"transactions"`
}

// UpgradeReport is produced by a successful upgrade run
type UpgradeReport struct {
	Network                string         `json:"network" yaml:"network"`
	ChainID                uint64         `json:"chainId" yaml:"chainId"`
	Admin                  common.Address `json:"admin" yaml:"admin"`
	Proxy                  common.Address `json:"proxy" yaml:"proxy"`
	PreviousImplementation common.Address `json:"previousImplementation" yaml:"previousImplementation"`
	NewImplementation      common.Address `json:"newImplementation" yaml:"newImplementation"`
	ImplementationContract string         `json:"implementationContract" yaml:"implementationContract"`

	Transactions []TransactionRecord `json:"transactions" yaml:"transactions"`
}

// TransactionRecord ties a confirmed transaction hash to the step that sent it
type TransactionRecord struct {
	Step   string      `json:"step" yaml:"step"`
	TxHash common.Hash `json:"txHash" yaml:"txHash"`
}
