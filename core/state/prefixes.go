package state

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

var (
	accountPrefix          = []byte("editions/account/")
	deploymentPrefix       = []byte("editions/deployment/")
	controlsPrefix         = []byte("editions/controls/")
	itemPrefix             = []byte("editions/item/")
	hashlistPrefix         = []byte("editions/hashlist/")
	metadataPrefix         = []byte("editions/meta/")
	minterStatsPrefix      = []byte("editions/minter/")
	minterStatsPhasePrefix = []byte("editions/minterphase/")

	symbolListKey = ethcrypto.Keccak256([]byte("editions/symbols"))
)
