package config

const (
	MsaModuleId      = "Msa"
	CapacityModuleId = "Capacity"
	SystemModuleId   = "System"

	StoragePublicKeyToMsaId        = "PublicKeyToMsaId"
	StorageProviderToRegistryEntry = "ProviderToRegistryEntry"
	StorageCapacityLedger          = "CapacityLedger"
	StorageCurrentEpoch            = "CurrentEpoch"
	StorageAccount                 = "Account"
	StorageEvents                  = "Events"

	MethodCreateMsa         = "Msa.create"
	MethodCreateProvider    = "Msa.create_provider"
	MethodAddPublicKeyToMsa = "Msa.add_public_key_to_msa"
	MethodStake             = "Capacity.stake"

	ExtrinsicSuccessEventId = "ExtrinsicSuccess"
	ExtrinsicFailedEventId  = "ExtrinsicFailed"

	// blocks an add-key payload stays valid for
	AddKeyExpirationBlocks = 100
)
