package server

import (
	"provider-dashboard/chains/frequency"
	"provider-dashboard/core"
)

// Backend is what the HTTP surface drives. *frequency.Dashboard implements it.
type Backend interface {
	Networks() []core.NetworkInfo
	State() core.State
	Store() *core.Store
	Router() *core.Router

	Connect(name, custom string) error
	SelectSigner(address string) (core.MsaInfo, error)
	SetAction(a core.ActionForm)
	RefreshMsaInfo() (core.MsaInfo, error)
	MsaInfo(address string) (core.MsaInfo, error)
	Capacity() (*frequency.CapacityView, error)

	CreateMsa() (string, error)
	CreateProvider(name string) (string, error)
	AddControlKey(newAddress string) (string, error)
	Stake(providerId uint64, amount string) (string, error)
}

var _ Backend = (*frequency.Dashboard)(nil)
