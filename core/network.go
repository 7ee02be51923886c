package core

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

const (
	Mainnet   = "MAINNET"
	Testnet   = "TESTNET"
	Localhost = "LOCALHOST"
	Custom    = "CUSTOM"
)

const (
	MainnetGenesisHash = "0x4a587bf17a404e3572747add7aab7bbe56e805a5479c6c436f07f36fcc8d3ae1"
	TestnetGenesisHash = "0x0c33dfffa907de5683ae21cc6b4af899b5c4de83f3794ed75b2dc74e1b088e72"
)

var (
	ErrUnknownNetwork  = errors.New("unknown network")
	ErrInvalidEndpoint = errors.New("invalid endpoint")
)

// NetworkInfo describes a selectable network.
type NetworkInfo struct {
	Name        string `json:"name"`
	Endpoint    string `json:"endpoint,omitempty"`
	GenesisHash string `json:"genesisHash,omitempty"`
}

func DefaultNetworks() []NetworkInfo {
	return []NetworkInfo{
		{Name: Mainnet, Endpoint: "wss://1.rpc.frequency.xyz", GenesisHash: MainnetGenesisHash},
		{Name: Testnet, Endpoint: "wss://rpc.rococo.frequency.xyz", GenesisHash: TestnetGenesisHash},
		{Name: Localhost, Endpoint: "ws://127.0.0.1:9944"},
		{Name: Custom},
	}
}

// older selector names
var legacyNames = map[string]string{
	"ROCOCO": Testnet,
	"OTHER":  Custom,
}

type Networks struct {
	list []NetworkInfo
}

// NewNetworks builds the selectable list. Entries in extra replace defaults of
// the same name or are appended before CUSTOM.
func NewNetworks(extra []NetworkInfo) *Networks {
	list := DefaultNetworks()
	for _, e := range extra {
		e.Name = strings.ToUpper(e.Name)
		replaced := false
		for i := range list {
			if list[i].Name == e.Name {
				list[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			last := list[len(list)-1]
			list = append(list[:len(list)-1], e, last)
		}
	}
	return &Networks{list: list}
}

func (n *Networks) List() []NetworkInfo {
	out := make([]NetworkInfo, len(n.list))
	copy(out, n.list)
	return out
}

// Lookup resolves a network by name. CUSTOM takes its endpoint from custom.
func (n *Networks) Lookup(name, custom string) (NetworkInfo, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if alias, ok := legacyNames[key]; ok {
		key = alias
	}
	for _, info := range n.list {
		if info.Name != key {
			continue
		}
		if key == Custom {
			if err := ValidateEndpoint(custom); err != nil {
				return NetworkInfo{}, err
			}
			info.Endpoint = custom
		}
		return info, nil
	}
	return NetworkInfo{}, fmt.Errorf("%w: %s", ErrUnknownNetwork, name)
}

func ValidateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: endpoint is empty", ErrInvalidEndpoint)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w %s: %v", ErrInvalidEndpoint, endpoint, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: %s must use ws:// or wss://", ErrInvalidEndpoint, endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %s has no host", ErrInvalidEndpoint, endpoint)
	}
	return nil
}

// IsLocalhost reports whether endpoint points at a local node, which is
// signed for with the development keyring.
func IsLocalhost(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
