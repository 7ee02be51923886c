// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package substrate

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"provider-dashboard/utils"

	"github.com/stafiprotocol/chainbridge/utils/crypto/sr25519"
	"github.com/stafiprotocol/chainbridge/utils/keystore"
	"github.com/stafiprotocol/go-substrate-rpc-client/signature"
)

var DevAccounts = []string{"Alice", "Bob", "Charlie", "Dave", "Eve", "Ferdie"}

var ferdieSr25519 = sr25519.NewKeypairFromKRP(signature.KeyringPair{
	URI:       "//Ferdie",
	Address:   "5CiPPseXPECbkjWCa6MnjNokrgYjMqmKndv2rSnekmSK2DjL",
	PublicKey: []byte{0x1c, 0xbd, 0x2d, 0x43, 0x53, 0x0a, 0x44, 0x70, 0x5a, 0xd0, 0x88, 0xaf, 0x31, 0x3e, 0x18, 0xf8, 0x0b, 0x53, 0xef, 0x16, 0xb3, 0x61, 0x77, 0xcd, 0x4b, 0x77, 0xb8, 0x46, 0xf2, 0xa5, 0xf0, 0x7c},
})

var devKeys = map[string]*sr25519.Keypair{
	"Alice":   keystore.TestKeyRing.SubstrateKeys[keystore.AliceKey],
	"Bob":     keystore.TestKeyRing.SubstrateKeys[keystore.BobKey],
	"Charlie": keystore.TestKeyRing.SubstrateKeys[keystore.CharlieKey],
	"Dave":    keystore.TestKeyRing.SubstrateKeys[keystore.DaveKey],
	"Eve":     keystore.TestKeyRing.SubstrateKeys[keystore.EveKey],
	"Ferdie":  ferdieSr25519,
}

const subkeyCmd = "subkey"

// subkeyAvailable reports whether signatures can be produced. The sr25519
// signer shells out to the subkey binary, public keys are known up front.
var subkeyAvailable = func() error {
	if _, err := exec.LookPath(subkeyCmd); err != nil {
		return fmt.Errorf("%w: %s", ErrNoSubkey, err)
	}
	return nil
}

// SignerAvailable returns ErrNoSubkey when this host cannot sign.
func SignerAvailable() error {
	return subkeyAvailable()
}

type NamedKey struct {
	Name      string
	PublicKey []byte
}

// KeySource supplies the accounts that may sign transactions.
type KeySource interface {
	Accounts() ([]NamedKey, error)
	Keypair(pub []byte) (*signature.KeyringPair, error)
}

// DevKeyring holds the well known development accounts of a local node.
type DevKeyring struct {
	names []string
	keys  []*signature.KeyringPair
}

func NewDevKeyring() *DevKeyring {
	d := &DevKeyring{}
	for _, name := range DevAccounts {
		d.names = append(d.names, name)
		d.keys = append(d.keys, devKeys[name].AsKeyringPair())
	}
	return d
}

func (d *DevKeyring) Accounts() ([]NamedKey, error) {
	out := make([]NamedKey, 0, len(d.keys))
	for i, k := range d.keys {
		out = append(out, NamedKey{Name: d.names[i], PublicKey: k.PublicKey})
	}
	return out, nil
}

func (d *DevKeyring) Keypair(pub []byte) (*signature.KeyringPair, error) {
	for _, k := range d.keys {
		if bytes.Equal(k.PublicKey, pub) {
			return k, nil
		}
	}
	return nil, ErrKeyNotFound
}

// ByName looks a development account up by its name, e.g. "Alice".
func (d *DevKeyring) ByName(name string) (*signature.KeyringPair, error) {
	for i, n := range d.names {
		if strings.EqualFold(n, name) {
			return d.keys[i], nil
		}
	}
	return nil, ErrKeyNotFound
}

// Keystore reads encrypted sr25519 key files named <address>.key.
type Keystore struct {
	path     string
	insecure bool
	mu       sync.Mutex
	cache    map[string]*signature.KeyringPair
}

func NewKeystore(path string, insecure bool) *Keystore {
	return &Keystore{
		path:     path,
		insecure: insecure,
		cache:    make(map[string]*signature.KeyringPair),
	}
}

func (k *Keystore) files() (map[string][]byte, error) {
	entries, err := ioutil.ReadDir(k.path)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".key" {
			continue
		}
		address := strings.TrimSuffix(e.Name(), ".key")
		pub, err := utils.PublicKey(address)
		if err != nil {
			continue
		}
		out[address] = pub
	}
	return out, nil
}

func (k *Keystore) Accounts() ([]NamedKey, error) {
	files, err := k.files()
	if err != nil {
		return nil, err
	}
	out := make([]NamedKey, 0, len(files))
	for address, pub := range files {
		out = append(out, NamedKey{Name: address, PublicKey: pub})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (k *Keystore) Keypair(pub []byte) (*signature.KeyringPair, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if kp, ok := k.cache[string(pub)]; ok {
		return kp, nil
	}
	files, err := k.files()
	if err != nil {
		return nil, err
	}
	for address, filePub := range files {
		if !bytes.Equal(filePub, pub) {
			continue
		}
		kp, err := keystore.KeypairFromAddress(address, keystore.SubChain, k.path, k.insecure)
		if err != nil {
			return nil, fmt.Errorf("keypairFromAddress err: %s", err)
		}
		krp := kp.(*sr25519.Keypair).AsKeyringPair()
		k.cache[string(pub)] = krp
		return krp, nil
	}
	return nil, ErrKeyNotFound
}

// SignRaw signs payload the way browser wallets sign raw bytes: wrapped in
// <Bytes></Bytes>. The result is a 64 byte sr25519 signature.
func SignRaw(key *signature.KeyringPair, payload []byte) ([]byte, error) {
	if key == nil {
		return nil, ErrNoKey
	}
	if err := subkeyAvailable(); err != nil {
		return nil, err
	}
	sig, err := signature.Sign(utils.WrapBytes(payload), key.URI)
	if err != nil {
		return nil, err
	}
	if len(sig) != 64 {
		return nil, fmt.Errorf("signature length %d, expected 64", len(sig))
	}
	return sig, nil
}

func VerifyRaw(key *signature.KeyringPair, payload, sig []byte) (bool, error) {
	if key == nil {
		return false, ErrNoKey
	}
	if err := subkeyAvailable(); err != nil {
		return false, err
	}
	return signature.Verify(utils.WrapBytes(payload), sig, key.URI)
}
