package substrate

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	"provider-dashboard/config"
	"provider-dashboard/models/submodel"

	scale "github.com/itering/scale.go"
	"github.com/itering/scale.go/source"
	scaleTypes "github.com/itering/scale.go/types"
	"github.com/itering/scale.go/utiles"
	"github.com/stafiprotocol/go-substrate-rpc-client/types"
)

type scaleMetadata struct {
	spec int
	meta *scaleTypes.MetadataStruct
}

// LoadTypes registers a custom type registry json for event decoding.
func LoadTypes(path string) error {
	if path == "" {
		return nil
	}
	content, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	scaleTypes.RegCustomTypes(source.LoadTypeRegistry(content))
	return nil
}

func (gc *GsrpcClient) scaleMetadataAt(blockHash types.Hash) (*scaleMetadata, error) {
	rv, err := gc.api.RPC.State.GetRuntimeVersion(blockHash)
	if err != nil {
		return nil, err
	}
	spec := int(rv.SpecVersion)

	gc.scaleLock.Lock()
	defer gc.scaleLock.Unlock()
	if gc.scaleMeta != nil && gc.scaleMeta.spec == spec {
		return gc.scaleMeta, nil
	}

	var metaRaw string
	if err := gc.api.Client.Call(&metaRaw, "state_getMetadata", blockHash.Hex()); err != nil {
		return nil, err
	}
	m := scale.MetadataDecoder{}
	m.Init(utiles.HexToBytes(metaRaw))
	if err := m.Process(); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	gc.scaleMeta = &scaleMetadata{spec: spec, meta: &m.Metadata}
	return gc.scaleMeta, nil
}

// GetEvents decodes System.Events of the given block.
func (gc *GsrpcClient) GetEvents(blockHash types.Hash) ([]*submodel.ChainEvent, error) {
	meta, err := gc.GetLatestMetadata()
	if err != nil {
		return nil, err
	}
	key, err := types.CreateStorageKey(meta, config.SystemModuleId, config.StorageEvents, nil, nil)
	if err != nil {
		return nil, err
	}
	raw, err := gc.api.RPC.State.GetStorageRaw(key, blockHash)
	if err != nil {
		return nil, err
	}
	if raw == nil || len(*raw) == 0 {
		return nil, nil
	}

	sm, err := gc.scaleMetadataAt(blockHash)
	if err != nil {
		return nil, err
	}
	return DecodeEvents(sm.meta, sm.spec, *raw)
}

// DecodeEvents turns raw System.Events storage into chain events.
func DecodeEvents(meta *scaleTypes.MetadataStruct, spec int, raw []byte) (evts []*submodel.ChainEvent, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode events: %v", r)
		}
	}()

	e := scale.EventsDecoder{}
	option := scaleTypes.ScaleDecoderOption{Metadata: meta, Spec: spec}
	e.Init(scaleTypes.ScaleBytes{Data: raw}, &option)
	e.Process()

	bz, err := json.Marshal(e.Value)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(bz, &evts); err != nil {
		return nil, err
	}
	return evts, nil
}

// EventsOfExtrinsic keeps the events emitted while applying extrinsic idx.
func EventsOfExtrinsic(evts []*submodel.ChainEvent, idx int) []*submodel.ChainEvent {
	out := make([]*submodel.ChainEvent, 0)
	for _, evt := range evts {
		if evt.Phase == 0 && evt.ExtrinsicIdx == idx {
			out = append(out, evt)
		}
	}
	return out
}
