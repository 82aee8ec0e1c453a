package repo

import (
	"encoding/json"

	"github.com/foliotree/foliotree/pkg/ferrors"
	"github.com/foliotree/foliotree/pkg/identity"
)

// metaKey is the single key under which the meta bucket's record is stored;
// the bucket is a singleton table by convention.
var metaKey = []byte("singleton")

// metaRecord is the process-wide state persisted alongside the two tables:
// the account identity, the device's own id, and the metadata_version
// high-water-mark used to request deltas on the next pull.
type metaRecord struct {
	Owner         identity.Owner
	DeviceID      identity.ID
	HighWaterMark identity.HighWaterMark
}

// GetMeta loads the singleton meta record. It returns ferrors.KindNotFound
// if the repo has never been initialized with SetMeta.
func (t *Txn) GetMeta() (identity.Owner, identity.ID, identity.HighWaterMark, error) {
	bucket := t.tx.Bucket(bucketMeta)
	raw := bucket.Get(metaKey)
	if raw == nil {
		return identity.Owner{}, identity.ID{}, identity.HighWaterMark{},
			ferrors.New(ferrors.KindNotFound, "repo has not been initialized with account identity")
	}

	var record metaRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return identity.Owner{}, identity.ID{}, identity.HighWaterMark{},
			ferrors.Wrap(ferrors.KindIO, err, "unable to decode meta record")
	}
	return record.Owner, record.DeviceID, record.HighWaterMark, nil
}

// SetMeta persists the singleton meta record.
func (t *Txn) SetMeta(owner identity.Owner, deviceID identity.ID, mark identity.HighWaterMark) error {
	record := metaRecord{Owner: owner, DeviceID: deviceID, HighWaterMark: mark}
	data, err := json.Marshal(record)
	if err != nil {
		return ferrors.Wrap(ferrors.KindIO, err, "unable to encode meta record")
	}
	bucket := t.tx.Bucket(bucketMeta)
	if err := bucket.Put(metaKey, data); err != nil {
		return ferrors.Wrap(ferrors.KindIO, err, "unable to write meta record")
	}
	return nil
}

// AdvanceHighWaterMark loads the current mark, advances it if version is
// greater, and persists the result. It returns whether the mark advanced.
func (t *Txn) AdvanceHighWaterMark(version uint64) (bool, error) {
	owner, deviceID, mark, err := t.GetMeta()
	if err != nil {
		return false, err
	}
	if !mark.Advance(version) {
		return false, nil
	}
	return true, t.SetMeta(owner, deviceID, mark)
}
