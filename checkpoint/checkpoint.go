// Package checkpoint stores sampler snapshots in a bolt database.
package checkpoint

import (
	"encoding/json"
	"time"

	"github.com/op/go-logging"
	bolt "go.etcd.io/bbolt"

	"github.com/mrrlab/ribmc/parameter"
)

// log is the global logging variable.
var log = logging.MustGetLogger("checkpoint")

// bucket is the bucket name for all checkpoints.
var bucket = []byte("snapshots")

// CheckpointIO saves and loads snapshots under a key.
type CheckpointIO struct {
	db      *bolt.DB
	key     []byte
	last    time.Time
	seconds float64
}

// NewCheckpointIO creates a new CheckpointIO. A checkpoint is
// considered old after seconds.
func NewCheckpointIO(db *bolt.DB, key []byte, seconds float64) *CheckpointIO {
	return &CheckpointIO{
		db:      db,
		key:     key,
		seconds: seconds,
		last:    time.Now(),
	}
}

// Save saves a snapshot to the database.
func (s *CheckpointIO) Save(snap *parameter.Snapshot) error {
	// Even if saving fails, we do not want to run this code too often.
	s.SetNow()
	data, err := json.Marshal(snap)
	if err != nil {
		log.Error("Error serializing checkpoint", err)
		return err
	}
	err = SaveData(s.db, s.key, data)
	if err != nil {
		log.Error("Error saving checkpoint", err)
		return err
	}
	log.Debugf("Saved checkpoint at iteration %d", snap.Iteration)
	return nil
}

// Load returns the saved snapshot or nil if there is none.
func (s *CheckpointIO) Load() (*parameter.Snapshot, error) {
	b, err := LoadData(s.db, s.key)
	if err != nil || b == nil {
		return nil, err
	}

	var snap *parameter.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, nil
	}
	log.Noticef("Found checkpoint (iter=%v, lnL=%v)", snap.Iteration, snap.LogLikelihood)
	return snap, nil
}

// Old returns true if last checkpoint save time too long ago.
func (s *CheckpointIO) Old() bool {
	return time.Since(s.last).Seconds() > s.seconds
}

// SetNow sets last checkpoint time to now.
func (s *CheckpointIO) SetNow() {
	s.last = time.Now()
}

// SaveData saves values in bolt database.
func SaveData(db *bolt.DB, key []byte, data []byte) error {
	if db == nil {
		return nil
	}
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucket)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// LoadData loads data from bolt database.
func LoadData(db *bolt.DB, key []byte) ([]byte, error) {
	var data []byte
	if db == nil {
		return nil, nil
	}
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		// the value is only valid during the transaction
		if v := b.Get(key); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
