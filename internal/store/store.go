// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

// Package store persists killmail subscriptions in BadgerDB.
//
// Layout:
//
//	sub:<id>                   JSON row
//	sub_channel:<channel>:<id> secondary index, value is the id
//	seq:subscription           badger.Sequence for id assignment
//
// Ids are zero padded in keys so prefix scans return rows in id order.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/firetail/internal/models"
)

const (
	subKeyPrefix        = "sub:"
	subChannelKeyPrefix = "sub_channel:"
	sequenceKey         = "seq:subscription"

	sequenceBandwidth = 16
)

// ErrNotFound is returned when no row exists for an id.
var ErrNotFound = errors.New("subscription not found")

// Options configures Open.
type Options struct {
	Path     string
	InMemory bool
}

// BadgerStore is the subscription store. It is safe for concurrent use.
type BadgerStore struct {
	db     *badger.DB
	seq    *badger.Sequence
	ownsDB bool
}

// Open opens (or creates) a database at opts.Path and returns a store that
// closes it on Close.
func Open(opts Options) (*BadgerStore, error) {
	bopts := badger.DefaultOptions(opts.Path).WithLogger(nil)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// New wraps an already open database. The caller keeps ownership of db.
func New(db *badger.DB) (*BadgerStore, error) {
	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("get id sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq}, nil
}

// Close releases the id sequence and, when opened through Open, the database.
func (s *BadgerStore) Close() error {
	err := s.seq.Release()
	if s.ownsDB {
		if cerr := s.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// row is the persisted shape. Losses is kept as text ("true"/"false") and
// converted to a bool only in toRecord/fromRecord.
type row struct {
	ID        int64     `json:"id"`
	ChannelID int64     `json:"channelid"`
	ServerID  int64     `json:"serverid"`
	OwnerID   int64     `json:"ownerid"`
	Losses    string    `json:"losses"`
	Threshold int64     `json:"threshold"`
	GroupID   int64     `json:"groupid"`
	CreatedAt time.Time `json:"created_at"`
}

func fromRecord(rec *models.SubscriptionRecord) row {
	return row{
		ID:        rec.ID,
		ChannelID: rec.ChannelID,
		ServerID:  rec.GuildID,
		OwnerID:   rec.OwnerID,
		Losses:    strconv.FormatBool(rec.IncludeLosses),
		Threshold: rec.Threshold,
		GroupID:   rec.GroupID,
		CreatedAt: rec.CreatedAt,
	}
}

func (r *row) toRecord() models.SubscriptionRecord {
	return models.SubscriptionRecord{
		ID:            r.ID,
		ChannelID:     r.ChannelID,
		GuildID:       r.ServerID,
		OwnerID:       r.OwnerID,
		GroupID:       r.GroupID,
		Threshold:     r.Threshold,
		IncludeLosses: parseBool(r.Losses),
		CreatedAt:     r.CreatedAt,
	}
}

// parseBool accepts the spellings older rows were written with. Anything
// unrecognised reads as false.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "t", "1", "enable", "on":
		return true
	default:
		return false
	}
}

func subKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", subKeyPrefix, id))
}

func channelPrefix(channelID int64) []byte {
	return []byte(fmt.Sprintf("%s%d:", subChannelKeyPrefix, channelID))
}

func channelKey(channelID, id int64) []byte {
	return []byte(fmt.Sprintf("%s%d:%020d", subChannelKeyPrefix, channelID, id))
}

// Insert assigns an id and creation time to rec, persists it and returns
// the stored record.
func (s *BadgerStore) Insert(_ context.Context, rec models.SubscriptionRecord) (models.SubscriptionRecord, error) {
	next, err := s.seq.Next()
	if err != nil {
		return models.SubscriptionRecord{}, fmt.Errorf("next subscription id: %w", err)
	}
	// Sequences start at 0; ids start at 1 so 0 can mean "unset".
	rec.ID = int64(next) + 1
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(fromRecord(&rec))
	if err != nil {
		return models.SubscriptionRecord{}, fmt.Errorf("marshal subscription: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(subKey(rec.ID), data); err != nil {
			return fmt.Errorf("set subscription: %w", err)
		}
		if err := txn.Set(channelKey(rec.ChannelID, rec.ID), []byte(strconv.FormatInt(rec.ID, 10))); err != nil {
			return fmt.Errorf("set channel index: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.SubscriptionRecord{}, err
	}
	return rec, nil
}

// ByID returns one row or ErrNotFound.
func (s *BadgerStore) ByID(_ context.Context, id int64) (models.SubscriptionRecord, error) {
	var rec models.SubscriptionRecord
	err := s.db.View(func(txn *badger.Txn) error {
		r, err := getRow(txn, id)
		if err != nil {
			return err
		}
		rec = r.toRecord()
		return nil
	})
	return rec, err
}

// All returns every row in id order.
func (s *BadgerStore) All(_ context.Context) ([]models.SubscriptionRecord, error) {
	var recs []models.SubscriptionRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(subKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r row
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			recs = append(recs, r.toRecord())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return recs, nil
}

// ByChannel returns the rows for one channel in id order.
func (s *BadgerStore) ByChannel(_ context.Context, channelID int64) ([]models.SubscriptionRecord, error) {
	var recs []models.SubscriptionRecord
	err := s.db.View(func(txn *badger.Txn) error {
		ids, err := channelIDs(txn, channelID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			r, err := getRow(txn, id)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			recs = append(recs, r.toRecord())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list channel %d subscriptions: %w", channelID, err)
	}
	return recs, nil
}

// Delete removes one row and its index entry. It returns ErrNotFound when
// the row does not exist.
func (s *BadgerStore) Delete(_ context.Context, id int64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		r, err := getRow(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(subKey(id)); err != nil {
			return fmt.Errorf("delete subscription: %w", err)
		}
		if err := txn.Delete(channelKey(r.ChannelID, id)); err != nil {
			return fmt.Errorf("delete channel index: %w", err)
		}
		return nil
	})
}

// DeleteByChannel removes every row for channelID and returns how many
// were removed. Zero matches is not an error.
func (s *BadgerStore) DeleteByChannel(_ context.Context, channelID int64) (int, error) {
	removed := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		ids, err := channelIDs(txn, channelID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := txn.Delete(channelKey(channelID, id)); err != nil {
				return fmt.Errorf("delete channel index: %w", err)
			}
			if _, err := txn.Get(subKey(id)); errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err := txn.Delete(subKey(id)); err != nil {
				return fmt.Errorf("delete subscription %d: %w", id, err)
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete channel %d subscriptions: %w", channelID, err)
	}
	return removed, nil
}

func getRow(txn *badger.Txn, id int64) (row, error) {
	var r row
	item, err := txn.Get(subKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return r, ErrNotFound
	}
	if err != nil {
		return r, fmt.Errorf("get subscription %d: %w", id, err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &r)
	})
	if err != nil {
		return r, fmt.Errorf("decode subscription %d: %w", id, err)
	}
	return r, nil
}

func channelIDs(txn *badger.Txn, channelID int64) ([]int64, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	prefix := channelPrefix(channelID)
	var ids []int64
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		suffix := strings.TrimPrefix(string(it.Item().Key()), string(prefix))
		id, err := strconv.ParseInt(suffix, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt channel index key %q: %w", it.Item().Key(), err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
