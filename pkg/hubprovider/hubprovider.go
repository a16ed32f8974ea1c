/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package hubprovider

import (
	"fmt"
	"sort"

	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/trustbloc/edge-core/pkg/log"
)

const logModuleName = "identity-hub-provider"

var logger = log.New(logModuleName)

// Provider represents an identity hub storage provider.
// It wraps an Aries storage provider with the record-oriented operations the identity hub needs.
type Provider struct {
	coreProvider      storage.Provider
	retrievalPageSize uint
}

// NewProvider instantiates a new Provider. retrievalPageSize is used by ariesProvider for query paging.
// It may be ignored if ariesProvider doesn't support paging.
func NewProvider(ariesProvider storage.Provider, retrievalPageSize uint) *Provider {
	return &Provider{
		coreProvider:      ariesProvider,
		retrievalPageSize: retrievalPageSize,
	}
}

// OpenStore opens the identity hub store and registers the tag names the hub uses as secondary indices.
// Tag names already configured on the store are preserved.
func (p *Provider) OpenStore() (*Store, error) {
	coreStore, err := p.coreProvider.OpenStore(StoreName)
	if err != nil {
		return nil, fmt.Errorf("failed to open underlying store: %w", err)
	}

	storeConfiguration, err := p.coreProvider.GetStoreConfig(StoreName)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing store configuration: %w", err)
	}

	storeConfiguration.TagNames = mergeTagNames(storeConfiguration.TagNames, TagNames())

	err = p.coreProvider.SetStoreConfig(StoreName, storeConfiguration)
	if err != nil {
		return nil, fmt.Errorf("failed to set store configuration: %w", err)
	}

	return &Store{coreStore: coreStore, retrievalPageSize: p.retrievalPageSize}, nil
}

// Store represents the identity hub store.
// It wraps an Aries store with additional functionality that's needed for identity hub operations.
type Store struct {
	coreStore         storage.Store
	retrievalPageSize uint
}

// Put stores value under key with the given index tags.
func (s *Store) Put(key string, value []byte, tags ...storage.Tag) error {
	err := s.coreStore.Put(key, value, tags...)
	if err != nil {
		return fmt.Errorf("failed to store record %s: %w", key, err)
	}

	return nil
}

// Get fetches the value associated with the given key.
func (s *Store) Get(key string) ([]byte, error) {
	return s.coreStore.Get(key)
}

// Delete deletes the value associated with the given key.
func (s *Store) Delete(key string) error {
	return s.coreStore.Delete(key)
}

// Batch applies the given operations as a unit: either every operation is applied or none are.
// Commands that touch multiple records assemble all their writes and commit them through
// a single Batch call.
func (s *Store) Batch(operations []storage.Operation) error {
	if len(operations) == 0 {
		return nil
	}

	err := s.coreStore.Batch(operations)
	if err != nil {
		return fmt.Errorf("failed to apply operation batch: %w", err)
	}

	return nil
}

// Entry is a record returned from a tag query.
type Entry struct {
	Key   string
	Value []byte
}

// QueryTag returns all records carrying the given tag. If tagValue is blank, any record
// tagged with tagName matches regardless of value. Results are sorted by key so that
// callers page through them deterministically.
func (s *Store) QueryTag(tagName, tagValue string) ([]Entry, error) {
	var queryStringForUnderlyingStorage string
	if tagValue == "" {
		queryStringForUnderlyingStorage = tagName
	} else {
		queryStringForUnderlyingStorage = fmt.Sprintf("%s:%s", tagName, escapeTagValue(tagValue))
	}

	entries, err := s.queryUnderlyingStore(queryStringForUnderlyingStorage)
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	return entries, nil
}

func (s *Store) queryUnderlyingStore(query string) ([]Entry, error) {
	iterator, err := s.coreStore.Query(query, storage.WithPageSize(int(s.retrievalPageSize)))
	if err != nil {
		return nil, fmt.Errorf("failed to query underlying store: %w", err)
	}

	moreEntries, err := iterator.Next()
	if err != nil {
		return nil, err
	}

	defer storage.Close(iterator, logger)

	var entries []Entry

	for moreEntries {
		key, keyErr := iterator.Key()
		if keyErr != nil {
			return nil, keyErr
		}

		value, valueErr := iterator.Value()
		if valueErr != nil {
			return nil, valueErr
		}

		entries = append(entries, Entry{Key: key, Value: value})

		moreEntries, err = iterator.Next()
		if err != nil {
			return nil, err
		}
	}

	return entries, nil
}

// Adds tag names from tagNames2 that aren't in tagNames1 to tagNames1.
// Duplicate tag names in tagNames2 are discarded.
func mergeTagNames(tagNames1, tagNames2 []string) []string {
	if len(tagNames1) == 0 {
		return tagNames2
	}

	for i := 0; i < len(tagNames2); i++ {
		var found bool

		for j := 0; j < len(tagNames1); j++ {
			if tagNames2[i] == tagNames1[j] {
				found = true
				break
			}
		}

		if !found {
			tagNames1 = append(tagNames1, tagNames2[i])
		}
	}

	return tagNames1
}
