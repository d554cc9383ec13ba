// Tourin - Tourism Catalog and Personalized Recommendations
// Copyright 2026 Kanjoong (kanjoong)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kanjoong/tourin

package catalog

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Pub/sub topics the store publishes on. Consumers subscribe to these
// instead of observing the store's internal collections.
const (
	// TopicMerged carries a MergedEvent after every merge that changed
	// the store.
	TopicMerged = "catalog.merged"

	// TopicReady carries a ReadyEvent exactly once per store instance,
	// when ingestion finishes.
	TopicReady = "catalog.ready"
)

// MergedEvent describes one merge into the store.
type MergedEvent struct {
	// Merged is the number of records in the merge batch.
	Merged int `json:"merged"`

	// Total is the store size after the merge.
	Total int `json:"total"`

	At time.Time `json:"at"`
}

// ReadyEvent signals that ingestion has terminated. Readiness is a
// liveness signal, not a correctness guarantee: Total may be zero after a
// total upstream failure.
type ReadyEvent struct {
	Total int       `json:"total"`
	At    time.Time `json:"at"`
}

// publish marshals the event and publishes it on topic. Publish failures
// are logged and absorbed; event delivery is best-effort and must never
// fail a merge.
func (s *Store) publish(topic string, event any) {
	if s.publisher == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Str("topic", topic).Msg("marshal store event")
		return
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	if err := s.publisher.Publish(topic, msg); err != nil {
		s.logger.Error().Err(err).Str("topic", topic).Msg("publish store event")
	}
}
