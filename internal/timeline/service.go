// Package timeline serves the read side: grouped people, per-person history,
// recent messages and global counters.
package timeline

import (
	"context"
	"errors"
	"sort"

	"timeline/internal/identity"
	"timeline/internal/models"

	"github.com/rs/zerolog"
)

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 200
)

// ErrPersonNotFound is returned for unknown person ids
var ErrPersonNotFound = errors.New("person not found")

// PersonReader is the person side of the store
type PersonReader interface {
	List(ctx context.Context) ([]models.Person, error)
	CountCanonical(ctx context.Context) (int, error)
}

// MessageReader is the message side of the store
type MessageReader interface {
	FindByPersonIDs(ctx context.Context, personIDs []string) ([]models.Message, error)
	Recent(ctx context.Context, limit int) ([]models.RecentMessage, error)
	Count(ctx context.Context) (int, error)
	CountByChannel(ctx context.Context) (map[string]int, error)
	Summaries(ctx context.Context) ([]models.MessageSummary, error)
}

// Service answers timeline queries
type Service struct {
	people    PersonReader
	messages  MessageReader
	threshold float64
	logger    zerolog.Logger
}

// NewService creates a new read service. A threshold <= 0 uses identity.DefaultThreshold.
func NewService(people PersonReader, messages MessageReader, threshold float64, logger zerolog.Logger) *Service {
	if threshold <= 0 {
		threshold = identity.DefaultThreshold
	}
	return &Service{
		people:    people,
		messages:  messages,
		threshold: threshold,
		logger:    logger,
	}
}

// ListPeople groups every person row by similarity and aggregates their messages.
// Groups are ordered by latest message, groups without messages last.
func (s *Service) ListPeople(ctx context.Context) ([]models.PersonAggregate, error) {
	clusters, err := s.clusters(ctx)
	if err != nil {
		return nil, err
	}

	summaries, err := s.messages.Summaries(ctx)
	if err != nil {
		return nil, err
	}
	byPerson := make(map[string][]models.MessageSummary)
	for _, sum := range summaries {
		byPerson[sum.PersonID] = append(byPerson[sum.PersonID], sum)
	}

	people := make([]models.PersonAggregate, 0, len(clusters))
	for _, cluster := range clusters {
		people = append(people, aggregate(cluster, byPerson))
	}

	sort.SliceStable(people, func(i, j int) bool {
		a, b := people[i].LastMessageAt, people[j].LastMessageAt
		if (a == "") != (b == "") {
			return a != ""
		}
		return a > b
	})

	s.logger.Debug().Int("rows", len(summaries)).Int("groups", len(people)).Msg("Listed people")
	return people, nil
}

func aggregate(cluster identity.Cluster, byPerson map[string][]models.MessageSummary) models.PersonAggregate {
	rep := cluster.Representative()
	agg := models.PersonAggregate{
		ID:        rep.ID,
		Name:      rep.Name,
		Email:     cluster.Email(),
		PersonIDs: cluster.IDs(),
		Channels:  []string{},
	}

	seen := make(map[string]bool)
	for _, id := range agg.PersonIDs {
		for _, sum := range byPerson[id] {
			agg.MessageCount += sum.MessageCount
			if !seen[sum.Channel] {
				seen[sum.Channel] = true
				agg.Channels = append(agg.Channels, sum.Channel)
			}
			if sum.LastMessageAt > agg.LastMessageAt {
				agg.LastMessageAt = sum.LastMessageAt
			}
		}
	}
	sort.Strings(agg.Channels)
	return agg
}

// ListMessagesForPerson returns the messages of every row grouped with personID, newest first
func (s *Service) ListMessagesForPerson(ctx context.Context, personID string) ([]models.Message, error) {
	clusters, err := s.clusters(ctx)
	if err != nil {
		return nil, err
	}

	for _, cluster := range clusters {
		for _, id := range cluster.IDs() {
			if id == personID {
				return s.messages.FindByPersonIDs(ctx, cluster.IDs())
			}
		}
	}
	return nil, ErrPersonNotFound
}

// Recent returns the latest messages joined with their person. The limit is clamped
// to MaxRecentLimit and defaults to DefaultRecentLimit.
func (s *Service) Recent(ctx context.Context, limit int) ([]models.RecentMessage, error) {
	return s.messages.Recent(ctx, ClampLimit(limit))
}

// ClampLimit applies the recent-messages default and ceiling
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	default:
		return limit
	}
}

// Stats returns global counters. People are counted by canonical id.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	people, err := s.people.CountCanonical(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	messages, err := s.messages.Count(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	channels, err := s.messages.CountByChannel(ctx)
	if err != nil {
		return models.Stats{}, err
	}

	return models.Stats{
		TotalPeople:   people,
		TotalMessages: messages,
		Channels:      channels,
	}, nil
}

func (s *Service) clusters(ctx context.Context) ([]identity.Cluster, error) {
	rows, err := s.people.List(ctx)
	if err != nil {
		return nil, err
	}
	return identity.Group(rows, s.threshold), nil
}
