package directory

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/orbit/orbit-api/internal/pkg/logger"
)

// Seed is a demo fixture. Users are referenced by Key within the file
// because ids are generated on registration.
type Seed struct {
	Users   []SeedUser   `yaml:"users"`
	Meetups []SeedMeetup `yaml:"meetups"`
	Blocks  []SeedBlock  `yaml:"blocks"`
}

type SeedUser struct {
	Key          string   `yaml:"key"`
	FullName     string   `yaml:"full_name"`
	Email        string   `yaml:"email"`
	University   string   `yaml:"university"`
	Interests    []string `yaml:"interests"`
	UniversityID string   `yaml:"university_id"`
	Verified     bool     `yaml:"verified"`
}

type SeedMeetup struct {
	Creator             string    `yaml:"creator"`
	ScheduledAt         time.Time `yaml:"scheduled_at"`
	Location            string    `yaml:"location"`
	Topic               string    `yaml:"topic"`
	ConversationStarter string    `yaml:"conversation_starter"`
	ApprovedBy          []string  `yaml:"approved_by"`
}

type SeedBlock struct {
	Blocker string `yaml:"blocker"`
	Blocked string `yaml:"blocked"`
}

// LoadSeedFile reads a YAML fixture from path and applies it.
func LoadSeedFile(ctx context.Context, s *Service, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return LoadSeed(ctx, s, f)
}

// LoadSeed decodes a YAML fixture and replays it through the ordinary
// directory operations, so every rule applies to seeded data as well.
func LoadSeed(ctx context.Context, s *Service, r io.Reader) error {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && err != io.EOF {
		return fmt.Errorf("decode seed: %w", err)
	}

	ids := make(map[string]*User, len(seed.Users))
	for _, su := range seed.Users {
		if su.Key == "" {
			return fmt.Errorf("seed user %q: key is required", su.FullName)
		}
		if _, dup := ids[su.Key]; dup {
			return fmt.Errorf("seed user %q: duplicate key", su.Key)
		}
		u := s.RegisterUser(ctx, Profile{
			FullName:     su.FullName,
			Email:        su.Email,
			University:   su.University,
			Interests:    su.Interests,
			UniversityID: su.UniversityID,
		})
		if su.Verified {
			u.Verified = true
			updated, err := s.UpdateUser(ctx, *u)
			if err != nil {
				return fmt.Errorf("seed user %q: %w", su.Key, err)
			}
			u = updated
		}
		ids[su.Key] = u
	}

	lookup := func(key string) (*User, error) {
		u, ok := ids[key]
		if !ok {
			return nil, fmt.Errorf("unknown seed user %q", key)
		}
		return u, nil
	}

	for i, sm := range seed.Meetups {
		creator, err := lookup(sm.Creator)
		if err != nil {
			return fmt.Errorf("seed meetup %d: %w", i, err)
		}
		req, err := s.SubmitMeetupRequest(ctx, SubmitMeetupInput{
			CreatorID:           creator.ID,
			ScheduledAt:         sm.ScheduledAt,
			Location:            sm.Location,
			Topic:               sm.Topic,
			ConversationStarter: sm.ConversationStarter,
		})
		if err != nil {
			return fmt.Errorf("seed meetup %d: %w", i, err)
		}
		for _, key := range sm.ApprovedBy {
			approver, err := lookup(key)
			if err != nil {
				return fmt.Errorf("seed meetup %d: %w", i, err)
			}
			if _, err := s.ApproveMeetupRequest(ctx, req.ID, approver.ID); err != nil {
				return fmt.Errorf("seed meetup %d: %w", i, err)
			}
		}
	}

	for i, sb := range seed.Blocks {
		blocker, err := lookup(sb.Blocker)
		if err != nil {
			return fmt.Errorf("seed block %d: %w", i, err)
		}
		blocked, err := lookup(sb.Blocked)
		if err != nil {
			return fmt.Errorf("seed block %d: %w", i, err)
		}
		if _, err := s.BlockUser(ctx, blocker.ID, blocked.ID); err != nil {
			return fmt.Errorf("seed block %d: %w", i, err)
		}
	}

	logger.LogInfo(ctx, "directory seeded",
		"users", len(seed.Users),
		"meetups", len(seed.Meetups),
		"blocks", len(seed.Blocks),
	)
	return nil
}
