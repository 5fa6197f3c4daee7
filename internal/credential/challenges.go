package credential

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/veltapay/velta-wallet/pkg/id"
)

const challengePrefix = "passkey_challenge:"

// ChallengeStore issues single-use random challenges with a TTL. A
// challenge is consumed on first read, so a captured proof cannot be
// replayed.
type ChallengeStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewChallengeStore(client *redis.Client, ttl time.Duration) *ChallengeStore {
	return &ChallengeStore{client: client, ttl: ttl}
}

func (s *ChallengeStore) Issue(ctx context.Context) (string, []byte, error) {
	challenge := make([]byte, 32)
	if _, err := rand.Read(challenge); err != nil {
		return "", nil, err
	}

	challengeID := id.Generate()
	encoded := base64.StdEncoding.EncodeToString(challenge)
	if err := s.client.Set(ctx, challengePrefix+challengeID, encoded, s.ttl).Err(); err != nil {
		return "", nil, err
	}

	return challengeID, challenge, nil
}

func (s *ChallengeStore) Consume(ctx context.Context, challengeID string) ([]byte, error) {
	encoded, err := s.client.GetDel(ctx, challengePrefix+challengeID).Result()
	if err == redis.Nil {
		return nil, ErrChallengeExpired
	}
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(encoded)
}
