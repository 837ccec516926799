package relay

import (
	"log"
	"time"

	"pairlink/internal/utils"
)

const (
	EnvRedisHost     = "REDIS_HOST"
	EnvRedisPort     = "REDIS_PORT"
	EnvRedisUser     = "REDIS_USERNAME"
	EnvRedisPassword = "REDIS_PASSWORD"
)

// Room is a rendezvous point: a hub parks one leg under its code and
// clients get bridged to it. The relay never looks inside the frames it
// forwards, so sessions and pairing stay end to end between client and
// hub.
type Room struct {
	Code      string    `json:"code"`
	Hostname  string    `json:"hostname,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (r *Room) Expired() bool {
	return time.Now().After(r.ExpiresAt)
}

// Registry tracks which rooms exist and for how long. Live hub legs are
// process local and stay out of the registry.
type Registry interface {
	Save(room *Room)
	Get(code string) (*Room, bool)
	Delete(code string)
	Close() error
}

// NewRegistry picks Redis when REDIS_HOST is set and it answers a ping,
// otherwise in-memory.
func NewRegistry() (Registry, error) {
	redisHost := utils.GetEnv(EnvRedisHost, "")

	if redisHost != "" {
		redisPort := utils.GetEnv(EnvRedisPort, "6379")
		redisUser := utils.GetEnv(EnvRedisUser, "")
		redisPassword := utils.GetEnv(EnvRedisPassword, "")

		reg, err := NewRedisRegistry(redisHost, redisPort, redisUser, redisPassword)
		if err != nil {
			log.Printf("⚠️  Redis connection failed: %v", err)
			log.Println("💾 Falling back to in-memory room registry")
			return NewMemoryRegistry(), nil
		}
		log.Printf("💾 Using Redis room registry: %s:%s", redisHost, redisPort)
		return reg, nil
	}

	log.Println("💾 Using in-memory room registry")
	return NewMemoryRegistry(), nil
}
