package relay

import (
	"log"
	"sync"
	"time"

	"pairlink/internal/constants"
)

type MemoryRegistry struct {
	rooms sync.Map

	stop     chan struct{}
	stopOnce sync.Once
}

func NewMemoryRegistry() *MemoryRegistry {
	reg := &MemoryRegistry{stop: make(chan struct{})}
	go reg.cleanupLoop()
	return reg
}

func (reg *MemoryRegistry) Save(room *Room) {
	reg.rooms.Store(room.Code, room)
}

func (reg *MemoryRegistry) Get(code string) (*Room, bool) {
	val, ok := reg.rooms.Load(code)
	if !ok {
		return nil, false
	}
	room := val.(*Room)
	if room.Expired() {
		reg.rooms.Delete(code)
		return nil, false
	}
	return room, true
}

func (reg *MemoryRegistry) Delete(code string) {
	reg.rooms.Delete(code)
}

func (reg *MemoryRegistry) Close() error {
	reg.stopOnce.Do(func() { close(reg.stop) })
	return nil
}

func (reg *MemoryRegistry) cleanupLoop() {
	ticker := time.NewTicker(constants.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-reg.stop:
			return
		case <-ticker.C:
			reg.rooms.Range(func(key, value interface{}) bool {
				if value.(*Room).Expired() {
					reg.rooms.Delete(key)
					log.Printf("🗑 Expired room cleaned up: %s", key)
				}
				return true
			})
		}
	}
}
