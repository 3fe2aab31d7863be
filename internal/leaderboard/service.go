package leaderboard

import (
	"context"
	"fmt"
	"log"
	"sync"

	"towerdefense/internal/data"
)

// Repository is where scores live. data.Store and data.MemoryStore both
// satisfy it.
type Repository interface {
	InsertScore(ctx context.Context, name, uid string, score int) (data.Entry, error)
	TopScores(ctx context.Context, limit int) ([]data.Entry, error)
	Ping(ctx context.Context) error
}

type subscriber struct {
	limit int
	fn    func([]data.Entry)
}

// Service records final scores and pushes the standings to subscribers.
type Service struct {
	repo Repository

	mu     sync.Mutex
	subs   map[int]subscriber
	nextID int
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		subs: make(map[int]subscriber),
	}
}

// SubmitScore stores a final score and refreshes every subscriber.
func (s *Service) SubmitScore(ctx context.Context, name, uid string, score int) error {
	e, err := s.repo.InsertScore(ctx, name, uid, score)
	if err != nil {
		return fmt.Errorf("submit score: %w", err)
	}
	log.Printf("[LEADERBOARD] %s scored %d", e.Name, e.Score)
	s.publish(ctx)
	return nil
}

// Top returns the best limit scores; limit <= 0 returns all of them.
func (s *Service) Top(ctx context.Context, limit int) ([]data.Entry, error) {
	entries, err := s.repo.TopScores(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	return entries, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Subscribe calls fn with the current top limit scores right away and again
// after every stored score, until the returned func is called. fn must not
// block.
func (s *Service) Subscribe(ctx context.Context, limit int, fn func([]data.Entry)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	sub := subscriber{limit: limit, fn: fn}
	s.subs[id] = sub
	s.mu.Unlock()

	s.deliver(ctx, sub)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Service) publish(ctx context.Context) {
	s.mu.Lock()
	subs := make([]subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	// One query per distinct limit.
	cache := make(map[int][]data.Entry)
	for _, sub := range subs {
		entries, ok := cache[sub.limit]
		if !ok {
			var err error
			entries, err = s.repo.TopScores(ctx, sub.limit)
			if err != nil {
				log.Printf("[LEADERBOARD] refresh top %d failed: %v", sub.limit, err)
				continue
			}
			cache[sub.limit] = entries
		}
		sub.fn(entries)
	}
}

func (s *Service) deliver(ctx context.Context, sub subscriber) {
	entries, err := s.repo.TopScores(ctx, sub.limit)
	if err != nil {
		log.Printf("[LEADERBOARD] initial top %d failed: %v", sub.limit, err)
		return
	}
	sub.fn(entries)
}

// Subscribers reports how many live subscriptions exist.
func (s *Service) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
