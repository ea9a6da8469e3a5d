// 包 session：地图会话存储（进程内 LRU，带滑动过期）
// 约束：容量满时淘汰最久未访问的会话；访问即续期；会话状态不落盘
package session

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"webkart/internal/logger"
	"webkart/internal/metrics"
	"webkart/internal/viewer"
)

type Session struct {
	ID      string
	Created time.Time
	Viewer  *viewer.Viewer
}

type entry struct {
	s   *Session
	exp time.Time
}

type Store struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	lst  *list.List
	dict map[string]*list.Element
	now  func() time.Time
}

func NewStore(capacity int, ttl time.Duration) *Store {
	if capacity <= 0 {
		capacity = 1024
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{cap: capacity, ttl: ttl, lst: list.New(), dict: make(map[string]*list.Element), now: time.Now}
}

// Create：登记新会话并分配 uuid
func (s *Store) Create(v *viewer.Viewer) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess := &Session{ID: uuid.NewString(), Created: now, Viewer: v}
	s.dict[sess.ID] = s.lst.PushFront(entry{s: sess, exp: now.Add(s.ttl)})
	for s.lst.Len() > s.cap {
		s.removeLocked(s.lst.Back())
		metrics.SessionsEvictedTotal.Inc()
	}
	metrics.SessionsCreatedTotal.Inc()
	metrics.SessionsActive.Set(float64(s.lst.Len()))
	return sess
}

// Get：命中且未过期时续期并返回
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.dict[id]
	if !ok {
		return nil, false
	}
	it := e.Value.(entry)
	now := s.now()
	if !now.Before(it.exp) {
		s.removeLocked(e)
		metrics.SessionsEvictedTotal.Inc()
		metrics.SessionsActive.Set(float64(s.lst.Len()))
		return nil, false
	}
	it.exp = now.Add(s.ttl)
	e.Value = it
	s.lst.MoveToFront(e)
	return it.s, true
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.dict[id]
	if !ok {
		return false
	}
	s.removeLocked(e)
	metrics.SessionsActive.Set(float64(s.lst.Len()))
	return true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lst.Len()
}

// Sweep：移除全部已过期会话，返回移除数量
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for e := s.lst.Back(); e != nil; {
		prev := e.Prev()
		if !now.Before(e.Value.(entry).exp) {
			s.removeLocked(e)
			n++
		}
		e = prev
	}
	if n > 0 {
		metrics.SessionsEvictedTotal.Add(float64(n))
		metrics.SessionsActive.Set(float64(s.lst.Len()))
	}
	return n
}

// StartJanitor：后台定期清理过期会话，ctx 取消后退出
func (s *Store) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	l := logger.L()
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := s.Sweep(); n > 0 {
					l.Debug("session_sweep", "removed", n, "active", s.Len())
				}
			}
		}
	}()
}

func (s *Store) removeLocked(e *list.Element) {
	if e == nil {
		return
	}
	delete(s.dict, e.Value.(entry).s.ID)
	s.lst.Remove(e)
}
