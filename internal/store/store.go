package store

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Recorder принимает каждое примененное действие (журнал/метрики).
// Вызывается из воркера стора, обязан не блокировать.
type Recorder interface {
	Record(seq uint64, kind, entity string, at time.Time)
}

// Store — единственный писатель DashboardState.
// Действия применяются строго в порядке Dispatch одним воркером
// (single-threaded reducer); читатели получают глубокие снапшоты.
type Store struct {
	actions chan Action
	wg      sync.WaitGroup
	logger  *zap.Logger

	// Текущий снапшот; воркер кладет свежую копию после каждого действия
	current atomic.Pointer[DashboardState]

	subMu  sync.RWMutex
	subs   map[int]chan DashboardState
	nextID int

	seq      uint64 // счетчик примененных действий, только для recorder
	recorder Recorder

	closeMu  sync.RWMutex // сериализует отправку в actions против close(actions)
	isClosed int32        // атомарный флаг (0 - открыт, 1 - закрыт)
}

// Option настраивает Store при создании.
type Option func(*Store)

// WithRecorder подключает журнал действий.
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

func New(initial DashboardState, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		actions: make(chan Action, 1024),
		logger:  logger.Named("store"),
		subs:    make(map[int]chan DashboardState),
	}
	for _, opt := range opts {
		opt(s)
	}

	snap := initial.Clone()
	s.current.Store(&snap)

	s.wg.Add(1)
	go s.worker(initial)
	return s
}

// Dispatch ставит действие в очередь. Порядок применения совпадает с
// порядком вызовов. После Close действия молча игнорируются (drain).
func (s *Store) Dispatch(a Action) {
	// RLock против Close: канал закрывается только под write-lock, поэтому
	// между проверкой флага и отправкой он закрыться не может
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()

	if atomic.LoadInt32(&s.isClosed) == 1 {
		s.logger.Debug("action dropped: store is closing", zap.String("kind", a.Kind()))
		return
	}
	s.actions <- a
}

// State возвращает глубокий снапшот текущего состояния.
func (s *Store) State() DashboardState {
	return s.current.Load().Clone()
}

// Subscribe регистрирует наблюдателя. Медленный наблюдатель пропускает
// промежуточные снапшоты, но никогда не блокирует воркер.
// cancel обязателен при teardown владельца.
func (s *Store) Subscribe() (<-chan DashboardState, func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	ch := make(chan DashboardState, 8)
	s.subs[id] = ch
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

// Close запирает вход и ждет, пока воркер применит все, что в очереди.
func (s *Store) Close() {
	if !atomic.CompareAndSwapInt32(&s.isClosed, 0, 1) {
		return
	}
	// Начатые Dispatch держат RLock — дожидаемся их и только потом
	// закрываем канал
	s.closeMu.Lock()
	close(s.actions)
	s.closeMu.Unlock()

	s.wg.Wait()

	s.subMu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.subMu.Unlock()
}

func (s *Store) worker(state DashboardState) {
	defer s.wg.Done()

	for a := range s.actions {
		// Редьюсер не должен уронить воркер из-за одного кривого действия
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("reducer panic, action dropped",
						zap.String("kind", a.Kind()), zap.Any("panic", r))
				}
			}()
			state = Apply(state, a)
		}()

		s.seq++
		snap := state.Clone()
		s.current.Store(&snap)

		if s.recorder != nil {
			s.recorder.Record(s.seq, a.Kind(), a.Entity(), time.Now())
		}

		s.notify(snap)
	}
}

func (s *Store) notify(snap DashboardState) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap.Clone():
		default:
			// Подписчик не успевает — он догонит по следующему снапшоту
		}
	}
}
