package journal

/*
Журнал действий — асинхронный сборщик всех переходов состояния дашборда
для разбора инцидентов ("почему оператор видел X в 14:03").

Архитектура:
- Non-blocking: стор отдает записи в буферизованный канал и никогда не
  ждет базу; при переполнении буфера запись сбрасывается (Load Shedding)
  с пометкой в логе.
- Batching: записи копятся и уходят в PostgreSQL пачками по таймеру или
  при достижении лимита.
- Drain Pattern: Stop() закрывает входной канал и дожидается, пока воркер
  вычитает остатки и сделает финальный flush — без потерь при штатной
  остановке.

Журнал не восстанавливает состояние при старте: это наблюдаемость,
а не персистентность.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Entry — одна запись журнала: какое действие, над какой сущностью, когда.
type Entry struct {
	ID        string
	Seq       uint64
	Kind      string
	EntityID  string
	Timestamp time.Time
}

// StorageInterface определяет, куда физически сохраняются записи.
type StorageInterface interface {
	// WriteBatch сохраняет пачку записей за один раз
	WriteBatch(ctx context.Context, entries []Entry) error
}

const flushBatchSize = 100

type Journal struct {
	ch            chan Entry
	repo          StorageInterface
	logger        *zap.Logger
	flushInterval time.Duration
	wg            sync.WaitGroup

	isClosed int32 // атомарный флаг (0 - открыт, 1 - закрыт)
}

func New(repo StorageInterface, bufferSize int, flushInterval time.Duration, logger *zap.Logger) *Journal {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if flushInterval <= 0 {
		flushInterval = 500 * time.Millisecond
	}
	return &Journal{
		ch:            make(chan Entry, bufferSize),
		repo:          repo,
		logger:        logger.Named("journal"),
		flushInterval: flushInterval,
	}
}

func (j *Journal) Start() {
	j.wg.Add(1)
	go j.worker()
}

// Stop запирает вход и ждет, пока воркер всё допишет.
func (j *Journal) Stop() {
	if !atomic.CompareAndSwapInt32(&j.isClosed, 0, 1) {
		return
	}
	// Даем крошечную паузу, чтобы текущие Record успели проскочить
	time.Sleep(10 * time.Millisecond)

	j.logger.Info("stopping journal: closing channel and flushing buffer...")
	close(j.ch)
	j.wg.Wait()
	j.logger.Info("journal stopped gracefully")
}

// Record реализует store.Recorder. Не блокирует: при переполнении буфера
// запись теряется, но стор не тормозит.
func (j *Journal) Record(seq uint64, kind, entity string, at time.Time) {
	if atomic.LoadInt32(&j.isClosed) == 1 {
		return
	}

	e := Entry{
		ID:        uuid.New().String(),
		Seq:       seq,
		Kind:      kind,
		EntityID:  entity,
		Timestamp: at,
	}

	select {
	case j.ch <- e:
	default:
		j.logger.Error("journal_buffer_overflow",
			zap.Uint64("seq", seq), zap.String("kind", kind))
	}
}

func (j *Journal) worker() {
	defer j.wg.Done()

	batch := make([]Entry, 0, flushBatchSize)
	ticker := time.NewTicker(j.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) > 0 {
			// Background: основной контекст на выходе может быть уже закрыт
			if err := j.repo.WriteBatch(context.Background(), batch); err != nil {
				j.logger.Error("journal flush failed", zap.Error(err))
			}
			batch = batch[:0]
		}
	}

	for {
		select {
		case e, ok := <-j.ch:
			if !ok {
				// Канал закрыт в Stop(): вычитали остатки, финальный flush
				flush()
				j.logger.Info("journal worker finished")
				return
			}
			batch = append(batch, e)
			if len(batch) >= flushBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
