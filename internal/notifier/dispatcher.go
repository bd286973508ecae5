// Package notifier доставляет внутриприложенческие уведомления после коммита
// бизнес-транзакций.
package notifier

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/pkg/uow"
)

const (
	defaultPersistTimeout      = 3 * time.Second
	defaultWorkers        uint = 4
	defaultQueueSize      uint = 256
)

// notificationCreator минимальный срез репозитория уведомлений, нужный диспетчеру.
type notificationCreator interface {
	Create(ctx context.Context, args repoargs.CreateNotification) (*domain.Notification, error)
}

// Dispatcher принимает пачки событий и пишет их в хранилище уведомлений пулом
// воркеров. Доставка best effort: при переполненной очереди пачка отбрасывается
// с записью в лог, отправитель об этом не узнает.
type Dispatcher struct {
	unitOfWork uow.UOW
	l          *logrus.Entry
	queue      chan []repoargs.CreateNotification
	workers    uint
}

// New создает новый экземпляр диспетчера уведомлений.
func New(unitOfWork uow.UOW, l *logrus.Logger) *Dispatcher {
	loggerEntry := l.WithFields(logrus.Fields{
		"component": "notifier",
		"module":    "dispatcher",
	})

	return &Dispatcher{
		unitOfWork: unitOfWork,
		l:          loggerEntry,
		queue:      make(chan []repoargs.CreateNotification, defaultQueueSize),
		workers:    defaultWorkers,
	}
}

// SetWorkers устанавливает кол-во воркеров, пишущих уведомления.
func (d *Dispatcher) SetWorkers(workers uint) *Dispatcher {
	d.workers = workers
	return d
}

// SetQueueSize устанавливает емкость очереди. Вызывать до Run и до первых Enqueue.
func (d *Dispatcher) SetQueueSize(size uint) *Dispatcher {
	d.queue = make(chan []repoargs.CreateNotification, size)
	return d
}

// Enqueue ставит пачку событий в очередь, не блокируясь. Переполненная очередь
// означает потерю пачки: уведомления вторичны относительно породившей их операции.
func (d *Dispatcher) Enqueue(events []repoargs.CreateNotification) {
	if len(events) == 0 {
		return
	}
	select {
	case d.queue <- events:
	default:
		d.l.WithField("dropped", len(events)).Warn("queue is full, dropping batch")
	}
}

// Run запускает воркеров и блокируется до отмены контекста.
func (d *Dispatcher) Run(ctx context.Context) {
	d.l.WithFields(logrus.Fields{
		"workers":   d.workers,
		"queueSize": cap(d.queue),
	}).Info("Starting")

	done := make(chan struct{})
	for i := range d.workers {
		go d.worker(ctx, i+1, done)
	}

	<-ctx.Done()
	d.l.Info("Got stop signal, exiting...")
	for range d.workers {
		<-done
	}
}

func (d *Dispatcher) worker(ctx context.Context, workerID uint, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()

	for {
		select {
		case <-ctx.Done():
			return
		case events := <-d.queue:
			if err := d.persist(ctx, events); err != nil {
				d.l.WithError(err).WithFields(logrus.Fields{
					"worker": workerID,
					"events": len(events),
				}).Error("persist notifications")
			}
		}
	}
}

// persist пишет каждое событие собственной транзакцией: одно битое событие не
// должно откатывать уже записанные уведомления пачки, а после первой ошибки
// postgres все равно отверг бы остальные запросы той же транзакции. Ошибки
// копятся в multierror только для строки лога.
func (d *Dispatcher) persist(ctx context.Context, events []repoargs.CreateNotification) error {
	persistCtx, cancel := context.WithTimeout(ctx, defaultPersistTimeout)
	defer cancel()

	var errs *multierror.Error
	for _, event := range events {
		if createErr := d.persistOne(persistCtx, event); createErr != nil {
			errs = multierror.Append(errs, createErr)
		}
	}
	return errs.ErrorOrNil() //nolint:wrapcheck
}

func (d *Dispatcher) persistOne(ctx context.Context, event repoargs.CreateNotification) error {
	return d.unitOfWork.Do(ctx, func(c context.Context, tx uow.TX) error { //nolint:wrapcheck
		repo, repoErr := uow.GetAs[notificationCreator](tx, uow.RepositoryName(repoargs.NotificationRepoName))
		if repoErr != nil {
			return repoErr //nolint:wrapcheck
		}
		_, createErr := repo.Create(c, event)
		return createErr //nolint:wrapcheck
	})
}
