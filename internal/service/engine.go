package service

import (
	"context"
	"time"

	"github.com/alexanderramin/retention/internal/db"
	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/metrics"
	"github.com/alexanderramin/retention/internal/repository"
)

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Now                 func() time.Time
	Identifiers         IdentifierGenerator
	MandatoryProperties []string
	Metrics             *metrics.Metrics
}

// Engine runs lifecycle use cases inside unit-of-work transactions. Every
// mutating use case re-derives the search projection of each node it touched
// before its transaction commits.
type Engine struct {
	uow       db.UnitOfWork
	now       func() time.Time
	ids       IdentifierGenerator
	mandatory []string
	metrics   *metrics.Metrics
	observer  UseCaseObserver
}

func NewEngine(uow db.UnitOfWork, opts Options, observers ...UseCaseObserver) *Engine {
	e := &Engine{
		uow:       uow,
		now:       opts.Now,
		ids:       opts.Identifiers,
		mandatory: opts.MandatoryProperties,
		metrics:   opts.Metrics,
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	if e.ids == nil {
		e.ids = SequenceIdentifiers{}
	}
	if e.mandatory == nil {
		e.mandatory = domain.DefaultMandatoryProperties
	}
	if opts.Metrics != nil {
		observers = append(observers, NewMetricsUseCaseObserver(opts.Metrics))
	}
	e.observer = useCaseObserverOrNoop(observers)
	return e
}

// run executes fn in a transaction, syncs projections of touched nodes and
// reports the use case to the observer.
func (e *Engine) run(ctx context.Context, name string, fields map[string]any, fn func(ctx context.Context, lc *lifecycle) error) (err error) {
	startedAt := time.Now()
	defer func() {
		e.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      name,
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	var committed *lifecycle
	err = e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		lc := newLifecycle(e, tx)
		if err := fn(ctx, lc); err != nil {
			return err
		}
		if err := lc.syncProjections(ctx); err != nil {
			return err
		}
		committed = lc
		return nil
	})
	if err == nil && committed != nil {
		committed.flushStats()
	}
	return err
}

// read runs fn in a transaction without projection sync or telemetry.
func (e *Engine) read(ctx context.Context, fn func(ctx context.Context, r *repos) error) error {
	return e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, newRepos(tx))
	})
}

// repos bundles the repositories bound to one transaction.
type repos struct {
	nodes       repository.NodeRepo
	schedules   repository.ScheduleRepo
	actions     repository.DispositionRepo
	holds       repository.HoldRepo
	vitals      repository.VitalRepo
	projections repository.ProjectionRepo
	transfers   repository.TransferRepo
	sequences   repository.IdentifierSequenceRepo
}

func newRepos(tx db.DBTX) *repos {
	return &repos{
		nodes:       repository.NewSQLiteNodeRepo(tx),
		schedules:   repository.NewSQLiteScheduleRepo(tx),
		actions:     repository.NewSQLiteDispositionRepo(tx),
		holds:       repository.NewSQLiteHoldRepo(tx),
		vitals:      repository.NewSQLiteVitalRepo(tx),
		projections: repository.NewSQLiteProjectionRepo(tx),
		transfers:   repository.NewSQLiteTransferRepo(tx),
		sequences:   repository.NewSQLiteIdentifierSequenceRepo(tx),
	}
}
