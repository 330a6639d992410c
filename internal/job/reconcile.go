package job

import (
	"context"
	"time"

	"pointledger/internal/config"
	"pointledger/internal/repository"
	"pointledger/internal/service"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ReconcileJob walks every account and compares the cached balance with the
// ledger sum. It only reports drift; it never rewrites balances.
type ReconcileJob struct {
	accountRepo *repository.AccountRepository
	ledger      *service.LedgerService
	interval    time.Duration
	batchSize   int
}

func NewReconcileJob(db *gorm.DB, ledger *service.LedgerService, cfg *config.Config) *ReconcileJob {
	interval := cfg.Business.ReconcileInterval()
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ReconcileJob{
		accountRepo: repository.NewAccountRepository(db),
		ledger:      ledger,
		interval:    interval,
		batchSize:   200,
	}
}

// Start runs a check every interval until ctx is cancelled.
func (j *ReconcileJob) Start(ctx context.Context) {
	log.Info().Dur("interval", j.interval).Msg("reconcile job started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("reconcile job stopped")
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}

// Run checks all accounts once and returns the ones that drifted.
func (j *ReconcileJob) Run(ctx context.Context) []*service.BalanceCheck {
	var drifted []*service.BalanceCheck
	var afterID int64
	checked := 0

	for {
		accounts, err := j.accountRepo.ListAfterID(ctx, afterID, j.batchSize)
		if err != nil {
			log.Error().Err(err).Int64("after_id", afterID).Msg("list accounts for reconcile")
			return drifted
		}
		if len(accounts) == 0 {
			break
		}

		for _, acc := range accounts {
			afterID = acc.ID
			check, err := j.verify(ctx, acc.UserID)
			if err != nil {
				log.Error().Err(err).Int64("user_id", acc.UserID).Msg("verify balance")
				continue
			}
			checked++
			if check != nil {
				drifted = append(drifted, check)
			}
		}
	}

	if len(drifted) > 0 {
		log.Error().Int("checked", checked).Int("drifted", len(drifted)).Msg("ledger reconcile found drift")
	} else {
		log.Info().Int("checked", checked).Msg("ledger reconcile clean")
	}
	return drifted
}

// verify reads twice before reporting, since the balance and the sum are
// separate reads and a commit may land between them.
func (j *ReconcileJob) verify(ctx context.Context, userID int64) (*service.BalanceCheck, error) {
	var check *service.BalanceCheck
	for attempt := 0; attempt < 2; attempt++ {
		var err error
		check, err = j.ledger.VerifyBalance(ctx, userID)
		if err != nil {
			return nil, err
		}
		if check.Consistent {
			return nil, nil
		}
	}
	log.Error().
		Int64("user_id", userID).
		Int64("balance", check.Balance).
		Int64("ledger_sum", check.LedgerSum).
		Msg("balance does not match ledger")
	return check, nil
}
