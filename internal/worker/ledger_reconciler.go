package worker

import (
	"context"
	"fmt"

	"github.com/moodlync/tokencore/internal/domain/ledger"
	"github.com/moodlync/tokencore/internal/pkg/logger"
)

// LedgerReconciler compares every balance with its ledger sum
type LedgerReconciler struct {
	ledger ledger.Service
	logger *logger.Logger
}

// NewLedgerReconciler creates a new ledger reconciler worker
func NewLedgerReconciler(ledgerService ledger.Service, log *logger.Logger) *LedgerReconciler {
	return &LedgerReconciler{ledger: ledgerService, logger: log}
}

// Run reconciles all users once
func (r *LedgerReconciler) Run(ctx context.Context) (string, error) {
	report, err := r.ledger.ReconcileAll(ctx)
	if err != nil {
		return "", err
	}

	if len(report.Diverged) > 0 {
		ids := make([]int64, len(report.Diverged))
		for i, d := range report.Diverged {
			ids[i] = d.UserID
		}
		r.logger.WithFields(map[string]interface{}{
			"checked":  report.Checked,
			"diverged": ids,
		}).Error("Ledger divergence found; affected users frozen")
	}

	return fmt.Sprintf("%d users checked, %d diverged in %s",
		report.Checked, len(report.Diverged), report.Duration), nil
}
