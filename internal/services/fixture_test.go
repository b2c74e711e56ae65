package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/moodlync/tokencore/internal/config"
	"github.com/moodlync/tokencore/internal/domain/ledger"
	"github.com/moodlync/tokencore/internal/domain/pool"
	"github.com/moodlync/tokencore/internal/domain/subscription"
	"github.com/moodlync/tokencore/internal/domain/user"
	"github.com/moodlync/tokencore/internal/pkg/lock"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/repository/postgres"
	"github.com/moodlync/tokencore/internal/testutil"
)

// economy wires every token service on an in-memory database
type economy struct {
	t     *testing.T
	store *postgres.Store
	clock *time.Time
	seq   int

	users     user.Repository
	pools     pool.Repository
	ledger    *LedgerService
	subs      *SubscriptionService
	nfts      *NftService
	pool      *PoolService
	transfers *TransferService
	accounts  *UserService
}

type recordingNotifier struct {
	states []*pool.Pool
}

func (n *recordingNotifier) PoolChanged(p *pool.Pool) {
	n.states = append(n.states, p)
}

func testEconomy() config.EconomyConfig {
	econ := config.DefaultEconomy()
	econ.TargetTokens = 1000
	econ.MaxTopContributors = 3
	econ.Charities = []string{"Fund A", "Fund B"}
	return econ
}

func newEconomy(t *testing.T) *economy {
	t.Helper()

	store := testutil.NewTestStore(t)
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	econ := testEconomy()

	clock := testNow
	now := func() time.Time { return clock }

	users := postgres.NewUserRepository(store)
	pools := postgres.NewPoolRepository(store)

	ledgerSvc := NewLedgerService(postgres.NewLedgerRepository(store), users, store, econ.Rewards, log).(*LedgerService)
	ledgerSvc.now = now
	subs := NewSubscriptionService(postgres.NewSubscriptionRepository(store), users, store, econ, log).(*SubscriptionService)
	subs.now = now
	nfts := NewNftService(postgres.NewNftRepository(store), pools, ledgerSvc, subs, store, econ, log)
	nfts.now = now
	poolSvc := NewPoolService(pools, ledgerSvc, store, lock.NewLocal(), time.Minute, econ, log).(*PoolService)
	poolSvc.now = now
	transfers := NewTransferService(postgres.NewTransferRepository(store), users, ledgerSvc, store,
		DefaultTransferPolicies(users), econ.PendingTimeout, log).(*TransferService)
	transfers.now = now
	accounts := NewUserService(users, subs, ledgerSvc, store, econ.Rewards["referral"], log).(*UserService)

	if err := poolSvc.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	return &economy{
		t:         t,
		store:     store,
		clock:     &clock,
		users:     users,
		pools:     pools,
		ledger:    ledgerSvc,
		subs:      subs,
		nfts:      nfts,
		pool:      poolSvc,
		transfers: transfers,
		accounts:  accounts,
	}
}

func (e *economy) advance(d time.Duration) {
	*e.clock = e.clock.Add(d)
}

// newUser creates a user with the given role and an initial balance
func (e *economy) newUser(role string, balance int64) int64 {
	e.t.Helper()
	ctx := context.Background()

	e.seq++
	n := e.seq
	u := &user.User{
		Email:    fmt.Sprintf("user%d@example.com", n),
		Username: fmt.Sprintf("user%d", n),
		Role:     role,
	}
	if err := e.users.Create(ctx, u); err != nil {
		e.t.Fatalf("Create() error = %v", err)
	}
	if balance > 0 {
		e.fund(u.ID, balance)
	}
	return u.ID
}

func (e *economy) fund(userID, amount int64) {
	e.t.Helper()
	if _, err := e.ledger.Credit(context.Background(), userID, ledger.ActivityAdminAdjustment, amount, "test funding"); err != nil {
		e.t.Fatalf("Credit() error = %v", err)
	}
}

func (e *economy) premium(userID int64) {
	e.t.Helper()
	if _, err := e.subs.Subscribe(context.Background(), userID, subscription.TierPremium, 1); err != nil {
		e.t.Fatalf("Subscribe() error = %v", err)
	}
}

func (e *economy) balance(userID int64) int64 {
	e.t.Helper()
	b, err := e.ledger.Balance(context.Background(), userID)
	if err != nil {
		e.t.Fatalf("Balance() error = %v", err)
	}
	return b.Balance
}

// burnOne creates, mints and burns one NFT for a premium user
func (e *economy) burnOne(userID int64) {
	e.t.Helper()
	ctx := context.Background()

	n, err := e.nfts.Create(ctx, userID, "joy", "")
	if err != nil {
		e.t.Fatalf("Create() error = %v", err)
	}
	if _, err := e.nfts.Mint(ctx, n.ID, userID); err != nil {
		e.t.Fatalf("Mint() error = %v", err)
	}
	if _, err := e.nfts.Burn(ctx, n.ID, userID); err != nil {
		e.t.Fatalf("Burn() error = %v", err)
	}
}

// assertConsistent fails when any user's balance differs from the ledger sum
func (e *economy) assertConsistent() {
	e.t.Helper()
	report, err := e.ledger.ReconcileAll(context.Background())
	if err != nil {
		e.t.Fatalf("ReconcileAll() error = %v", err)
	}
	if len(report.Diverged) != 0 {
		e.t.Errorf("ledger diverged: %+v", report.Diverged)
	}
}
