package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"estocks/internal/domain"
	"estocks/internal/repository"
	"estocks/internal/util"
	"estocks/pkg/db"

	"github.com/shopspring/decimal"
)

var errFakeQuery = errors.New("fake store does not run SQL")

// fakeStore is an in-memory wallet/fund/ledger store. Writes made through a
// fakeTx are staged and only become visible on Commit.
type fakeStore struct {
	mu          sync.Mutex
	wallets     map[int64]domain.Wallet // by user id
	funds       map[int64]domain.Fund
	investments []domain.FundInvestment
	nextID      int64

	failInsert bool
	failCommit bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		wallets: make(map[int64]domain.Wallet),
		funds:   make(map[int64]domain.Fund),
		nextID:  1,
	}
}

func (s *fakeStore) wallet(userID int64) domain.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallets[userID]
}

func (s *fakeStore) ledger() []domain.FundInvestment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.FundInvestment(nil), s.investments...)
}

// txFuncs returns transaction functions producing fakeTx values on s.
func (s *fakeStore) txFuncs() (db.BeginTxFunc, db.CommitTxFunc, db.RollbackTxFunc) {
	return func(ctx context.Context, _ db.DBTxBeginner) (db.TxController, error) {
			return &fakeTx{store: s}, nil
		},
		func(tx db.TxController) error { return tx.Commit() },
		func(tx db.TxController) { _ = tx.Rollback() }
}

type fakeTx struct {
	store   *fakeStore
	wallets []domain.Wallet
	inserts []domain.FundInvestment
	done    bool
}

func (t *fakeTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCommit {
		return errors.New("commit failed")
	}
	for _, w := range t.wallets {
		s.wallets[w.UserID] = w
	}
	s.investments = append(s.investments, t.inserts...)
	return nil
}

func (t *fakeTx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	return nil
}

func (t *fakeTx) GetContext(context.Context, interface{}, string, ...interface{}) error {
	return errFakeQuery
}

func (t *fakeTx) SelectContext(context.Context, interface{}, string, ...interface{}) error {
	return errFakeQuery
}

func (t *fakeTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errFakeQuery
}

func (t *fakeTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return &sql.Row{}
}

// fakeWalletRepo, fakeFundRepo and fakeInvestmentRepo adapt fakeStore to the
// repository interfaces used by the invest flow.
type fakeWalletRepo struct{ store *fakeStore }

func (r fakeWalletRepo) CreateWallet(_ context.Context, _ repository.DBExecutor, w *domain.Wallet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.wallets[w.UserID] = *w
	return nil
}

func (r fakeWalletRepo) GetWalletByUserID(_ context.Context, _ repository.DBExecutor, userID int64) (*domain.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	w, ok := r.store.wallets[userID]
	if !ok {
		return nil, util.ErrNotFound
	}
	return &w, nil
}

func (r fakeWalletRepo) GetWalletByUserIDForUpdate(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.Wallet, error) {
	return r.GetWalletByUserID(ctx, q, userID)
}

func (r fakeWalletRepo) UpdateWallet(_ context.Context, q repository.DBExecutor, w *domain.Wallet) error {
	tx := q.(*fakeTx)
	tx.wallets = append(tx.wallets, *w)
	return nil
}

func (r fakeWalletRepo) CreditWallet(_ context.Context, _ repository.DBExecutor, userID int64, amount decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	w, ok := r.store.wallets[userID]
	if !ok {
		return util.ErrNotFound
	}
	w.Balance = w.Balance.Add(amount)
	r.store.wallets[userID] = w
	return nil
}

type fakeFundRepo struct{ store *fakeStore }

func (r fakeFundRepo) GetFundByID(_ context.Context, _ repository.DBExecutor, id int64) (*domain.Fund, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f, ok := r.store.funds[id]
	if !ok {
		return nil, util.ErrNotFound
	}
	return &f, nil
}

func (r fakeFundRepo) ListFunds(context.Context, repository.DBExecutor) ([]domain.Fund, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	funds := make([]domain.Fund, 0, len(r.store.funds))
	for _, f := range r.store.funds {
		funds = append(funds, f)
	}
	return funds, nil
}

type fakeInvestmentRepo struct{ store *fakeStore }

func (r fakeInvestmentRepo) CreateInvestment(_ context.Context, q repository.DBExecutor, inv *domain.FundInvestment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failInsert {
		return errors.New("insert failed")
	}
	inv.ID = r.store.nextID
	r.store.nextID++
	tx := q.(*fakeTx)
	tx.inserts = append(tx.inserts, *inv)
	return nil
}

func (r fakeInvestmentRepo) GetInvestmentByID(context.Context, repository.DBExecutor, int64) (*domain.FundInvestment, error) {
	return nil, util.ErrNotFound
}

func (r fakeInvestmentRepo) ListInvestments(context.Context, repository.DBExecutor, int, int) ([]domain.FundInvestment, int64, error) {
	l := r.store.ledger()
	return l, int64(len(l)), nil
}

func (r fakeInvestmentRepo) ListInvestmentsByUser(_ context.Context, _ repository.DBExecutor, userID int64) ([]domain.FundInvestment, error) {
	var out []domain.FundInvestment
	for _, inv := range r.store.ledger() {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r fakeInvestmentRepo) UpdateInvestment(context.Context, repository.DBExecutor, *domain.FundInvestment) error {
	return nil
}

func (r fakeInvestmentRepo) DeleteInvestment(context.Context, repository.DBExecutor, int64) error {
	return nil
}

// staticDirectory resolves "user-<id>" style identities from a fixed map.
type staticDirectory map[string]int64

func (d staticDirectory) ResolveCaller(_ context.Context, identity string) (int64, bool) {
	id, ok := d[identity]
	return id, ok
}

func newFakeInvestmentService(store *fakeStore, dir AccountDirectory) InvestmentService {
	begin, commit, rollback := store.txFuncs()
	return NewInvestmentService(nil, nil, dir,
		fakeWalletRepo{store}, fakeFundRepo{store}, fakeInvestmentRepo{store},
		begin, commit, rollback)
}
