package application

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"banya/internal/service/bonus/domain"
)

// memoryRepo 是 domain.Repository 的内存实现。
type memoryRepo struct {
	mu       sync.Mutex
	nextID   uint
	accounts map[string]*domain.Account
	txs      []domain.Transaction
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, accounts: make(map[string]*domain.Account)}
}

func (r *memoryRepo) GetOrCreateAccount(_ context.Context, bathhouseID uint, phone string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if acc, ok := r.accounts[phone]; ok {
		cp := *acc
		return &cp, nil
	}
	acc := &domain.Account{ID: r.nextID, BathhouseID: bathhouseID, Phone: phone}
	r.nextID++
	r.accounts[phone] = acc
	cp := *acc
	return &cp, nil
}

func (r *memoryRepo) FindAccount(_ context.Context, _ uint, phone string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[phone]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *acc
	return &cp, nil
}

func (r *memoryRepo) FindAccountForUpdate(ctx context.Context, bathhouseID uint, phone string) (*domain.Account, error) {
	return r.FindAccount(ctx, bathhouseID, phone)
}

func (r *memoryRepo) SaveBalance(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[account.Phone]
	if !ok {
		return domain.ErrAccountNotFound
	}
	stored.Balance = account.Balance
	return nil
}

func (r *memoryRepo) HasAccrualForBooking(_ context.Context, bookingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.Type == domain.TxAccrual && tx.BookingID != nil && *tx.BookingID == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) AddTransaction(_ context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs = append(r.txs, *tx)
	return nil
}

func (r *memoryRepo) Transactions(_ context.Context, accountID uint) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range r.txs {
		if tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// memoryLock 单进程互斥，记录是否出现过重入。
type memoryLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemoryLock() *memoryLock {
	return &memoryLock{held: make(map[string]bool)}
}

func (l *memoryLock) Acquire(_ context.Context, bookingID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[bookingID] {
		return false, nil
	}
	l.held[bookingID] = true
	return true, nil
}

func (l *memoryLock) Release(_ context.Context, bookingID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, bookingID)
	return nil
}

func flatPolicy(pct float64) domain.AccrualPolicy {
	return domain.AccrualPolicy{Enabled: true, FlatPct: pct}
}

func TestAccrue(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewBonusService(repo, newMemoryLock(), otel.Tracer("test"))

	err := svc.Accrue(context.Background(), AccrualRequest{
		BookingID:   "b1",
		BathhouseID: 1,
		Phone:       "+77010000001",
		FinalPrice:  2000,
		Policy:      flatPolicy(5),
	})
	if err != nil {
		t.Fatalf("Accrue: %v", err)
	}

	balance, err := svc.Balance(context.Background(), 1, "+77010000001")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 100.00 {
		t.Fatalf("balance = %.2f, want 100.00", balance)
	}
	if len(repo.txs) != 1 || repo.txs[0].Type != domain.TxAccrual || repo.txs[0].Amount != 100.00 {
		t.Fatalf("txs = %+v", repo.txs)
	}
}

func TestAccrueIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewBonusService(repo, newMemoryLock(), otel.Tracer("test"))

	req := AccrualRequest{
		BookingID:   "b1",
		BathhouseID: 1,
		Phone:       "+77010000001",
		FinalPrice:  2000,
		Policy:      flatPolicy(5),
	}
	for i := 0; i < 3; i++ {
		if err := svc.Accrue(context.Background(), req); err != nil {
			t.Fatalf("Accrue #%d: %v", i, err)
		}
	}

	balance, _ := svc.Balance(context.Background(), 1, "+77010000001")
	if balance != 100.00 {
		t.Fatalf("balance = %.2f, want 100.00 after repeated accruals", balance)
	}
	if len(repo.txs) != 1 {
		t.Fatalf("txs = %d, want exactly 1", len(repo.txs))
	}
}

func TestAccrueSilentSkips(t *testing.T) {
	tests := []struct {
		name   string
		price  float64
		policy domain.AccrualPolicy
	}{
		{"policy disabled", 2000, domain.AccrualPolicy{FlatPct: 5}},
		{"zero price", 0, flatPolicy(5)},
		{"zero percent", 2000, domain.AccrualPolicy{Enabled: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepo()
			svc := NewBonusService(repo, newMemoryLock(), otel.Tracer("test"))

			err := svc.Accrue(context.Background(), AccrualRequest{
				BookingID:   "b1",
				BathhouseID: 1,
				Phone:       "+77010000001",
				FinalPrice:  tt.price,
				Policy:      tt.policy,
			})
			if err != nil {
				t.Fatalf("skip must be silent, got %v", err)
			}
			if len(repo.txs) != 0 {
				t.Fatalf("no transaction expected, got %+v", repo.txs)
			}
			if len(repo.accounts) != 0 {
				t.Fatal("no account should be created on a skipped accrual")
			}
		})
	}
}

func TestAccrueTieredPolicy(t *testing.T) {
	policy := domain.AccrualPolicy{Enabled: true, Threshold: 5000, BelowPct: 3, AbovePct: 7}

	tests := []struct {
		name  string
		price float64
		want  float64
	}{
		{"below threshold", 2000, 60.00},
		{"at threshold uses upper tier", 5000, 350.00},
		{"above threshold", 10000, 700.00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepo()
			svc := NewBonusService(repo, newMemoryLock(), otel.Tracer("test"))

			err := svc.Accrue(context.Background(), AccrualRequest{
				BookingID:   "b1",
				BathhouseID: 1,
				Phone:       "+77010000001",
				FinalPrice:  tt.price,
				Policy:      policy,
			})
			if err != nil {
				t.Fatalf("Accrue: %v", err)
			}
			balance, _ := svc.Balance(context.Background(), 1, "+77010000001")
			if balance != tt.want {
				t.Fatalf("balance = %.2f, want %.2f", balance, tt.want)
			}
		})
	}
}

func TestAccrueSkipsWhenLockHeld(t *testing.T) {
	repo := newMemoryRepo()
	lock := newMemoryLock()
	svc := NewBonusService(repo, lock, otel.Tracer("test"))

	// 另一个调用正持有锁
	if ok, _ := lock.Acquire(context.Background(), "b1"); !ok {
		t.Fatal("setup: lock must be free")
	}

	err := svc.Accrue(context.Background(), AccrualRequest{
		BookingID:   "b1",
		BathhouseID: 1,
		Phone:       "+77010000001",
		FinalPrice:  2000,
		Policy:      flatPolicy(5),
	})
	if err != nil {
		t.Fatalf("contended accrual must be a silent skip, got %v", err)
	}
	if len(repo.txs) != 0 {
		t.Fatal("no transaction expected while lock is held elsewhere")
	}
}

func TestRedeem(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewBonusService(repo, newMemoryLock(), otel.Tracer("test"))

	acc, _ := repo.GetOrCreateAccount(context.Background(), 1, "+77010000001")
	acc.Balance = 500
	if err := repo.SaveBalance(context.Background(), acc); err != nil {
		t.Fatalf("SaveBalance: %v", err)
	}

	account, err := svc.Redeem(context.Background(), RedeemRequest{
		BathhouseID: 1,
		Phone:       "+77010000001",
		Amount:      300,
		BookingID:   "b1",
		Price:       2000,
	})
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if account.Balance != 200.00 {
		t.Fatalf("balance = %.2f, want 200.00", account.Balance)
	}

	txs, _ := svc.Transactions(context.Background(), 1, "+77010000001")
	if len(txs) != 1 || txs[0].Type != domain.TxRedemption || txs[0].Amount != 300 {
		t.Fatalf("txs = %+v", txs)
	}
}

func TestRedeemValidation(t *testing.T) {
	tests := []struct {
		name    string
		balance float64
		amount  float64
		price   float64
		wantErr error
	}{
		{"negative amount", 500, -10, 2000, domain.ErrNegativeAmount},
		{"over balance", 100, 300, 2000, domain.ErrInsufficientBalance},
		{"over price", 5000, 2500, 2000, domain.ErrRedemptionExceedsPrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepo()
			svc := NewBonusService(repo, newMemoryLock(), otel.Tracer("test"))

			acc, _ := repo.GetOrCreateAccount(context.Background(), 1, "+77010000001")
			acc.Balance = tt.balance
			if err := repo.SaveBalance(context.Background(), acc); err != nil {
				t.Fatalf("SaveBalance: %v", err)
			}

			_, err := svc.Redeem(context.Background(), RedeemRequest{
				BathhouseID: 1,
				Phone:       "+77010000001",
				Amount:      tt.amount,
				BookingID:   "b1",
				Price:       tt.price,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Redeem() error = %v, want %v", err, tt.wantErr)
			}

			// 校验失败后余额保持不变，不产生流水
			balance, _ := svc.Balance(context.Background(), 1, "+77010000001")
			if balance != tt.balance {
				t.Fatalf("balance = %.2f, want %.2f untouched", balance, tt.balance)
			}
			if len(repo.txs) != 0 {
				t.Fatalf("txs = %+v, want none", repo.txs)
			}
		})
	}
}

func TestBalanceMissingAccountIsZero(t *testing.T) {
	svc := NewBonusService(newMemoryRepo(), newMemoryLock(), otel.Tracer("test"))

	balance, err := svc.Balance(context.Background(), 1, "+77019999999")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("balance = %.2f, want 0", balance)
	}

	txs, err := svc.Transactions(context.Background(), 1, "+77019999999")
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("txs = %+v, want none", txs)
	}
}
