package application

import (
	"context"
	"sync"
	"time"

	bonusdomain "banya/internal/service/bonus/domain"
	"banya/internal/service/booking/domain"
	catalog "banya/internal/service/catalog/domain"
)

// fakeBookingRepo 是 domain.Repository 的内存实现。
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]domain.Booking
	failDel  map[string]error // 注入 Delete 失败
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]domain.Booking), failDel: make(map[string]error)}
}

func (r *fakeBookingRepo) Create(_ context.Context, b *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID] = *b
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	cp := b
	return &cp, nil
}

func (r *fakeBookingRepo) Update(_ context.Context, b *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; !ok {
		return domain.ErrBookingNotFound
	}
	r.bookings[b.ID] = *b
	return nil
}

func (r *fakeBookingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failDel[id]; err != nil {
		return err
	}
	delete(r.bookings, id)
	return nil
}

func (r *fakeBookingRepo) FindRoomBookingsFrom(_ context.Context, roomID uint, from time.Time) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Booking
	for _, b := range r.bookings {
		if b.RoomID == roomID && b.End().After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) FindActiveByPhone(_ context.Context, phone string, now time.Time) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Booking
	for _, b := range r.bookings {
		if b.Phone == phone && b.End().After(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) FindByPhone(_ context.Context, phone string) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Booking
	for _, b := range r.bookings {
		if b.Phone == phone {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) FindUnconfirmedBefore(_ context.Context, deadline time.Time) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Booking
	for _, b := range r.bookings {
		if !b.Confirmed && b.CreatedAt.Before(deadline) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) FindConfirmedEndedBefore(_ context.Context, deadline time.Time) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Booking
	for _, b := range r.bookings {
		if b.Confirmed && !b.End().After(deadline) {
			out = append(out, b)
		}
	}
	return out, nil
}

// fakeCatalogRepo 返回固定的房间、门店和商品。
type fakeCatalogRepo struct {
	bathhouse *catalog.Bathhouse
	rooms     map[uint]catalog.Room
	items     map[uint]catalog.Item
}

func (r *fakeCatalogRepo) FindRoom(_ context.Context, roomID uint) (*catalog.Room, *catalog.Bathhouse, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, nil, catalog.ErrRoomNotFound
	}
	return &room, r.bathhouse, nil
}

func (r *fakeCatalogRepo) FindBathhouse(_ context.Context, bathhouseID uint) (*catalog.Bathhouse, error) {
	if r.bathhouse == nil || r.bathhouse.ID != bathhouseID {
		return nil, catalog.ErrBathhouseNotFound
	}
	return r.bathhouse, nil
}

func (r *fakeCatalogRepo) FindItems(_ context.Context, itemIDs []uint) ([]catalog.Item, error) {
	var out []catalog.Item
	for _, id := range itemIDs {
		item, ok := r.items[id]
		if !ok {
			return nil, catalog.ErrItemNotFound
		}
		out = append(out, item)
	}
	return out, nil
}

// fakeBonusRepo 是 bonusdomain.Repository 的内存实现。
type fakeBonusRepo struct {
	mu       sync.Mutex
	nextID   uint
	accounts map[string]*bonusdomain.Account // key: phone
	txs      []bonusdomain.Transaction
}

func newFakeBonusRepo() *fakeBonusRepo {
	return &fakeBonusRepo{nextID: 1, accounts: make(map[string]*bonusdomain.Account)}
}

func (r *fakeBonusRepo) GetOrCreateAccount(_ context.Context, bathhouseID uint, phone string) (*bonusdomain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if acc, ok := r.accounts[phone]; ok {
		cp := *acc
		return &cp, nil
	}
	acc := &bonusdomain.Account{ID: r.nextID, BathhouseID: bathhouseID, Phone: phone}
	r.nextID++
	r.accounts[phone] = acc
	cp := *acc
	return &cp, nil
}

func (r *fakeBonusRepo) FindAccount(_ context.Context, _ uint, phone string) (*bonusdomain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[phone]
	if !ok {
		return nil, bonusdomain.ErrAccountNotFound
	}
	cp := *acc
	return &cp, nil
}

func (r *fakeBonusRepo) FindAccountForUpdate(ctx context.Context, bathhouseID uint, phone string) (*bonusdomain.Account, error) {
	return r.FindAccount(ctx, bathhouseID, phone)
}

func (r *fakeBonusRepo) SaveBalance(_ context.Context, account *bonusdomain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[account.Phone]
	if !ok {
		return bonusdomain.ErrAccountNotFound
	}
	stored.Balance = account.Balance
	return nil
}

func (r *fakeBonusRepo) HasAccrualForBooking(_ context.Context, bookingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.Type == bonusdomain.TxAccrual && tx.BookingID != nil && *tx.BookingID == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBonusRepo) AddTransaction(_ context.Context, tx *bonusdomain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs = append(r.txs, *tx)
	return nil
}

func (r *fakeBonusRepo) Transactions(_ context.Context, accountID uint) ([]bonusdomain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []bonusdomain.Transaction
	for _, tx := range r.txs {
		if tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// passthroughTx 在测试里代替真实事务：直接执行，不回滚。
type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeScheduler 记录被调度的预订。
type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []string
}

func (s *fakeScheduler) ScheduleExpiryCheck(_ context.Context, bookingID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, bookingID)
	return nil
}

// fakeProducer 记录发布的事件。
type fakeProducer struct {
	mu     sync.Mutex
	events []domain.BookingEvent
}

func (p *fakeProducer) PublishBookingEvent(_ context.Context, event *domain.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return nil
}

func (p *fakeProducer) typesSeen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// fakeSMS 记录发过的码。
type fakeSMS struct {
	mu    sync.Mutex
	codes map[string][]string // phone -> codes
}

func newFakeSMS() *fakeSMS {
	return &fakeSMS{codes: make(map[string][]string)}
}

func (s *fakeSMS) SendCode(_ context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[phone] = append(s.codes[phone], code)
	return nil
}
