// Package memory provides in-memory implementations of the repository
// interfaces. They mirror the conditional-write semantics of the MongoDB
// implementations and back the service test suites.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/carvfi/carvfi-backend/internal/models"
	"github.com/carvfi/carvfi-backend/internal/repositories"
)

// Compile-time checks
var (
	_ repositories.UserRepository             = (*UserRepository)(nil)
	_ repositories.PointTransactionRepository = (*PointTransactionRepository)(nil)
	_ repositories.TaskRepository             = (*TaskRepository)(nil)
	_ repositories.TaskProgressRepository     = (*TaskProgressRepository)(nil)
	_ repositories.LotteryPoolRepository      = (*LotteryPoolRepository)(nil)
	_ repositories.LotteryTicketRepository    = (*LotteryTicketRepository)(nil)
	_ repositories.AdminUserRepository        = (*AdminUserRepository)(nil)
)

// UserRepository is an in-memory user store keyed by wallet address.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// NewUserRepository creates an empty in-memory user store.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*models.User)}
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	r.users[user.WalletAddress] = copyUser(user)
	return nil
}

func (r *UserRepository) FindByWallet(ctx context.Context, wallet string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[wallet]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepository) FindByReferralCode(ctx context.Context, code string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ReferralCode == code {
			return copyUser(u), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, copyUser(u))
	}
	return users, nil
}

func (r *UserRepository) FindTopByPoints(ctx context.Context, limit int) ([]*models.User, error) {
	users, _ := r.FindAll(ctx)
	sort.Slice(users, func(i, j int) bool {
		if users[i].Points != users[j].Points {
			return users[i].Points > users[j].Points
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func (r *UserRepository) IncrementPoints(ctx context.Context, wallet string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[wallet]
	if !ok {
		return repositories.ErrConditionFailed
	}
	if delta < 0 && u.Points < -delta {
		return repositories.ErrConditionFailed
	}
	u.Points += delta
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) SetCheckIn(ctx context.Context, wallet string, date string, streak int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[wallet]
	if !ok {
		return repositories.ErrNotFound
	}
	u.LastCheckIn = date
	u.Streak = streak
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) SetTicketCounters(ctx context.Context, wallet string, date string, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[wallet]
	if !ok {
		return repositories.ErrNotFound
	}
	u.LastTicketDate = date
	u.DailyTicketCount = count
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) IncrementReferrals(ctx context.Context, wallet string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[wallet]
	if !ok {
		return repositories.ErrNotFound
	}
	u.ReferralsCount++
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// PointTransactionRepository is an in-memory ledger.
type PointTransactionRepository struct {
	mu   sync.RWMutex
	txns []*models.PointTransaction
}

// NewPointTransactionRepository creates an empty in-memory ledger.
func NewPointTransactionRepository() *PointTransactionRepository {
	return &PointTransactionRepository{}
}

func (r *PointTransactionRepository) Create(ctx context.Context, txn *models.PointTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn.ID = primitive.NewObjectID()
	txn.CreatedAt = time.Now().UTC()
	c := *txn
	r.txns = append(r.txns, &c)
	return nil
}

func (r *PointTransactionRepository) FindByWallet(ctx context.Context, wallet string) ([]*models.PointTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.PointTransaction
	for _, t := range r.txns {
		if t.WalletAddress == wallet {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if out == nil {
		out = []*models.PointTransaction{}
	}
	return out, nil
}

func (r *PointTransactionRepository) ExistsByTxRef(ctx context.Context, wallet, txRef string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.txns {
		if t.WalletAddress == wallet && t.TxRef == txRef {
			return true, nil
		}
	}
	return false, nil
}

func (r *PointTransactionRepository) SumByWallet(ctx context.Context, wallet string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := 0
	for _, t := range r.txns {
		if t.WalletAddress == wallet {
			sum += t.Amount
		}
	}
	return sum, nil
}

// TaskRepository is an in-memory task config store.
type TaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]*models.Task
}

// NewTaskRepository creates an empty in-memory task store.
func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: make(map[string]*models.Task)}
}

func (r *TaskRepository) Upsert(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.tasks[task.ID]; ok {
		task.CreatedAt = existing.CreatedAt
	} else {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	c := *task
	r.tasks[task.ID] = &c
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (r *TaskRepository) FindAllActive(ctx context.Context) ([]*models.Task, error) {
	return r.find(func(t *models.Task) bool { return t.IsActive })
}

func (r *TaskRepository) FindAll(ctx context.Context) ([]*models.Task, error) {
	return r.find(func(*models.Task) bool { return true })
}

func (r *TaskRepository) find(keep func(*models.Task) bool) ([]*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.Task{}
	for _, t := range r.tasks {
		if keep(t) {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TaskRepository) SetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.IsActive = active
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *TaskRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.tasks)), nil
}

// TaskProgressRepository is an in-memory progress store keyed by the
// composite (wallet, taskId).
type TaskProgressRepository struct {
	mu      sync.RWMutex
	records map[string]*models.TaskProgress
}

// NewTaskProgressRepository creates an empty in-memory progress store.
func NewTaskProgressRepository() *TaskProgressRepository {
	return &TaskProgressRepository{records: make(map[string]*models.TaskProgress)}
}

func progressKey(wallet, taskID string) string {
	return wallet + "|" + taskID
}

func (r *TaskProgressRepository) Find(ctx context.Context, wallet, taskID string) (*models.TaskProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.records[progressKey(wallet, taskID)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r *TaskProgressRepository) FindByWallet(ctx context.Context, wallet string) ([]*models.TaskProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.TaskProgress{}
	for _, p := range r.records {
		if p.WalletAddress == wallet {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *TaskProgressRepository) Upsert(ctx context.Context, progress *models.TaskProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	key := progressKey(progress.WalletAddress, progress.TaskID)
	if existing, ok := r.records[key]; ok {
		progress.ID = existing.ID
		progress.CreatedAt = existing.CreatedAt
	} else {
		progress.ID = primitive.NewObjectID()
		progress.CreatedAt = now
	}
	progress.UpdatedAt = now
	c := *progress
	r.records[key] = &c
	return nil
}

// LotteryPoolRepository is an in-memory pool store.
type LotteryPoolRepository struct {
	mu    sync.RWMutex
	pools map[string]*models.LotteryPool
}

// NewLotteryPoolRepository creates an empty in-memory pool store.
func NewLotteryPoolRepository() *LotteryPoolRepository {
	return &LotteryPoolRepository{pools: make(map[string]*models.LotteryPool)}
}

func copyPool(p *models.LotteryPool) *models.LotteryPool {
	c := *p
	c.Participants = append([]string{}, p.Participants...)
	c.Winners = append([]models.PoolWinner{}, p.Winners...)
	return &c
}

func (r *LotteryPoolRepository) Create(ctx context.Context, pool *models.LotteryPool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	pool.CreatedAt = now
	pool.UpdatedAt = now
	if pool.Participants == nil {
		pool.Participants = []string{}
	}
	r.pools[pool.ID] = copyPool(pool)
	return nil
}

func (r *LotteryPoolRepository) FindByID(ctx context.Context, id string) (*models.LotteryPool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pools[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyPool(p), nil
}

func (r *LotteryPoolRepository) FindByStatus(ctx context.Context, status models.PoolStatus) ([]*models.LotteryPool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.LotteryPool{}
	for _, p := range r.pools {
		if p.Status == status {
			out = append(out, copyPool(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *LotteryPoolRepository) AddEntries(ctx context.Context, poolID string, wallets []string, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pools[poolID]
	if !ok || p.Status != models.PoolStatusOpen {
		return repositories.ErrConditionFailed
	}
	p.PrizePool += amount
	p.Participants = append(p.Participants, wallets...)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *LotteryPoolRepository) AddToPrizePool(ctx context.Context, poolID string, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pools[poolID]
	if !ok || p.Status != models.PoolStatusOpen {
		return repositories.ErrConditionFailed
	}
	p.PrizePool += amount
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *LotteryPoolRepository) TransitionStatus(ctx context.Context, poolID string, from, to models.PoolStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pools[poolID]
	if !ok || p.Status != from {
		return repositories.ErrConditionFailed
	}
	p.Status = to
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *LotteryPoolRepository) FinalizeDraw(ctx context.Context, pool *models.LotteryPool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pools[pool.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Status = models.PoolStatusCompleted
	p.Winners = append([]models.PoolWinner{}, pool.Winners...)
	p.DrawnAt = pool.DrawnAt
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// LotteryTicketRepository is an in-memory receipt store.
type LotteryTicketRepository struct {
	mu      sync.RWMutex
	tickets []*models.LotteryTicket
}

// NewLotteryTicketRepository creates an empty in-memory receipt store.
func NewLotteryTicketRepository() *LotteryTicketRepository {
	return &LotteryTicketRepository{}
}

func (r *LotteryTicketRepository) CreateMany(ctx context.Context, tickets []*models.LotteryTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tickets {
		c := *t
		r.tickets = append(r.tickets, &c)
	}
	return nil
}

func (r *LotteryTicketRepository) FindByWallet(ctx context.Context, wallet string, limit int) ([]*models.LotteryTicket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.LotteryTicket{}
	for _, t := range r.tickets {
		if t.WalletAddress == wallet {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchasedAt.After(out[j].PurchasedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *LotteryTicketRepository) FindByPool(ctx context.Context, poolID string) ([]*models.LotteryTicket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.LotteryTicket{}
	for _, t := range r.tickets {
		if t.PoolID == poolID {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

// AdminUserRepository is an in-memory operator account store.
type AdminUserRepository struct {
	mu     sync.RWMutex
	admins map[string]*models.AdminUser
}

// NewAdminUserRepository creates an empty in-memory admin store.
func NewAdminUserRepository() *AdminUserRepository {
	return &AdminUserRepository{admins: make(map[string]*models.AdminUser)}
}

func (r *AdminUserRepository) Upsert(ctx context.Context, admin *models.AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.admins[admin.Email]; ok {
		admin.ID = existing.ID
		admin.CreatedAt = existing.CreatedAt
	} else {
		admin.ID = primitive.NewObjectID()
		admin.CreatedAt = now
	}
	admin.UpdatedAt = now
	c := *admin
	r.admins[admin.Email] = &c
	return nil
}

func (r *AdminUserRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.admins[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *a
	return &c, nil
}
