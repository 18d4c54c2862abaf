package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/immxrtalbeast/skillswap/internal/repository/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore persists through gorm. Transactions lock only the rows they
// touch, so work on unrelated requests and sessions runs in parallel.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates or updates the schema for every persisted entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Post{},
		&model.SwapRequest{},
		&model.Session{},
		&model.Wallet{},
		&model.Transaction{},
	)
}

func (s *PostgresStore) Atomically(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &PostgresStore{db: tx})
	})
}

func (s *PostgresStore) Posts() PostRepository               { return postgresPosts{s.db} }
func (s *PostgresStore) SwapRequests() SwapRequestRepository { return postgresSwapRequests{s.db} }
func (s *PostgresStore) Sessions() SessionRepository         { return postgresSessions{s.db} }
func (s *PostgresStore) Wallets() WalletRepository           { return postgresWallets{s.db} }
func (s *PostgresStore) Transactions() TransactionRepository { return postgresTransactions{s.db} }

type postgresPosts struct{ db *gorm.DB }

func (r postgresPosts) Create(ctx context.Context, post *domain.Post) error {
	if post == nil {
		return errors.New("post is nil")
	}
	return r.db.WithContext(ctx).Create(toModelPost(post)).Error
}

func (r postgresPosts) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return toDomainPost(&post), nil
}

func (r postgresPosts) Update(ctx context.Context, post *domain.Post) error {
	if post == nil {
		return errors.New("post is nil")
	}
	m := toModelPost(post)
	res := r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", m.ID).Updates(map[string]any{
		"title":          m.Title,
		"coins_per_hour": m.CoinsPerHour,
		"days":           m.Days,
		"start_time":     m.StartTime,
		"end_time":       m.EndTime,
		"updated_at":     m.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

type postgresSwapRequests struct{ db *gorm.DB }

func (r postgresSwapRequests) Create(ctx context.Context, req *domain.SwapRequest) error {
	if req == nil {
		return errors.New("swap request is nil")
	}
	return r.db.WithContext(ctx).Create(toModelSwapRequest(req)).Error
}

func (r postgresSwapRequests) GetByID(ctx context.Context, id uuid.UUID) (*domain.SwapRequest, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r postgresSwapRequests) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.SwapRequest, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r postgresSwapRequests) get(db *gorm.DB, id uuid.UUID) (*domain.SwapRequest, error) {
	var req model.SwapRequest
	if err := db.First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSwapRequestNotFound
		}
		return nil, err
	}
	return toDomainSwapRequest(&req), nil
}

func (r postgresSwapRequests) Update(ctx context.Context, req *domain.SwapRequest) error {
	if req == nil {
		return errors.New("swap request is nil")
	}
	m := toModelSwapRequest(req)
	res := r.db.WithContext(ctx).Model(&model.SwapRequest{}).Where("id = ?", m.ID).Updates(map[string]any{
		"status":      m.Status,
		"session_id":  m.SessionID,
		"resolved_at": m.ResolvedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSwapRequestNotFound
	}
	return nil
}

func (r postgresSwapRequests) ListPending(ctx context.Context, startsBefore time.Time) ([]*domain.SwapRequest, error) {
	var rows []model.SwapRequest
	err := r.db.WithContext(ctx).
		Where("status = ? AND starts_at < ?", string(domain.SwapRequestPending), startsBefore.UTC()).
		Order("starts_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.SwapRequest, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainSwapRequest(&rows[i]))
	}
	return out, nil
}

type postgresSessions struct{ db *gorm.DB }

func (r postgresSessions) Create(ctx context.Context, session *domain.Session) error {
	if session == nil {
		return errors.New("session is nil")
	}
	if err := r.db.WithContext(ctx).Create(toModelSession(session)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSessionExists
		}
		return err
	}
	return nil
}

func (r postgresSessions) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

func (r postgresSessions) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r postgresSessions) GetBySwapRequest(ctx context.Context, swapRequestID uuid.UUID) (*domain.Session, error) {
	return r.first(r.db.WithContext(ctx), "swap_request_id = ?", swapRequestID)
}

func (r postgresSessions) first(db *gorm.DB, query string, arg any) (*domain.Session, error) {
	var session model.Session
	if err := db.First(&session, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return toDomainSession(&session), nil
}

func (r postgresSessions) Update(ctx context.Context, session *domain.Session) error {
	if session == nil {
		return errors.New("session is nil")
	}
	m := toModelSession(session)
	res := r.db.WithContext(ctx).Model(&model.Session{}).Where("id = ?", m.ID).Updates(map[string]any{
		"status":            m.Status,
		"host_joined_at":    m.HostJoinedAt,
		"learner_joined_at": m.LearnerJoinedAt,
		"started_at":        m.StartedAt,
		"ended_at":          m.EndedAt,
		"ended_by":          m.EndedBy,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r postgresSessions) ListByStatus(ctx context.Context, status domain.SessionStatus, scheduledBefore time.Time) ([]*domain.Session, error) {
	var rows []model.Session
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_time < ?", string(status), scheduledBefore.UTC()).
		Order("scheduled_time").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Session, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainSession(&rows[i]))
	}
	return out, nil
}

type postgresWallets struct{ db *gorm.DB }

func (r postgresWallets) Get(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	var wallet model.Wallet
	err := r.db.WithContext(ctx).First(&wallet, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &domain.Wallet{UserID: userID}, nil
		}
		return nil, err
	}
	return toDomainWallet(&wallet), nil
}

// GetForUpdate materialises the wallet row first so there is always a row to
// lock, even for a user's first transaction.
func (r postgresWallets) GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	db := r.db.WithContext(ctx)
	seed := model.Wallet{UserID: userID, UpdatedAt: time.Now().UTC()}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, err
	}

	var wallet model.Wallet
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&wallet, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return toDomainWallet(&wallet), nil
}

func (r postgresWallets) Save(ctx context.Context, wallet *domain.Wallet) error {
	if wallet == nil {
		return errors.New("wallet is nil")
	}
	m := model.Wallet{UserID: wallet.UserID, Balance: wallet.Balance, UpdatedAt: wallet.UpdatedAt.UTC()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
	}).Create(&m).Error
}

type postgresTransactions struct{ db *gorm.DB }

func (r postgresTransactions) Append(ctx context.Context, txns ...*domain.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	rows := make([]model.Transaction, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, toModelTransaction(t))
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (r postgresTransactions) FindByKey(ctx context.Context, key string) ([]*domain.Transaction, error) {
	return r.find(r.db.WithContext(ctx).Where("idempotency_key = ?", key).Order("created_at, type DESC"))
}

func (r postgresTransactions) ListByAccount(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Transaction, error) {
	q := r.db.WithContext(ctx).
		Where("(type = ? AND from_user_id = ?) OR (type = ? AND to_user_id = ?)",
			string(domain.TransactionDebit), userID, string(domain.TransactionCredit), userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.find(q)
}

func (r postgresTransactions) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.Transaction, error) {
	return r.find(r.db.WithContext(ctx).Where("related_session_id = ?", sessionID).Order("created_at"))
}

func (r postgresTransactions) find(q *gorm.DB) ([]*domain.Transaction, error) {
	var rows []model.Transaction
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainTransaction(&rows[i]))
	}
	return out, nil
}

func toModelPost(p *domain.Post) *model.Post {
	days := make([]string, 0, len(p.Availability.Days))
	for _, d := range p.Availability.Days {
		days = append(days, strconv.Itoa(int(d)))
	}
	return &model.Post{
		ID:           p.ID,
		OwnerID:      p.OwnerID,
		Title:        p.Title,
		CoinsPerHour: p.CoinsPerHour,
		Days:         strings.Join(days, ","),
		StartTime:    p.Availability.StartTime,
		EndTime:      p.Availability.EndTime,
		CreatedAt:    p.CreatedAt.UTC(),
		UpdatedAt:    p.UpdatedAt.UTC(),
	}
}

func toDomainPost(p *model.Post) *domain.Post {
	var days []time.Weekday
	for _, raw := range strings.Split(p.Days, ",") {
		if raw == "" {
			continue
		}
		d, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		days = append(days, time.Weekday(d))
	}
	return &domain.Post{
		ID:           p.ID,
		OwnerID:      p.OwnerID,
		Title:        p.Title,
		CoinsPerHour: p.CoinsPerHour,
		Availability: domain.AvailabilityWindow{
			Days:      days,
			StartTime: p.StartTime,
			EndTime:   p.EndTime,
		},
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

func toModelSwapRequest(r *domain.SwapRequest) *model.SwapRequest {
	return &model.SwapRequest{
		ID:              r.ID,
		PostID:          r.PostID,
		RequesterID:     r.RequesterID,
		ResponderID:     r.ResponderID,
		StartsAt:        r.ProposedSlot.StartsAt.UTC(),
		SlotStart:       r.ProposedSlot.Slot.Start,
		SlotEnd:         r.ProposedSlot.Slot.End,
		DurationMinutes: r.DurationMinutes,
		Cost:            r.Cost,
		Status:          string(r.Status),
		SessionID:       uuidPtr(r.SessionID),
		CreatedAt:       r.CreatedAt.UTC(),
		ResolvedAt:      timePtr(r.ResolvedAt),
	}
}

func toDomainSwapRequest(r *model.SwapRequest) *domain.SwapRequest {
	return &domain.SwapRequest{
		ID:          r.ID,
		PostID:      r.PostID,
		RequesterID: r.RequesterID,
		ResponderID: r.ResponderID,
		ProposedSlot: domain.ProposedSlot{
			StartsAt: r.StartsAt.UTC(),
			Slot:     domain.Slot{Start: r.SlotStart, End: r.SlotEnd},
		},
		DurationMinutes: r.DurationMinutes,
		Cost:            r.Cost,
		Status:          domain.SwapRequestStatus(r.Status),
		SessionID:       uuidVal(r.SessionID),
		CreatedAt:       r.CreatedAt.UTC(),
		ResolvedAt:      timeVal(r.ResolvedAt),
	}
}

func toModelSession(s *domain.Session) *model.Session {
	return &model.Session{
		ID:              s.ID,
		SwapRequestID:   s.SwapRequestID,
		HostID:          s.HostID,
		LearnerID:       s.LearnerID,
		ScheduledTime:   s.ScheduledTime.UTC(),
		DurationMinutes: s.DurationMinutes,
		Status:          string(s.Status),
		HostJoinedAt:    timePtr(s.HostJoinedAt),
		LearnerJoinedAt: timePtr(s.LearnerJoinedAt),
		StartedAt:       timePtr(s.StartedAt),
		EndedAt:         timePtr(s.EndedAt),
		EndedBy:         string(s.EndedBy),
		Cost:            s.Cost,
	}
}

func toDomainSession(s *model.Session) *domain.Session {
	return &domain.Session{
		ID:              s.ID,
		SwapRequestID:   s.SwapRequestID,
		HostID:          s.HostID,
		LearnerID:       s.LearnerID,
		ScheduledTime:   s.ScheduledTime.UTC(),
		DurationMinutes: s.DurationMinutes,
		Status:          domain.SessionStatus(s.Status),
		HostJoinedAt:    timeVal(s.HostJoinedAt),
		LearnerJoinedAt: timeVal(s.LearnerJoinedAt),
		StartedAt:       timeVal(s.StartedAt),
		EndedAt:         timeVal(s.EndedAt),
		EndedBy:         domain.ActorRole(s.EndedBy),
		Cost:            s.Cost,
	}
}

func toDomainWallet(w *model.Wallet) *domain.Wallet {
	return &domain.Wallet{UserID: w.UserID, Balance: w.Balance, UpdatedAt: w.UpdatedAt.UTC()}
}

func toModelTransaction(t *domain.Transaction) model.Transaction {
	return model.Transaction{
		ID:               t.ID,
		FromUserID:       t.FromUserID,
		ToUserID:         t.ToUserID,
		Amount:           t.Amount,
		PlatformShare:    t.PlatformShare,
		Type:             string(t.Type),
		RelatedSessionID: uuidPtr(t.RelatedSessionID),
		IdempotencyKey:   t.IdempotencyKey,
		Memo:             t.Memo,
		CreatedAt:        t.CreatedAt.UTC(),
	}
}

func toDomainTransaction(t *model.Transaction) *domain.Transaction {
	return &domain.Transaction{
		ID:               t.ID,
		FromUserID:       t.FromUserID,
		ToUserID:         t.ToUserID,
		Amount:           t.Amount,
		PlatformShare:    t.PlatformShare,
		Type:             domain.TransactionType(t.Type),
		RelatedSessionID: uuidVal(t.RelatedSessionID),
		IdempotencyKey:   t.IdempotencyKey,
		Memo:             t.Memo,
		CreatedAt:        t.CreatedAt.UTC(),
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func timeVal(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func uuidVal(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
