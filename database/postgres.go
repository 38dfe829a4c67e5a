package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"proshift/logger"
	logModel "proshift/models/log"
	"proshift/models/parcel"
	"proshift/models/payment"
	"proshift/models/rider"
	"proshift/models/tracking"
	"proshift/models/user"
	"proshift/types"
)

// PostgresStore is the relational Store backed by GORM
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore opens a GORM connection from a libpq style DSN
func NewPostgresStore(dsn string, debug bool) (*PostgresStore, error) {
	cfg := &gorm.Config{TranslateError: true}
	if !debug {
		cfg.Logger = gormLogger.Default.LogMode(gormLogger.Silent)
	}

	db, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")
	return &PostgresStore{db: db}, nil
}

// Migrate runs AutoMigrate for every model and then creates the extra indexes
func (s *PostgresStore) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	models := []interface{}{
		&user.User{},
		&parcel.Parcel{},
		&rider.Rider{},
		&payment.Payment{},
		&tracking.Tracking{},
		&logModel.Log{},
	}
	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}
	logger.Success("All migrations completed successfully")

	if err := createIndexes(db); err != nil {
		return err
	}
	logger.Success("All indexes created successfully")
	return nil
}

// createIndexes creates composite indexes AutoMigrate does not derive from tags
func createIndexes(db *gorm.DB) error {
	statements := []struct {
		name string
		sql  string
	}{
		{"parcel owner", "CREATE INDEX IF NOT EXISTS idx_parcels_user_email_creation ON parcels(user_email, creation_date DESC)"},
		{"parcel rider", "CREATE INDEX IF NOT EXISTS idx_parcels_rider_status ON parcels(assigned_rider_email, delivery_status)"},
		{"rider availability", "CREATE INDEX IF NOT EXISTS idx_riders_status_work_district ON riders(status, work_status, district)"},
		{"payment owner", "CREATE INDEX IF NOT EXISTS idx_payments_user_date ON payments(user_email, payment_date DESC)"},
		{"log created_at", "CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at)"},
		{"log status_code", "CREATE INDEX IF NOT EXISTS idx_logs_status_code ON logs(status_code)"},
	}
	for _, st := range statements {
		if err := db.Exec(st.sql).Error; err != nil {
			return fmt.Errorf("failed to create %s index: %w", st.name, err)
		}
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *PostgresStore) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func mapGormErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// bson field names used by ParcelUpdate.Fields that differ from the column names
var parcelColumns = map[string]string{
	"assignedRider":     "assigned_rider_id",
	"assignedEmail":     "assigned_rider_email",
	"assignedRiderName": "assigned_rider_name",
}

func toColumns(fields map[string]interface{}, rename map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if col, ok := rename[k]; ok {
			k = col
		}
		out[k] = v
	}
	return out
}

func likeContains(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

func (s *PostgresStore) updateWhere(ctx context.Context, model interface{}, where string, arg interface{}, fields map[string]interface{}) error {
	q := s.db.WithContext(ctx).Model(model).Where(where, arg)
	if len(fields) == 0 {
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	}
	res := q.Updates(fields)
	if res.Error != nil {
		return mapGormErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Users

func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, mapGormErr(err)
	}
	return &u, nil
}

func (s *PostgresStore) InsertUser(ctx context.Context, u *user.User) (string, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return "", mapGormErr(err)
	}
	return u.ID, nil
}

func (s *PostgresStore) TouchLastLogin(ctx context.Context, email string, at time.Time) error {
	return s.updateWhere(ctx, &user.User{}, "email = ?", email, map[string]interface{}{"last_login": at})
}

func (s *PostgresStore) SearchUsers(ctx context.Context, emailFragment string, limit int) ([]user.User, error) {
	out := []user.User{}
	err := s.db.WithContext(ctx).
		Where("email ILIKE ?", likeContains(emailFragment)).
		Order("email").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (s *PostgresStore) UpdateUserRole(ctx context.Context, id, role string) error {
	return s.updateWhere(ctx, &user.User{}, "id = ?", id, map[string]interface{}{"role": role})
}

func (s *PostgresStore) UpdateUserRoleByEmail(ctx context.Context, email, role string) error {
	return s.updateWhere(ctx, &user.User{}, "email = ?", email, map[string]interface{}{"role": role})
}

// Parcels

func (s *PostgresStore) ListParcels(ctx context.Context, f ParcelFilter) ([]parcel.Parcel, error) {
	q := s.db.WithContext(ctx).Model(&parcel.Parcel{})
	if f.UserEmail != "" {
		q = q.Where("user_email = ?", f.UserEmail)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.AssignedRiderEmail != "" {
		q = q.Where("assigned_rider_email = ?", f.AssignedRiderEmail)
	}
	if f.CashoutStatus != "" {
		q = q.Where("cashout_status = ?", f.CashoutStatus)
	}
	switch {
	case f.DeliveryStatus != "":
		q = q.Where("delivery_status = ?", f.DeliveryStatus)
	case len(f.DeliveryStatuses) > 0:
		q = q.Where("delivery_status IN ?", f.DeliveryStatuses)
	}

	out := []parcel.Parcel{}
	err := q.Order("creation_date DESC").Find(&out).Error
	return out, err
}

func (s *PostgresStore) FindParcel(ctx context.Context, id string) (*parcel.Parcel, error) {
	var p parcel.Parcel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, mapGormErr(err)
	}
	return &p, nil
}

func (s *PostgresStore) InsertParcel(ctx context.Context, p *parcel.Parcel) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return "", mapGormErr(err)
	}
	return p.ID, nil
}

func (s *PostgresStore) DeleteParcel(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&parcel.Parcel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateParcel(ctx context.Context, id string, u ParcelUpdate) error {
	return s.updateWhere(ctx, &parcel.Parcel{}, "id = ?", id, toColumns(u.Fields(), parcelColumns))
}

func (s *PostgresStore) CountParcelsByDeliveryStatus(ctx context.Context) ([]parcel.StatusCount, error) {
	out := []parcel.StatusCount{}
	err := s.db.WithContext(ctx).
		Model(&parcel.Parcel{}).
		Select("delivery_status AS status, COUNT(*) AS count").
		Group("delivery_status").
		Order("status").
		Scan(&out).Error
	return out, err
}

// Riders

func (s *PostgresStore) InsertRider(ctx context.Context, r *rider.Rider) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return "", mapGormErr(err)
	}
	return r.ID, nil
}

func (s *PostgresStore) FindRider(ctx context.Context, id string) (*rider.Rider, error) {
	var r rider.Rider
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, mapGormErr(err)
	}
	return &r, nil
}

func (s *PostgresStore) FindRiderByEmail(ctx context.Context, email string) (*rider.Rider, error) {
	var r rider.Rider
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&r).Error; err != nil {
		return nil, mapGormErr(err)
	}
	return &r, nil
}

func (s *PostgresStore) ListRiders(ctx context.Context, f RiderFilter) ([]rider.Rider, error) {
	q := s.db.WithContext(ctx).Model(&rider.Rider{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.WorkStatus != "" {
		q = q.Where("work_status = ?", f.WorkStatus)
	}
	if f.District != "" {
		q = q.Where("district = ?", f.District)
	}
	if f.Search != "" {
		like := likeContains(f.Search)
		q = q.Where("name ILIKE ? OR email ILIKE ?", like, like)
	}

	out := []rider.Rider{}
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *PostgresStore) UpdateRider(ctx context.Context, id string, u RiderUpdate) error {
	return s.updateWhere(ctx, &rider.Rider{}, "id = ?", id, u.Fields())
}

func (s *PostgresStore) UpdateRiderByEmail(ctx context.Context, email string, u RiderUpdate) error {
	return s.updateWhere(ctx, &rider.Rider{}, "email = ?", email, u.Fields())
}

// Payments

func (s *PostgresStore) InsertPayment(ctx context.Context, p *payment.Payment) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return "", mapGormErr(err)
	}
	return p.ID, nil
}

func (s *PostgresStore) ListPayments(ctx context.Context, email string) ([]payment.Payment, error) {
	q := s.db.WithContext(ctx).Model(&payment.Payment{})
	if email != "" {
		q = q.Where("user_email = ?", email)
	}
	out := []payment.Payment{}
	err := q.Order("payment_date DESC").Find(&out).Error
	return out, err
}

// Tracking

func (s *PostgresStore) InsertTracking(ctx context.Context, t *tracking.Tracking) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.History == nil {
		t.History = tracking.History{}
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return "", mapGormErr(err)
	}
	return t.ID, nil
}

func (s *PostgresStore) FindTracking(ctx context.Context, trackingID string) (*tracking.Tracking, error) {
	var t tracking.Tracking
	if err := s.db.WithContext(ctx).Where("tracking_id = ?", trackingID).First(&t).Error; err != nil {
		return nil, mapGormErr(err)
	}
	return &t, nil
}

// AppendTracking locks the row so concurrent appends do not drop history entries
func (s *PostgresStore) AppendTracking(ctx context.Context, trackingID string, e tracking.Event) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t tracking.Tracking
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tracking_id = ?", trackingID).
			First(&t).Error
		if err != nil {
			return mapGormErr(err)
		}

		t.History = append(t.History, e)
		return tx.Model(&t).Updates(map[string]interface{}{
			"history":        t.History,
			"current_status": e.Status,
			"updated_at":     e.Timestamp,
		}).Error
	})
}

// Logs

func (s *PostgresStore) InsertAPILog(ctx context.Context, entry types.LogEntry) error {
	doc := toLogModel(entry)
	doc.ID = uuid.NewString()
	return s.db.WithContext(ctx).Create(&doc).Error
}
