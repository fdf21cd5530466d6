package implementation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"captionchecker-be/internal/apperr"
	"captionchecker-be/internal/entity"
	"captionchecker-be/internal/mapper"
	"captionchecker-be/internal/model"
	"captionchecker-be/internal/repository/contract"
	"captionchecker-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserRepository(db *gorm.DB) contract.UserRepository {
	return &UserRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *UserRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entity.User) error {
	modelUser := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Create(modelUser).Error; err != nil {
		// Two concurrent signups can both pass the existence check; the
		// unique index on email settles the race.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: user already exists", apperr.ErrConflict)
		}
		return err
	}
	*user = *r.mapper.ToEntity(modelUser)
	return nil
}

func (r *UserRepositoryImpl) Update(ctx context.Context, user *entity.User) error {
	modelUser := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Save(modelUser).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(modelUser)
	return nil
}

func (r *UserRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var modelUser model.User
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&modelUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&modelUser), nil
}

func (r *UserRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.User{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UserRepositoryImpl) SetVerificationToken(ctx context.Context, userId uuid.UUID, token string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userId).
		Update("verify_email_token", token).Error
}

func (r *UserRepositoryImpl) MarkVerified(ctx context.Context, userId uuid.UUID, token string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND verify_email_token = ?", userId, token).
		Updates(map[string]interface{}{
			"verified":           true,
			"verify_email_token": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrUnauthenticated
	}
	return nil
}

func (r *UserRepositoryImpl) SetResetToken(ctx context.Context, userId uuid.UUID, token string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userId).
		Updates(map[string]interface{}{
			"reset_token":     token,
			"reset_token_exp": expiresAt,
		}).Error
}

func (r *UserRepositoryImpl) ResetPassword(ctx context.Context, userId uuid.UUID, token, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND reset_token = ? AND reset_token_exp > ?", userId, token, time.Now()).
		Updates(map[string]interface{}{
			"password_hash":   passwordHash,
			"reset_token":     nil,
			"reset_token_exp": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrUnauthenticated
	}
	return nil
}

func (r *UserRepositoryImpl) UpdatePassword(ctx context.Context, userId uuid.UUID, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userId).
		Update("password_hash", passwordHash).Error
}

// ConsumeQuota runs a single guarded UPDATE so two concurrent requests can
// never both pass a read-check and push the counter past its ceiling. The
// guard also carries the unverified single-action cap.
func (r *UserRepositoryImpl) ConsumeQuota(ctx context.Context, userId uuid.UUID, action entity.Action) error {
	counter, ceiling := "requests", "max_requests"
	if action == entity.ActionImage {
		counter, ceiling = "image_requests", "max_image_requests"
	}

	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userId).
		Where(counter+" < "+ceiling).
		Where("(verified = true OR requests + image_requests < ?)", entity.UnverifiedActionCap).
		Update(counter, gorm.Expr(counter+" + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing user from an exhausted quota.
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userId).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperr.ErrNotFound
		}
		return apperr.ErrQuotaExceeded
	}
	return nil
}

func (r *UserRepositoryImpl) ApplyPlan(ctx context.Context, userId uuid.UUID, plan, paymentId string, maxRequests, maxImageRequests int) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userId).
		Updates(map[string]interface{}{
			"plan":               plan,
			"payment_id":         paymentId,
			"requests":           0,
			"image_requests":     0,
			"max_requests":       maxRequests,
			"max_image_requests": maxImageRequests,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
