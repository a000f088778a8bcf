package repo

import (
	"context"
	"time"

	jwthelp "github.com/Skotchmaster/till_shop/pkg/jwt"
	"gorm.io/gorm"

	"github.com/Skotchmaster/till_shop/internal/models"
)

func (r *GormRepo) AddRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

// usable reports whether the token is known, unexpired and not yet revoked.
func usable(db *gorm.DB, jti, hash string, now time.Time) error {
	var refresh models.RefreshToken
	if err := db.Where("jti = ? AND token = ?", jti, hash).First(&refresh).Error; err != nil {
		return ErrRefreshInvalid
	}
	if refresh.ExpiresAt < now.Unix() || refresh.Revoked {
		return ErrRefreshInvalid
	}
	return nil
}

// RotateRefreshToken revokes the presented token and stores its successor in
// one transaction, so a refresh token can be spent only once.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI, oldToken string, next *models.RefreshToken, now time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := usable(tx, oldJTI, jwthelp.Sha256Hex(oldToken), now); err != nil {
			return err
		}
		res := tx.Model(&models.RefreshToken{}).
			Where("jti = ? AND revoked = ?", oldJTI, false).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRefreshInvalid
		}
		return tx.Create(next).Error
	})
}

func (r *GormRepo) LogOut(ctx context.Context, refreshToken string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", jwthelp.Sha256Hex(refreshToken)).
		Update("revoked", true).Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}
