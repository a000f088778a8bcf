package repo

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/pkg/recordstore"
)

var (
	ErrUserAlreadyExist = errors.New("user already exist")
	ErrRefreshInvalid   = errors.New("refresh token expired or revoked")
)

type GormRepo struct {
	DB    *gorm.DB
	Users *recordstore.Collection[models.User]
}

func New(db *gorm.DB) *GormRepo {
	users := recordstore.New[models.User](db, "users")
	users.OrderBy = "name ASC"
	return &GormRepo{DB: db, Users: users}
}
