package db

import (
	"log"

	"github.com/kuidando/kuidando/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type AuthRepository interface {
	CreateUser(user *models.User) (*models.User, error)
	IsEmailExist(email string) error
	FindUserByEmail(email string) (*models.User, error)
	FindUserByID(id uint) (*models.User, error)
	UpdateUser(user *models.User) error
	EditUserProfile(userID uint, details *models.EditProfileRequest) error
	AddToBlackList(blacklist *models.Blacklist) error
	IsTokenInBlacklist(token string) bool
	ResetPassword(userID uint, newHashedPassword string) error
}

type authRepo struct {
	DB *gorm.DB
}

func NewAuthRepo(db *GormDB) AuthRepository {
	return &authRepo{db.DB}
}

func (a *authRepo) CreateUser(user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	if err := a.DB.Create(user).Error; err != nil {
		log.Printf("CreateUser error: %v", err)
		return nil, err
	}
	return user, nil
}

// IsEmailExist returns an error when the email is already registered.
func (a *authRepo) IsEmailExist(email string) error {
	var count int64
	err := a.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "gorm count error")
	}
	if count > 0 {
		return errors.New("email already in use")
	}
	return nil
}

func (a *authRepo) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := a.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *authRepo) FindUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := a.DB.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *authRepo) UpdateUser(user *models.User) error {
	return a.DB.Save(user).Error
}

func (a *authRepo) EditUserProfile(userID uint, details *models.EditProfileRequest) error {
	result := a.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("fullname", details.Fullname)
	if result.Error != nil {
		return errors.Wrap(result.Error, "could not update user profile")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (a *authRepo) AddToBlackList(blacklist *models.Blacklist) error {
	result := a.DB.Create(blacklist)
	return errors.Wrap(result.Error, "create blacklist error")
}

func (a *authRepo) IsTokenInBlacklist(token string) bool {
	var count int64
	// missing rows count as not blacklisted; a DB error here must not lock
	// every user out
	if err := a.DB.Model(&models.Blacklist{}).Where("token = ?", token).Count(&count).Error; err != nil {
		log.Printf("IsTokenInBlacklist error: %v", err)
		return false
	}
	return count > 0
}

func (a *authRepo) ResetPassword(userID uint, newHashedPassword string) error {
	result := a.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("hashed_password", newHashedPassword)
	if result.Error != nil {
		return errors.Wrap(result.Error, "could not reset password")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
