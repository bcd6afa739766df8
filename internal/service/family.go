package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/foodflow/backend/internal/models"
	"gorm.io/gorm"
)

const (
	familyCodeLength   = 12
	familyCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type FamilyService struct {
	db *gorm.DB
}

func NewFamilyService(db *gorm.DB) *FamilyService {
	return &FamilyService{db: db}
}

// GenerateFamilyCode returns a random 12 character uppercase alphanumeric code
func GenerateFamilyCode() (string, error) {
	var sb strings.Builder
	limit := big.NewInt(int64(len(familyCodeAlphabet)))
	for i := 0; i < familyCodeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate family code: %w", err)
		}
		sb.WriteByte(familyCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// activeMembership returns the membership of userID in an active family
func activeMembership(tx *gorm.DB, userID uuid.UUID) (*models.FamilyMember, error) {
	var member models.FamilyMember
	err := tx.Joins("JOIN families ON families.id = family_members.family_id").
		Where("family_members.user_id = ? AND families.is_active = ?", userID, true).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load family membership: %w", err)
	}
	return &member, nil
}

// familyMemberIDs lists the users sharing a family with userID, userID
// included. Without a family only userID is returned.
func familyMemberIDs(tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	member, err := activeMembership(tx, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return []uuid.UUID{userID}, nil
	}

	var ids []uuid.UUID
	if err := tx.Model(&models.FamilyMember{}).Where("family_id = ?", member.FamilyID).Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load family members: %w", err)
	}
	return ids, nil
}

// familySize is the number of members of the family of userID, 1 without a family
func familySize(tx *gorm.DB, userID uuid.UUID) (int, error) {
	ids, err := familyMemberIDs(tx, userID)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 1, nil
	}
	return len(ids), nil
}

// Create makes a new family with userID as admin
func (s *FamilyService) Create(ctx context.Context, userID uuid.UUID, name string) (*models.Family, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, invalid("name", "must be 1-100 characters")
	}

	var family models.Family
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := activeMembership(tx, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyMember
		}

		code, err := s.uniqueCode(tx)
		if err != nil {
			return err
		}

		family = models.Family{
			Name:       name,
			FamilyCode: code,
			CreatedBy:  userID,
			IsActive:   true,
		}
		if err := tx.Create(&family).Error; err != nil {
			return fmt.Errorf("failed to create family: %w", err)
		}

		member := models.FamilyMember{FamilyID: family.ID, UserID: userID, JoinedAt: time.Now(), IsAdmin: true}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to add family admin: %w", err)
		}
		family.Members = []models.FamilyMember{member}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &family, nil
}

func (s *FamilyService) uniqueCode(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := GenerateFamilyCode()
		if err != nil {
			return "", err
		}
		var count int64
		if err := tx.Model(&models.Family{}).Where("family_code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check family code: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("failed to generate a unique family code")
}

// Join adds userID to the active family with the given code
func (s *FamilyService) Join(ctx context.Context, userID uuid.UUID, code string) (*models.Family, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != familyCodeLength {
		return nil, invalid("family_code", "must be %d characters", familyCodeLength)
	}

	var family models.Family
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := activeMembership(tx, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyMember
		}

		if err := tx.Where("family_code = ? AND is_active = ?", code, true).First(&family).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load family: %w", err)
		}

		member := models.FamilyMember{FamilyID: family.ID, UserID: userID, JoinedAt: time.Now()}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to join family: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// Leave removes userID from its family. The oldest remaining member becomes
// admin when the admin leaves; an empty family is deactivated.
func (s *FamilyService) Leave(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := activeMembership(tx, userID)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrNotMember
		}

		if err := tx.Delete(member).Error; err != nil {
			return fmt.Errorf("failed to leave family: %w", err)
		}

		var remaining []models.FamilyMember
		if err := tx.Where("family_id = ?", member.FamilyID).Order("joined_at").Find(&remaining).Error; err != nil {
			return fmt.Errorf("failed to load family members: %w", err)
		}

		if len(remaining) == 0 {
			return tx.Model(&models.Family{}).Where("id = ?", member.FamilyID).Update("is_active", false).Error
		}

		if member.IsAdmin {
			for _, m := range remaining {
				if m.IsAdmin {
					return nil
				}
			}
			return tx.Model(&remaining[0]).Update("is_admin", true).Error
		}
		return nil
	})
}

// Get returns the family of userID with its members
func (s *FamilyService) Get(ctx context.Context, userID uuid.UUID) (*models.Family, error) {
	db := s.db.WithContext(ctx)

	member, err := activeMembership(db, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotMember
	}

	var family models.Family
	err = db.Preload("Members", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("joined_at")
	}).Preload("Members.User").First(&family, "id = ?", member.FamilyID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load family: %w", err)
	}
	return &family, nil
}

// SharedProducts lists the non-wasted shared products of the other family members
func (s *FamilyService) SharedProducts(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	db := s.db.WithContext(ctx)

	ids, err := familyMemberIDs(db, userID)
	if err != nil {
		return nil, err
	}

	var products []models.Product
	err = db.Where("user_id IN ? AND user_id <> ? AND is_shared = ? AND wasted = ?", ids, userID, true, false).
		Order("expiry_date").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load shared products: %w", err)
	}
	return products, nil
}

// MemberCount is the family size used to apportion shared meals
func (s *FamilyService) MemberCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return familySize(s.db.WithContext(ctx), userID)
}
