package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/types"
	"github.com/pageza/foodflow/backend/internal/units"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// DateLayout is the wire format of every date field
const DateLayout = "2006-01-02"

var productNamePattern = regexp.MustCompile(`^[\p{L}0-9 '\-.,()]{1,100}$`)

// ErrDuplicateProduct is matched by DuplicateProductError
var ErrDuplicateProduct = errors.New("product already in pantry")

// DuplicateProductError reports the pantry product that blocked an add
type DuplicateProductError struct {
	Existing models.Product
}

func (e *DuplicateProductError) Error() string {
	return fmt.Sprintf("Prodotto già presente. Quantità attuale: %g %s", e.Existing.Quantity, e.Existing.Unit)
}

func (e *DuplicateProductError) Is(target error) bool {
	return target == ErrDuplicateProduct
}

// ProductFilter narrows List
type ProductFilter struct {
	Category string
	Search   string
}

// AddProductResult is the outcome of Add
type AddProductResult struct {
	Product *models.Product `json:"product"`
	Award   *AwardResult    `json:"award,omitempty"`
}

type PantryService struct {
	db           *gorm.DB
	gamification *GamificationService
	titleCaser   cases.Caser
}

func NewPantryService(db *gorm.DB, gamification *GamificationService) *PantryService {
	return &PantryService{
		db:           db,
		gamification: gamification,
		titleCaser:   cases.Title(language.Italian),
	}
}

// NormalizeProductName trims and title-cases a product name
func (s *PantryService) NormalizeProductName(name string) string {
	return s.titleCaser.String(strings.Join(strings.Fields(name), " "))
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, invalid(field, "must be a date in YYYY-MM-DD format")
	}
	return models.DateOnly(t), nil
}

func (s *PantryService) buildProduct(req *types.ProductRequest, now time.Time, checkPast bool) (*models.Product, error) {
	name := s.NormalizeProductName(req.Name)
	if !productNamePattern.MatchString(name) {
		return nil, invalid("name", "Il nome contiene caratteri non validi")
	}
	if req.Quantity <= 0 {
		return nil, invalid("quantity", "La quantità deve essere maggiore di zero")
	}
	expiry, err := ParseDate("expiry_date", req.ExpiryDate)
	if err != nil {
		return nil, err
	}
	if checkPast && expiry.Before(models.DateOnly(now)) {
		return nil, invalid("expiry_date", "La data di scadenza non può essere nel passato")
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return nil, invalid("category", "is required")
	}
	minQty := 1.0
	if req.MinQuantity != nil {
		if *req.MinQuantity < 0 {
			return nil, invalid("min_quantity", "must not be negative")
		}
		minQty = *req.MinQuantity
	}

	return &models.Product{
		Name:        name,
		Quantity:    req.Quantity,
		Unit:        strings.TrimSpace(req.Unit),
		ExpiryDate:  expiry,
		Category:    category,
		MinQuantity: minQty,
		IsShared:    req.IsShared,
		Allergens:   strings.TrimSpace(req.Allergens),
		Notes:       strings.TrimSpace(req.Notes),
	}, nil
}

// List returns the non-wasted products of a user ordered by expiry
func (s *PantryService) List(ctx context.Context, userID uuid.UUID, filter ProductFilter) ([]models.Product, error) {
	query := s.db.WithContext(ctx).Where("user_id = ? AND wasted = ?", userID, false)
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	var products []models.Product
	if err := query.Order("expiry_date").Order("name").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if filter.Search != "" {
		products = filterByName(products, filter.Search)
	}
	return products, nil
}

// filterByName keeps products whose name contains search, ignoring case.
// SQLite's LOWER folds ASCII only, so accented names are matched here.
func filterByName(products []models.Product, search string) []models.Product {
	needle := strings.ToLower(strings.TrimSpace(search))
	matched := products[:0]
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			matched = append(matched, p)
		}
	}
	return matched
}

// Get returns a product owned by userID or shared by a member of its family
func (s *PantryService) Get(ctx context.Context, userID, productID uuid.UUID) (*models.Product, error) {
	db := s.db.WithContext(ctx)

	product, err := loadProduct(db, productID)
	if err != nil {
		return nil, err
	}
	if product.UserID == userID {
		return product, nil
	}
	if !product.IsShared {
		return nil, ErrForbidden
	}

	ids, err := familyMemberIDs(db, userID)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id == product.UserID {
			return product, nil
		}
	}
	return nil, ErrForbidden
}

func loadProduct(tx *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := tx.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return &product, nil
}

func loadOwnedProduct(tx *gorm.DB, userID, productID uuid.UUID) (*models.Product, error) {
	product, err := loadProduct(tx, productID)
	if err != nil {
		return nil, err
	}
	if product.UserID != userID {
		return nil, ErrForbidden
	}
	return product, nil
}

// Add validates and stores a new product, then awards product_added and, on
// the very first product, first_product
func (s *PantryService) Add(ctx context.Context, userID uuid.UUID, req *types.ProductRequest) (*AddProductResult, error) {
	product, err := s.buildProduct(req, time.Now(), true)
	if err != nil {
		return nil, err
	}
	product.UserID = userID

	result := &AddProductResult{Product: product}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var duplicate models.Product
		err := tx.Where("user_id = ? AND name = ? AND category = ? AND wasted = ?", userID, product.Name, product.Category, false).
			First(&duplicate).Error
		if err == nil {
			return &DuplicateProductError{Existing: duplicate}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check duplicates: %w", err)
		}

		if err := tx.Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		stats, err := s.gamification.EnsureStats(tx, userID)
		if err != nil {
			return err
		}
		first := stats.TotalProductsAdded == 0

		if err := s.gamification.IncrementStat(tx, userID, "total_products_added", 1); err != nil {
			return err
		}

		award, err := s.gamification.AwardPointsTx(tx, userID, ActionProductAdded, nil)
		if err != nil {
			return err
		}
		if first {
			bonus, err := s.gamification.AwardPointsTx(tx, userID, ActionFirstProduct, nil)
			if err != nil {
				return err
			}
			award = mergeAwards(award, bonus)
		}
		result.Award = award
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func mergeAwards(a, b *AwardResult) *AwardResult {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return &AwardResult{
		PointsAwarded: a.PointsAwarded + b.PointsAwarded,
		NewTotal:      b.NewTotal,
		Level:         b.Level,
		LevelUp:       a.LevelUp || b.LevelUp,
		NewBadges:     append(append([]models.Badge{}, a.NewBadges...), b.NewBadges...),
	}
}

// Update replaces the editable fields of a product owned by userID
func (s *PantryService) Update(ctx context.Context, userID, productID uuid.UUID, req *types.ProductRequest) (*models.Product, error) {
	updated, err := s.buildProduct(req, time.Now(), false)
	if err != nil {
		return nil, err
	}

	var product *models.Product
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		product, err = loadOwnedProduct(tx, userID, productID)
		if err != nil {
			return err
		}

		product.Name = updated.Name
		product.Quantity = updated.Quantity
		product.Unit = updated.Unit
		product.ExpiryDate = updated.ExpiryDate
		product.Category = updated.Category
		product.MinQuantity = updated.MinQuantity
		product.IsShared = updated.IsShared
		product.Allergens = updated.Allergens
		product.Notes = updated.Notes

		if err := tx.Save(product).Error; err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product owned by userID
func (s *PantryService) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := loadOwnedProduct(tx, userID, productID)
		if err != nil {
			return err
		}
		if err := tx.Delete(product).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
}

// Waste records that pct percent of a product was thrown away. At 100% the
// product is flagged wasted, otherwise its quantity shrinks.
func (s *PantryService) Waste(ctx context.Context, userID, productID uuid.UUID, pct float64) (*models.Product, *AwardResult, error) {
	if pct <= 0 || pct > 100 {
		return nil, nil, invalid("waste_percentage", "must be greater than 0 and at most 100")
	}

	var product *models.Product
	var award *AwardResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		product, err = loadOwnedProduct(tx, userID, productID)
		if err != nil {
			return err
		}
		if product.Wasted {
			return invalid("product", "already wasted")
		}

		wastedQty := product.Quantity
		if pct >= 100 {
			product.Wasted = true
		} else {
			wastedQty = product.Quantity * pct / 100
			product.Quantity = units.Round2(product.Quantity * (1 - pct/100))
		}
		if err := tx.Save(product).Error; err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}

		if err := s.gamification.IncrementStat(tx, userID, "total_products_wasted", 1); err != nil {
			return err
		}
		if err := recordWaste(tx, userID, product, wastedQty, time.Now()); err != nil {
			return err
		}
		if err := refreshWasteScore(tx, userID, time.Now()); err != nil {
			return err
		}

		points := int(5 * pct / 100)
		award, err = s.gamification.AwardPointsTx(tx, userID, ActionWasteReduction, &points)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return product, award, nil
}

// Recycle removes a product that was reused instead of thrown away and
// rewards the user with waste_reduction points
func (s *PantryService) Recycle(ctx context.Context, userID, productID uuid.UUID) (*AwardResult, error) {
	var award *AwardResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := loadOwnedProduct(tx, userID, productID)
		if err != nil {
			return err
		}
		if err := tx.Delete(product).Error; err != nil {
			return fmt.Errorf("failed to recycle product: %w", err)
		}
		if err := s.gamification.IncrementStat(tx, userID, "total_products_recycled", 1); err != nil {
			return err
		}
		award, err = s.gamification.AwardPointsTx(tx, userID, ActionWasteReduction, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return award, nil
}

// Expiring lists non-wasted products expiring within days, expired ones included
func (s *PantryService) Expiring(ctx context.Context, userID uuid.UUID, days int) ([]models.Product, error) {
	return expiringProducts(s.db.WithContext(ctx), userID, days, time.Now())
}

func expiringProducts(tx *gorm.DB, userID uuid.UUID, days int, now time.Time) ([]models.Product, error) {
	cutoff := models.DateOnly(now).AddDate(0, 0, days)
	var products []models.Product
	err := tx.Where("user_id = ? AND wasted = ? AND expiry_date <= ?", userID, false, cutoff).
		Order("expiry_date").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load expiring products: %w", err)
	}
	return products, nil
}

// LowStock lists non-wasted products at or below their minimum quantity
func (s *PantryService) LowStock(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	return lowStockProducts(s.db.WithContext(ctx), userID)
}

func lowStockProducts(tx *gorm.DB, userID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := tx.Where("user_id = ? AND wasted = ? AND quantity <= min_quantity", userID, false).
		Order("quantity").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load low stock products: %w", err)
	}
	return products, nil
}

// ByCategory groups the non-wasted products of a user by category
func (s *PantryService) ByCategory(ctx context.Context, userID uuid.UUID) (map[string][]models.Product, error) {
	products, err := s.List(ctx, userID, ProductFilter{})
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]models.Product)
	for _, p := range products {
		grouped[p.Category] = append(grouped[p.Category], p)
	}
	return grouped, nil
}

// availableProducts returns the non-wasted products of a user with a positive quantity
func availableProducts(tx *gorm.DB, userID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := tx.Where("user_id = ? AND wasted = ? AND quantity > ?", userID, false, 0).
		Order("expiry_date").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load pantry: %w", err)
	}
	return products, nil
}
