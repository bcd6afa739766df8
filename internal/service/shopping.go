package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/types"
	"github.com/pageza/foodflow/backend/internal/units"
	"gorm.io/gorm"
)

const (
	defaultCategory     = "Altro"
	purchasedShelfLife  = 30
	purchasedMinFactor  = 0.2
	smartExpiringWindow = 3
	smartMealPlanWindow = 7
)

// PriorityLevels maps priority names to ShoppingItem.Priority values
var PriorityLevels = map[string]int{
	"low":    models.PriorityLow,
	"medium": models.PriorityMedium,
	"high":   models.PriorityHigh,
}

// PriorityName is the inverse of PriorityLevels
func PriorityName(level int) string {
	switch level {
	case models.PriorityHigh:
		return "high"
	case models.PriorityMedium:
		return "medium"
	}
	return "low"
}

// SmartItem is one generated shopping suggestion
type SmartItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Category string  `json:"category"`
	Priority string  `json:"priority"`
	Source   string  `json:"source"`
	Reason   string  `json:"reason"`
}

// SmartList is the generated shopping list grouped by priority
type SmartList struct {
	Items               []SmartItem            `json:"items"`
	TotalItems          int                    `json:"total_items"`
	ByPriority          map[string][]SmartItem `json:"by_priority"`
	HighPriorityCount   int                    `json:"high_priority_count"`
	MediumPriorityCount int                    `json:"medium_priority_count"`
	LowPriorityCount    int                    `json:"low_priority_count"`
}

// CompletionResult reports how a completed list changed the pantry
type CompletionResult struct {
	List         *models.ShoppingList `json:"list"`
	Added        int                  `json:"added"`
	Updated      int                  `json:"updated"`
	PointsEarned int                  `json:"points_earned"`
	Award        *AwardResult         `json:"award,omitempty"`
}

type ShoppingService struct {
	db           *gorm.DB
	gamification *GamificationService
}

func NewShoppingService(db *gorm.DB, gamification *GamificationService) *ShoppingService {
	return &ShoppingService{db: db, gamification: gamification}
}

func loadOwnedList(tx *gorm.DB, userID, listID uuid.UUID) (*models.ShoppingList, error) {
	var list models.ShoppingList
	err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("priority DESC").Order("name")
	}).First(&list, "id = ?", listID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load shopping list: %w", err)
	}
	if list.UserID != userID {
		return nil, ErrForbidden
	}
	return &list, nil
}

func loadOwnedItem(tx *gorm.DB, userID, itemID uuid.UUID) (*models.ShoppingItem, *models.ShoppingList, error) {
	var item models.ShoppingItem
	if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to load shopping item: %w", err)
	}
	var list models.ShoppingList
	if err := tx.First(&list, "id = ?", item.ShoppingListID).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load shopping list: %w", err)
	}
	if list.UserID != userID {
		return nil, nil, ErrForbidden
	}
	return &item, &list, nil
}

// Lists returns the lists of a user, newest first
func (s *ShoppingService) Lists(ctx context.Context, userID uuid.UUID, includeCompleted bool) ([]models.ShoppingList, error) {
	query := s.db.WithContext(ctx).Preload("Items").Where("user_id = ?", userID)
	if !includeCompleted {
		query = query.Where("completed = ?", false)
	}
	var lists []models.ShoppingList
	if err := query.Order("created_at DESC").Find(&lists).Error; err != nil {
		return nil, fmt.Errorf("failed to list shopping lists: %w", err)
	}
	return lists, nil
}

// GetList returns a list with its items
func (s *ShoppingService) GetList(ctx context.Context, userID, listID uuid.UUID) (*models.ShoppingList, error) {
	return loadOwnedList(s.db.WithContext(ctx), userID, listID)
}

// CreateList creates an empty list and awards shopping_list_created
func (s *ShoppingService) CreateList(ctx context.Context, userID uuid.UUID, req *types.ShoppingListRequest) (*models.ShoppingList, *AwardResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, nil, invalid("name", "Nome obbligatorio")
	}
	if req.Budget != nil && *req.Budget < 0 {
		return nil, nil, invalid("budget", "must not be negative")
	}

	list := &models.ShoppingList{
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		StoreName:   strings.TrimSpace(req.StoreName),
		Budget:      req.Budget,
		IsTemplate:  req.IsTemplate,
	}

	var award *AwardResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(list).Error; err != nil {
			return fmt.Errorf("failed to create shopping list: %w", err)
		}
		var err error
		award, err = s.gamification.AwardPointsTx(tx, userID, ActionShoppingListCreated, nil)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return list, award, nil
}

// UpdateList changes name, description, store and budget of an open list
func (s *ShoppingService) UpdateList(ctx context.Context, userID, listID uuid.UUID, req *types.ShoppingListRequest) (*models.ShoppingList, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name", "Nome obbligatorio")
	}

	var list *models.ShoppingList
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		list, err = loadOwnedList(tx, userID, listID)
		if err != nil {
			return err
		}
		if list.Completed {
			return ErrAlreadyCompleted
		}
		return tx.Model(list).Updates(map[string]interface{}{
			"name":        name,
			"description": strings.TrimSpace(req.Description),
			"store_name":  strings.TrimSpace(req.StoreName),
			"budget":      req.Budget,
			"is_template": req.IsTemplate,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// DeleteList removes a list and its items
func (s *ShoppingService) DeleteList(ctx context.Context, userID, listID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		list, err := loadOwnedList(tx, userID, listID)
		if err != nil {
			return err
		}
		if err := tx.Where("shopping_list_id = ?", list.ID).Delete(&models.ShoppingItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete shopping items: %w", err)
		}
		if err := tx.Delete(list).Error; err != nil {
			return fmt.Errorf("failed to delete shopping list: %w", err)
		}
		return nil
	})
}

// AddItem appends an item, or adds its quantity to an uncompleted item with
// the same name (case-insensitive). merged reports the second case.
func (s *ShoppingService) AddItem(ctx context.Context, userID, listID uuid.UUID, req *types.ShoppingItemRequest) (*models.ShoppingItem, bool, error) {
	name := strings.TrimSpace(req.Name)
	unit := strings.TrimSpace(req.Unit)
	if name == "" || unit == "" || req.Quantity <= 0 {
		return nil, false, invalid("item", "Dati invalidi")
	}
	if req.EstimatedPrice != nil && *req.EstimatedPrice < 0 {
		return nil, false, invalid("estimated_price", "must not be negative")
	}

	var item *models.ShoppingItem
	merged := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		list, err := loadOwnedList(tx, userID, listID)
		if err != nil {
			return err
		}
		if list.Completed {
			return ErrAlreadyCompleted
		}

		for i := range list.Items {
			existing := &list.Items[i]
			if existing.Completed || !strings.EqualFold(existing.Name, name) {
				continue
			}
			qty, ok := units.Convert(req.Quantity, unit, existing.Unit)
			if !ok {
				continue
			}
			existing.Quantity = units.Round2(existing.Quantity + qty)
			if err := tx.Model(existing).Update("quantity", existing.Quantity).Error; err != nil {
				return fmt.Errorf("failed to update shopping item: %w", err)
			}
			item, merged = existing, true
			return nil
		}

		priority := models.PriorityLow
		if level, ok := PriorityLevels[req.Priority]; ok {
			priority = level
		}
		item = &models.ShoppingItem{
			ShoppingListID: list.ID,
			Name:           name,
			Quantity:       req.Quantity,
			Unit:           unit,
			Category:       strings.TrimSpace(req.Category),
			Priority:       priority,
			EstimatedPrice: req.EstimatedPrice,
			Notes:          strings.TrimSpace(req.Notes),
		}
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("failed to create shopping item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return item, merged, nil
}

// ToggleItem flips the completed flag of an item of an open list
func (s *ShoppingService) ToggleItem(ctx context.Context, userID, itemID uuid.UUID) (*models.ShoppingItem, error) {
	var item *models.ShoppingItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list *models.ShoppingList
		var err error
		item, list, err = loadOwnedItem(tx, userID, itemID)
		if err != nil {
			return err
		}
		if list.Completed {
			return ErrAlreadyCompleted
		}
		item.Completed = !item.Completed
		return tx.Model(item).Update("completed", item.Completed).Error
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes an item of an open list
func (s *ShoppingService) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, list, err := loadOwnedItem(tx, userID, itemID)
		if err != nil {
			return err
		}
		if list.Completed {
			return ErrAlreadyCompleted
		}
		return tx.Delete(item).Error
	})
}

// CompleteList folds the completed items into the pantry and closes the
// list. Each item increments a non-wasted product with the same name and a
// compatible unit, or creates a new product. The whole operation is one
// transaction.
func (s *ShoppingService) CompleteList(ctx context.Context, userID, listID uuid.UUID, actualSpent *float64) (*CompletionResult, error) {
	if actualSpent != nil && *actualSpent < 0 {
		return nil, invalid("actual_spent", "must not be negative")
	}

	result := &CompletionResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		list, err := loadOwnedList(tx, userID, listID)
		if err != nil {
			return err
		}
		if list.Completed {
			return ErrAlreadyCompleted
		}

		var done []models.ShoppingItem
		for _, item := range list.Items {
			if item.Completed {
				done = append(done, item)
			}
		}
		if len(done) == 0 {
			return ErrNothingToComplete
		}

		now := time.Now()
		for _, item := range done {
			updated, err := restockProduct(tx, userID, item, now)
			if err != nil {
				return err
			}
			if updated {
				result.Updated++
			} else {
				result.Added++
			}
		}

		spent := list.EstimatedTotal()
		if actualSpent != nil {
			spent = *actualSpent
		}
		list.Completed = true
		list.CompletedAt = &now
		list.ActualSpent = math.Max(0, spent)
		if err := tx.Model(list).Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": now,
			"actual_spent": list.ActualSpent,
		}).Error; err != nil {
			return fmt.Errorf("failed to complete shopping list: %w", err)
		}

		if err := s.gamification.IncrementStat(tx, userID, "total_shopping_completed", 1); err != nil {
			return err
		}

		aiUsed := 0
		if list.IsSmart {
			aiUsed = len(done)
		}
		if err := recordPurchase(tx, userID, done, aiUsed, list.ActualSpent, now); err != nil {
			return err
		}

		points := (result.Added + result.Updated) * 2
		award, err := s.gamification.AwardPointsTx(tx, userID, ActionShoppingCompleted, &points)
		if err != nil {
			return err
		}
		result.PointsEarned = points
		result.Award = award
		result.List = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// restockProduct adds a purchased item to the pantry. It reports true when
// an existing product was incremented.
func restockProduct(tx *gorm.DB, userID uuid.UUID, item models.ShoppingItem, now time.Time) (bool, error) {
	// names are compared in Go: SQLite's LOWER folds ASCII only
	var candidates []models.Product
	err := tx.Where("user_id = ? AND wasted = ?", userID, false).
		Order("expiry_date").
		Find(&candidates).Error
	if err != nil {
		return false, fmt.Errorf("failed to load pantry product: %w", err)
	}

	need := IngredientNeed{Item: strings.TrimSpace(item.Name), Quantity: item.Quantity, Unit: item.Unit}
	if product, qty := pantryMatch(candidates, need); product != nil {
		product.Quantity = units.Round2(product.Quantity + qty)
		if err := tx.Model(product).Update("quantity", product.Quantity).Error; err != nil {
			return false, fmt.Errorf("failed to update pantry product: %w", err)
		}
		return true, nil
	}

	category := item.Category
	if category == "" {
		category = defaultCategory
	}
	product := models.Product{
		UserID:      userID,
		Name:        item.Name,
		Quantity:    item.Quantity,
		Unit:        item.Unit,
		Category:    category,
		ExpiryDate:  models.DateOnly(now).AddDate(0, 0, purchasedShelfLife),
		MinQuantity: units.Round2(item.Quantity * purchasedMinFactor),
	}
	if err := tx.Create(&product).Error; err != nil {
		return false, fmt.Errorf("failed to create pantry product: %w", err)
	}
	return false, nil
}

// SuggestFromPantry derives purchases from the pantry alone: low stock
// products (twice their minimum) then products expiring within three days
func (s *ShoppingService) SuggestFromPantry(ctx context.Context, userID uuid.UUID) ([]SmartItem, error) {
	return pantrySuggestions(s.db.WithContext(ctx), userID, time.Now())
}

func pantrySuggestions(tx *gorm.DB, userID uuid.UUID, now time.Time) ([]SmartItem, error) {
	lowStock, err := lowStockProducts(tx, userID)
	if err != nil {
		return nil, err
	}
	expiring, err := expiringProducts(tx, userID, smartExpiringWindow, now)
	if err != nil {
		return nil, err
	}

	var items []SmartItem
	for _, p := range lowStock {
		items = append(items, SmartItem{
			Name:     p.Name,
			Quantity: p.MinQuantity * 2,
			Unit:     p.Unit,
			Category: p.Category,
			Priority: "high",
			Source:   "low_stock",
			Reason:   fmt.Sprintf("Scorte basse: %g %s rimanenti", p.Quantity, p.Unit),
		})
	}
	for _, p := range expiring {
		items = append(items, SmartItem{
			Name:     p.Name,
			Quantity: p.Quantity,
			Unit:     p.Unit,
			Category: p.Category,
			Priority: "medium",
			Source:   "expiring",
			Reason:   fmt.Sprintf("Scade il %s", p.ExpiryDate.Format("02/01/2006")),
		})
	}
	return dedupeSmartItems(items), nil
}

// dedupeSmartItems keeps the first suggestion per lowercase name
func dedupeSmartItems(items []SmartItem) []SmartItem {
	seen := make(map[string]bool, len(items))
	out := make([]SmartItem, 0, len(items))
	for _, item := range items {
		key := strings.ToLower(item.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

// SmartList extends the pantry suggestions with ingredients of the coming
// week's meal plans that the pantry lacks
func (s *ShoppingService) SmartList(ctx context.Context, userID uuid.UUID) (*SmartList, error) {
	db := s.db.WithContext(ctx)
	now := time.Now()

	items, err := pantrySuggestions(db, userID, now)
	if err != nil {
		return nil, err
	}

	missing, err := upcomingMissingIngredients(db, userID, now, smartMealPlanWindow)
	if err != nil {
		return nil, err
	}
	for _, m := range missing {
		items = append(items, SmartItem{
			Name:     m.Item,
			Quantity: m.Quantity,
			Unit:     m.Unit,
			Category: defaultCategory,
			Priority: "low",
			Source:   "meal_plan",
			Reason:   "Necessario per il piano pasti",
		})
	}

	return GroupSmartItems(dedupeSmartItems(items)), nil
}

// GroupSmartItems sorts items by (priority, name) descending and groups them
func GroupSmartItems(items []SmartItem) *SmartList {
	sort.SliceStable(items, func(i, j int) bool {
		pi, pj := PriorityLevels[items[i].Priority], PriorityLevels[items[j].Priority]
		if pi != pj {
			return pi > pj
		}
		return items[i].Name > items[j].Name
	})

	byPriority := map[string][]SmartItem{"high": {}, "medium": {}, "low": {}}
	for _, item := range items {
		byPriority[item.Priority] = append(byPriority[item.Priority], item)
	}

	return &SmartList{
		Items:               items,
		TotalItems:          len(items),
		ByPriority:          byPriority,
		HighPriorityCount:   len(byPriority["high"]),
		MediumPriorityCount: len(byPriority["medium"]),
		LowPriorityCount:    len(byPriority["low"]),
	}
}

// CreateSmartList stores the current smart suggestions as a new smart list
func (s *ShoppingService) CreateSmartList(ctx context.Context, userID uuid.UUID) (*models.ShoppingList, error) {
	smart, err := s.SmartList(ctx, userID)
	if err != nil {
		return nil, err
	}
	if smart.TotalItems == 0 {
		return nil, invalid("items", "nothing to buy right now")
	}

	list := &models.ShoppingList{
		UserID:  userID,
		Name:    fmt.Sprintf("Lista intelligente %s", time.Now().Format("02/01/2006")),
		IsSmart: true,
	}
	for _, item := range smart.Items {
		list.Items = append(list.Items, models.ShoppingItem{
			Name:     item.Name,
			Quantity: units.Round2(item.Quantity),
			Unit:     item.Unit,
			Category: item.Category,
			Priority: PriorityLevels[item.Priority],
			Notes:    item.Reason,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(list).Error; err != nil {
			return fmt.Errorf("failed to create smart list: %w", err)
		}
		_, err := s.gamification.AwardPointsTx(tx, userID, ActionShoppingListCreated, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Frequency is the mean number of days between the last ten completed
// lists, nil with fewer than two
func (s *ShoppingService) Frequency(ctx context.Context, userID uuid.UUID) (*float64, error) {
	return shoppingFrequency(s.db.WithContext(ctx), userID)
}

func shoppingFrequency(tx *gorm.DB, userID uuid.UUID) (*float64, error) {
	var lists []models.ShoppingList
	err := tx.Where("user_id = ? AND completed = ? AND completed_at IS NOT NULL", userID, true).
		Order("completed_at DESC").
		Limit(10).
		Find(&lists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load completed lists: %w", err)
	}
	if len(lists) < 2 {
		return nil, nil
	}

	total := 0
	for i := 0; i < len(lists)-1; i++ {
		total += int(lists[i].CompletedAt.Sub(*lists[i+1].CompletedAt).Hours() / 24)
	}
	avg := float64(total) / float64(len(lists)-1)
	return &avg, nil
}
