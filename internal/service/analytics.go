package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/units"
	"gorm.io/gorm"
)

const reportURLExpiry = time.Hour

type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days,omitempty"`
}

type NutritionAnalytics struct {
	AvgCalories      float64 `json:"avg_calories"`
	AvgProtein       float64 `json:"avg_protein"`
	AvgCarbs         float64 `json:"avg_carbs"`
	AvgFat           float64 `json:"avg_fat"`
	AvgFiber         float64 `json:"avg_fiber"`
	GoalCompletion   float64 `json:"goal_completion"`
	ConsistencyScore float64 `json:"consistency_score"`
	DaysTracked      int     `json:"days_tracked"`
}

type WasteSummary struct {
	TotalProductsWasted int                `json:"total_products_wasted"`
	TotalKgWasted       float64            `json:"total_kg_wasted"`
	TotalCost           float64            `json:"total_cost"`
	AvgDailyWaste       float64            `json:"avg_daily_waste"`
	WasteTrend          float64            `json:"waste_trend"`
	MostWastedCategory  string             `json:"most_wasted_category"`
	CategoryBreakdown   map[string]float64 `json:"category_breakdown"`
}

type ShoppingSummary struct {
	TotalItemsPurchased   int                `json:"total_items_purchased"`
	TotalCost             float64            `json:"total_cost"`
	AvgItemsPerTrip       float64            `json:"avg_items_per_trip"`
	AIAdoptionRate        float64            `json:"ai_adoption_rate"`
	MostPurchasedCategory string             `json:"most_purchased_category"`
	CategoryBreakdown     map[string]float64 `json:"category_breakdown"`
}

type ProductTrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type WasteTrendPoint struct {
	Date     string  `json:"date"`
	KgWasted float64 `json:"kg_wasted"`
	Cost     float64 `json:"cost"`
}

type ShoppingTrendPoint struct {
	Date  string  `json:"date"`
	Trips int     `json:"trips"`
	Spent float64 `json:"spent"`
}

type Trends struct {
	Products []ProductTrendPoint  `json:"products_trend"`
	Waste    []WasteTrendPoint    `json:"waste_trend"`
	Shopping []ShoppingTrendPoint `json:"shopping_trend"`
}

// ComprehensiveAnalytics is the analytics dashboard of one user
type ComprehensiveAnalytics struct {
	Nutrition NutritionAnalytics `json:"nutrition"`
	Waste     WasteSummary       `json:"waste"`
	Shopping  ShoppingSummary    `json:"shopping"`
	Trends    Trends             `json:"trends"`
	Period    Period             `json:"period"`
}

type WasteScoreDetails struct {
	TotalProducts   int     `json:"total_products"`
	WastedProducts  int     `json:"wasted_products"`
	TotalQuantity   float64 `json:"total_quantity"`
	WastedQuantity  float64 `json:"wasted_quantity"`
	WastePercentage float64 `json:"waste_percentage"`
	PeriodDays      int     `json:"period_days"`
}

// WasteScore is the waste reduction score over a period
type WasteScore struct {
	Score      int               `json:"score"`
	Grade      string            `json:"grade"`
	Percentage float64           `json:"percentage"`
	MaxScore   int               `json:"max_score"`
	Details    WasteScoreDetails `json:"details"`
}

type LowStockEntry struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

type WeeklyPantry struct {
	TotalProducts int             `json:"total_products"`
	Expiring      int             `json:"expiring"`
	LowStock      []LowStockEntry `json:"low_stock"`
}

type GoalComparison struct {
	Consumed   float64 `json:"consumed"`
	Goal       float64 `json:"goal"`
	Percentage float64 `json:"percentage"`
}

type WeeklyNutrition struct {
	GoalCompletion  float64                   `json:"goal_completion"`
	DaysTracked     int                       `json:"days_tracked"`
	GoalsComparison map[string]GoalComparison `json:"goals_comparison,omitempty"`
}

type WeeklyWaste struct {
	WastedProducts int     `json:"wasted_products"`
	KgWasted       float64 `json:"kg_wasted"`
	Cost           float64 `json:"cost"`
}

type WeeklyShopping struct {
	ItemsPurchased int     `json:"items_purchased"`
	Cost           float64 `json:"cost"`
	Trips          int     `json:"trips"`
}

type Recommendation struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Action   string `json:"action"`
}

// WeeklyReport summarizes the last seven days of a user
type WeeklyReport struct {
	Period          Period           `json:"period"`
	Pantry          WeeklyPantry     `json:"pantry"`
	Nutrition       WeeklyNutrition  `json:"nutrition"`
	Waste           WeeklyWaste      `json:"waste"`
	Shopping        WeeklyShopping   `json:"shopping"`
	OverallScore    float64          `json:"overall_score"`
	Recommendations []Recommendation `json:"recommendations"`
}

// ReportExport points to an uploaded weekly report
type ReportExport struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AnalyticsService struct {
	db    *gorm.DB
	store ObjectStore
}

// NewAnalyticsService creates the service. store may be nil, which disables
// report exports.
func NewAnalyticsService(db *gorm.DB, store ObjectStore) *AnalyticsService {
	return &AnalyticsService{db: db, store: store}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ScoreWaste turns quantities into a 0-100 score and its A-F grade
func ScoreWaste(totalQuantity, wastedQuantity float64) (int, string) {
	if totalQuantity <= 0 {
		return 100, "A"
	}
	pct := wastedQuantity / totalQuantity * 100
	score := int(100 - pct)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, WasteGrade(score)
}

// WasteGrade maps a score to A (>=90), B, C, D (>=60) or F
func WasteGrade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	}
	return "F"
}

// WasteScore computes the waste reduction score over products created in the last days
func (s *AnalyticsService) WasteScore(ctx context.Context, userID uuid.UUID, days int) (*WasteScore, error) {
	if days <= 0 {
		days = 30
	}
	return computeWasteScore(s.db.WithContext(ctx), userID, days, time.Now())
}

func computeWasteScore(tx *gorm.DB, userID uuid.UUID, days int, now time.Time) (*WasteScore, error) {
	cutoff := models.DateOnly(now).AddDate(0, 0, -days)

	var products []models.Product
	if err := tx.Where("user_id = ? AND created_at >= ?", userID, cutoff).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	details := WasteScoreDetails{TotalProducts: len(products), PeriodDays: days}
	for _, p := range products {
		details.TotalQuantity += p.Quantity
		if p.Wasted {
			details.WastedProducts++
			details.WastedQuantity += p.Quantity
		}
	}

	score, grade := ScoreWaste(details.TotalQuantity, details.WastedQuantity)
	result := &WasteScore{Score: score, Grade: grade, Percentage: 100, MaxScore: 100}
	if details.TotalQuantity > 0 {
		details.WastePercentage = round1(details.WastedQuantity / details.TotalQuantity * 100)
		result.Percentage = round1(100 - details.WastedQuantity/details.TotalQuantity*100)
	}
	details.TotalQuantity = units.Round2(details.TotalQuantity)
	details.WastedQuantity = units.Round2(details.WastedQuantity)
	result.Details = details
	return result, nil
}

// refreshWasteScore stores the 30 day score on the user's stats
func refreshWasteScore(tx *gorm.DB, userID uuid.UUID, now time.Time) error {
	score, err := computeWasteScore(tx, userID, 30, now)
	if err != nil {
		return err
	}
	err = tx.Model(&models.UserStats{}).Where("user_id = ?", userID).
		Update("waste_reduction_score", float64(score.Score)).Error
	if err != nil {
		return fmt.Errorf("failed to update waste score: %w", err)
	}
	return nil
}

// kilograms converts a mass quantity to kg; other units report false
func kilograms(quantity float64, unit string) (float64, bool) {
	return units.Convert(quantity, unit, units.Kilogram)
}

// recordWaste adds one wasted product to today's waste rollup
func recordWaste(tx *gorm.DB, userID uuid.UUID, product *models.Product, wastedQty float64, now time.Time) error {
	var row models.WasteAnalytics
	date := models.DateOnly(now)
	err := tx.Where("user_id = ? AND date = ?", userID, date).First(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load waste analytics: %w", err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.WasteAnalytics{UserID: userID, Date: date}
	}

	row.ProductsWasted++
	if kg, ok := kilograms(wastedQty, product.Unit); ok {
		row.KgWasted = units.Round2(row.KgWasted + kg)
	}
	breakdown := models.Breakdown(row.CategoryBreakdown)
	if breakdown == nil {
		breakdown = map[string]float64{}
	}
	breakdown[product.Category]++
	row.CategoryBreakdown = models.BreakdownJSON(breakdown)
	row.MostWastedCategory = topCategory(breakdown)

	if err := tx.Save(&row).Error; err != nil {
		return fmt.Errorf("failed to save waste analytics: %w", err)
	}
	return nil
}

// recordPurchase adds purchased items to today's shopping rollup. aiUsed
// counts the items that came from a smart list.
func recordPurchase(tx *gorm.DB, userID uuid.UUID, items []models.ShoppingItem, aiUsed int, cost float64, now time.Time) error {
	var row models.ShoppingAnalytics
	date := models.DateOnly(now)
	err := tx.Where("user_id = ? AND date = ?", userID, date).First(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load shopping analytics: %w", err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.ShoppingAnalytics{UserID: userID, Date: date}
	}

	row.ItemsPurchased += len(items)
	row.AISuggestionsUsed += aiUsed
	row.EstimatedCost = units.Round2(row.EstimatedCost + math.Max(0, cost))

	breakdown := models.Breakdown(row.CategoryBreakdown)
	if breakdown == nil {
		breakdown = map[string]float64{}
	}
	for _, item := range items {
		category := item.Category
		if category == "" {
			category = defaultCategory
		}
		breakdown[category]++
	}
	row.CategoryBreakdown = models.BreakdownJSON(breakdown)
	row.MostPurchasedCategory = topCategory(breakdown)

	freq, err := shoppingFrequency(tx, userID)
	if err != nil {
		return err
	}
	if freq != nil {
		row.ShoppingFrequencyDays = *freq
	}

	if err := tx.Save(&row).Error; err != nil {
		return fmt.Errorf("failed to save shopping analytics: %w", err)
	}
	return nil
}

// topCategory returns the category with the highest amount, "N/A" when empty
func topCategory(totals map[string]float64) string {
	best, bestValue := "N/A", math.Inf(-1)
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if totals[k] > bestValue {
			best, bestValue = k, totals[k]
		}
	}
	return best
}

func sumBreakdowns(raws ...[]byte) map[string]float64 {
	totals := map[string]float64{}
	for _, raw := range raws {
		for k, v := range models.Breakdown(raw) {
			totals[k] += v
		}
	}
	return totals
}

// Comprehensive builds the analytics dashboard over the last days
func (s *AnalyticsService) Comprehensive(ctx context.Context, userID uuid.UUID, days int) (*ComprehensiveAnalytics, error) {
	if days <= 0 {
		days = 30
	}
	db := s.db.WithContext(ctx)
	end := models.DateOnly(time.Now())
	start := end.AddDate(0, 0, -days)

	var nutrition []models.DailyNutrition
	if err := db.Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).Order("date").Find(&nutrition).Error; err != nil {
		return nil, fmt.Errorf("failed to load nutrition analytics: %w", err)
	}
	var waste []models.WasteAnalytics
	if err := db.Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).Order("date").Find(&waste).Error; err != nil {
		return nil, fmt.Errorf("failed to load waste analytics: %w", err)
	}
	var shopping []models.ShoppingAnalytics
	if err := db.Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).Order("date").Find(&shopping).Error; err != nil {
		return nil, fmt.Errorf("failed to load shopping analytics: %w", err)
	}

	trends, err := s.trends(db, userID, start, waste)
	if err != nil {
		return nil, err
	}

	return &ComprehensiveAnalytics{
		Nutrition: SummarizeNutrition(nutrition),
		Waste:     SummarizeWaste(waste),
		Shopping:  SummarizeShopping(shopping),
		Trends:    *trends,
		Period: Period{
			Start: start.Format(DateLayout),
			End:   end.Format(DateLayout),
			Days:  days,
		},
	}, nil
}

// SummarizeNutrition averages daily nutrition rows
func SummarizeNutrition(rows []models.DailyNutrition) NutritionAnalytics {
	if len(rows) == 0 {
		return NutritionAnalytics{}
	}
	var out NutritionAnalytics
	for _, d := range rows {
		out.AvgCalories += d.CaloriesConsumed
		out.AvgProtein += d.ProteinConsumed
		out.AvgCarbs += d.CarbsConsumed
		out.AvgFat += d.FatConsumed
		out.AvgFiber += d.FiberConsumed
		out.GoalCompletion += d.GoalCompletionPercentage
		out.ConsistencyScore += d.ConsistencyScore
	}
	n := float64(len(rows))
	return NutritionAnalytics{
		AvgCalories:      round1(out.AvgCalories / n),
		AvgProtein:       round1(out.AvgProtein / n),
		AvgCarbs:         round1(out.AvgCarbs / n),
		AvgFat:           round1(out.AvgFat / n),
		AvgFiber:         round1(out.AvgFiber / n),
		GoalCompletion:   round1(out.GoalCompletion / n),
		ConsistencyScore: round1(out.ConsistencyScore / n),
		DaysTracked:      len(rows),
	}
}

// SummarizeWaste totals waste rows ordered by date. The trend compares the
// last 7 rows with the 7 before them once 14 rows exist.
func SummarizeWaste(rows []models.WasteAnalytics) WasteSummary {
	out := WasteSummary{MostWastedCategory: "N/A", CategoryBreakdown: map[string]float64{}}
	if len(rows) == 0 {
		return out
	}

	raws := make([][]byte, 0, len(rows))
	for _, d := range rows {
		out.TotalProductsWasted += d.ProductsWasted
		out.TotalKgWasted += d.KgWasted
		out.TotalCost += d.EstimatedCost
		raws = append(raws, d.CategoryBreakdown)
	}
	out.AvgDailyWaste = units.Round2(out.TotalKgWasted / float64(len(rows)))

	if len(rows) >= 14 {
		var recent, older float64
		for _, d := range rows[len(rows)-7:] {
			recent += d.KgWasted
		}
		for _, d := range rows[len(rows)-14 : len(rows)-7] {
			older += d.KgWasted
		}
		if older > 0 {
			out.WasteTrend = round1((recent - older) / older * 100)
		}
	}

	out.TotalKgWasted = units.Round2(out.TotalKgWasted)
	out.TotalCost = units.Round2(out.TotalCost)
	out.CategoryBreakdown = sumBreakdowns(raws...)
	out.MostWastedCategory = topCategory(out.CategoryBreakdown)
	return out
}

// SummarizeShopping totals shopping rows
func SummarizeShopping(rows []models.ShoppingAnalytics) ShoppingSummary {
	out := ShoppingSummary{MostPurchasedCategory: "N/A", CategoryBreakdown: map[string]float64{}}
	if len(rows) == 0 {
		return out
	}

	aiUsed := 0
	raws := make([][]byte, 0, len(rows))
	for _, d := range rows {
		out.TotalItemsPurchased += d.ItemsPurchased
		out.TotalCost += d.EstimatedCost
		aiUsed += d.AISuggestionsUsed
		raws = append(raws, d.CategoryBreakdown)
	}
	out.AvgItemsPerTrip = round1(float64(out.TotalItemsPurchased) / float64(len(rows)))
	if out.TotalItemsPurchased > 0 {
		out.AIAdoptionRate = round1(float64(aiUsed) / float64(out.TotalItemsPurchased) * 100)
	}
	out.TotalCost = units.Round2(out.TotalCost)
	out.CategoryBreakdown = sumBreakdowns(raws...)
	out.MostPurchasedCategory = topCategory(out.CategoryBreakdown)
	return out
}

// trends groups in Go rather than with SQL date functions so the same code
// runs on postgres and sqlite
func (s *AnalyticsService) trends(db *gorm.DB, userID uuid.UUID, start time.Time, waste []models.WasteAnalytics) (*Trends, error) {
	out := &Trends{
		Products: []ProductTrendPoint{},
		Waste:    []WasteTrendPoint{},
		Shopping: []ShoppingTrendPoint{},
	}

	var created []time.Time
	if err := db.Model(&models.Product{}).Where("user_id = ? AND created_at >= ?", userID, start).
		Order("created_at").Pluck("created_at", &created).Error; err != nil {
		return nil, fmt.Errorf("failed to load products trend: %w", err)
	}
	for _, t := range created {
		day := t.UTC().Format(DateLayout)
		if n := len(out.Products); n > 0 && out.Products[n-1].Date == day {
			out.Products[n-1].Count++
			continue
		}
		out.Products = append(out.Products, ProductTrendPoint{Date: day, Count: 1})
	}

	for _, w := range waste {
		out.Waste = append(out.Waste, WasteTrendPoint{
			Date:     w.Date.UTC().Format(DateLayout),
			KgWasted: w.KgWasted,
			Cost:     w.EstimatedCost,
		})
	}

	var lists []models.ShoppingList
	if err := db.Where("user_id = ? AND completed = ? AND completed_at >= ?", userID, true, start).
		Order("completed_at").Find(&lists).Error; err != nil {
		return nil, fmt.Errorf("failed to load shopping trend: %w", err)
	}
	for _, l := range lists {
		day := l.CompletedAt.UTC().Format(DateLayout)
		if n := len(out.Shopping); n > 0 && out.Shopping[n-1].Date == day {
			out.Shopping[n-1].Trips++
			out.Shopping[n-1].Spent = units.Round2(out.Shopping[n-1].Spent + l.ActualSpent)
			continue
		}
		out.Shopping = append(out.Shopping, ShoppingTrendPoint{Date: day, Trips: 1, Spent: l.ActualSpent})
	}

	return out, nil
}

// WeeklyReport analyzes the last seven days
func (s *AnalyticsService) WeeklyReport(ctx context.Context, userID uuid.UUID) (*WeeklyReport, error) {
	db := s.db.WithContext(ctx)
	now := time.Now()
	end := models.DateOnly(now)
	start := end.AddDate(0, 0, -7)

	report := &WeeklyReport{
		Period:          Period{Start: start.Format(DateLayout), End: end.Format(DateLayout)},
		Recommendations: []Recommendation{},
	}

	// pantry
	var total int64
	if err := db.Model(&models.Product{}).Where("user_id = ? AND wasted = ?", userID, false).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	var expiring int64
	if err := db.Model(&models.Product{}).
		Where("user_id = ? AND wasted = ? AND expiry_date <= ?", userID, false, end.AddDate(0, 0, 7)).
		Count(&expiring).Error; err != nil {
		return nil, fmt.Errorf("failed to count expiring products: %w", err)
	}
	lowStock, err := lowStockProducts(db, userID)
	if err != nil {
		return nil, err
	}
	report.Pantry = WeeklyPantry{TotalProducts: int(total), Expiring: int(expiring), LowStock: []LowStockEntry{}}
	for _, p := range lowStock {
		report.Pantry.LowStock = append(report.Pantry.LowStock, LowStockEntry{Name: p.Name, Quantity: p.Quantity, Unit: p.Unit})
	}

	// nutrition
	var nutrition []models.DailyNutrition
	if err := db.Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).Find(&nutrition).Error; err != nil {
		return nil, fmt.Errorf("failed to load nutrition: %w", err)
	}
	if len(nutrition) > 0 {
		n := float64(len(nutrition))
		var completion, calories, protein float64
		for _, d := range nutrition {
			completion += d.GoalCompletionPercentage
			calories += d.CaloriesConsumed
			protein += d.ProteinConsumed
		}
		report.Nutrition = WeeklyNutrition{GoalCompletion: round1(completion / n), DaysTracked: len(nutrition)}

		var goal models.NutritionalGoal
		err := db.Where("user_id = ?", userID).First(&goal).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load goals: %w", err)
		}
		if err == nil {
			report.Nutrition.GoalsComparison = map[string]GoalComparison{
				"calories": compareGoal(calories/n, goal.DailyCalories),
				"protein":  compareGoal(protein/n, goal.DailyProtein),
			}
		}
	}

	// waste
	var wasted []models.Product
	if err := db.Where("user_id = ? AND wasted = ? AND updated_at >= ?", userID, true, start).Find(&wasted).Error; err != nil {
		return nil, fmt.Errorf("failed to load wasted products: %w", err)
	}
	report.Waste.WastedProducts = len(wasted)
	for _, p := range wasted {
		if kg, ok := kilograms(p.Quantity, p.Unit); ok {
			report.Waste.KgWasted += kg
		}
	}
	report.Waste.KgWasted = units.Round2(report.Waste.KgWasted)

	// shopping
	var lists []models.ShoppingList
	if err := db.Preload("Items").
		Where("user_id = ? AND completed = ? AND completed_at >= ?", userID, true, start).
		Find(&lists).Error; err != nil {
		return nil, fmt.Errorf("failed to load completed lists: %w", err)
	}
	report.Shopping.Trips = len(lists)
	for _, l := range lists {
		report.Shopping.ItemsPurchased += len(l.Items)
		report.Shopping.Cost += l.ActualSpent
	}
	report.Shopping.Cost = units.Round2(report.Shopping.Cost)

	report.OverallScore = WeeklyScore(report)
	report.Recommendations = WeeklyRecommendations(report)
	return report, nil
}

func compareGoal(consumed, goal float64) GoalComparison {
	cmp := GoalComparison{Consumed: round1(consumed), Goal: goal}
	if goal > 0 {
		cmp.Percentage = round1(consumed / goal * 100)
	}
	return cmp
}

// WeeklyScore weights nutrition 40%, waste 40% (100 - 10 per kg) and pantry
// freshness 20%
func WeeklyScore(r *WeeklyReport) float64 {
	score := 0.0
	if r.Nutrition.GoalCompletion > 0 {
		score += r.Nutrition.GoalCompletion * 0.4
	}
	score += math.Max(0, 100-r.Waste.KgWasted*10) * 0.4

	totalProducts := r.Pantry.TotalProducts
	if totalProducts < 1 {
		totalProducts = 1
	}
	expiringPct := float64(r.Pantry.Expiring) / float64(totalProducts) * 100
	score += math.Max(0, 100-expiringPct) * 0.2

	return round1(score)
}

// WeeklyRecommendations suggests the next actions for a report
func WeeklyRecommendations(r *WeeklyReport) []Recommendation {
	recs := []Recommendation{}
	if r.Nutrition.GoalCompletion < 80 {
		recs = append(recs, Recommendation{
			Category: "nutrition",
			Priority: "high",
			Title:    "Migliora il Tracking Nutrizionale",
			Message:  fmt.Sprintf("Hai raggiunto solo il %g%% degli obiettivi settimanali", r.Nutrition.GoalCompletion),
			Action:   "meal_planning",
		})
	}
	if r.Waste.KgWasted > 2 {
		recs = append(recs, Recommendation{
			Category: "waste",
			Priority: "high",
			Title:    "Riduci gli Sprechi",
			Message:  fmt.Sprintf("Hai sprecato %g kg questa settimana", r.Waste.KgWasted),
			Action:   "reduce_waste",
		})
	}
	if len(r.Pantry.LowStock) > 3 {
		recs = append(recs, Recommendation{
			Category: "pantry",
			Priority: "medium",
			Title:    "Rifornisci la Dispensa",
			Message:  fmt.Sprintf("%d prodotti in esaurimento", len(r.Pantry.LowStock)),
			Action:   "restock_pantry",
		})
	}
	return recs
}

// ExportWeeklyReport uploads the weekly report as JSON and returns a
// presigned download link
func (s *AnalyticsService) ExportWeeklyReport(ctx context.Context, userID uuid.UUID) (*ReportExport, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}

	report, err := s.WeeklyReport(ctx, userID)
	if err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	key := fmt.Sprintf("reports/%s/weekly-%s.json", userID, report.Period.End)
	if err := s.store.PutObject(ctx, key, "application/json", body); err != nil {
		return nil, fmt.Errorf("failed to upload report: %w", err)
	}

	url, err := s.store.GeneratePresignedURL(ctx, key, reportURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign report: %w", err)
	}

	return &ReportExport{Key: key, URL: url, ExpiresAt: time.Now().Add(reportURLExpiry)}, nil
}
