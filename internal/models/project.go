// internal/models/project.go
package models

import (
	"fmt"
	"time"
)

// Stage bounds for the strategy pipeline. Stage 5 is terminal.
const (
	MinStage = 1
	MaxStage = 5
)

// Stage-1 information categories. Keys double as the Firestore field names
// inside the stage1 document section.
const (
	CategoryProductInfo    = "productInfo"
	CategoryCustomerInfo   = "customerInfo"
	CategoryCompetitorInfo = "competitorInfo"
	CategoryMarketInfo     = "marketInfo"
	CategoryBrandInfo      = "brandInfo"
	CategoryPastData       = "pastData"
)

// Stage1Categories lists every category in display order.
var Stage1Categories = []string{
	CategoryProductInfo,
	CategoryCustomerInfo,
	CategoryCompetitorInfo,
	CategoryMarketInfo,
	CategoryBrandInfo,
	CategoryPastData,
}

// IsStage1Category reports whether name is a known category key.
func IsStage1Category(name string) bool {
	for _, c := range Stage1Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Stage1Item is one user-entered information record.
type Stage1Item struct {
	ID      string `json:"id" firestore:"id"`
	Title   string `json:"title" firestore:"title"`
	Content string `json:"content" firestore:"content"`
}

// Stage1Data holds the six category lists collected in stage 1.
type Stage1Data struct {
	ProductInfo    []Stage1Item `json:"productInfo" firestore:"productInfo"`
	CustomerInfo   []Stage1Item `json:"customerInfo" firestore:"customerInfo"`
	CompetitorInfo []Stage1Item `json:"competitorInfo" firestore:"competitorInfo"`
	MarketInfo     []Stage1Item `json:"marketInfo" firestore:"marketInfo"`
	BrandInfo      []Stage1Item `json:"brandInfo" firestore:"brandInfo"`
	PastData       []Stage1Item `json:"pastData" firestore:"pastData"`
}

// NewStage1Data returns the empty category lists a fresh project starts with.
func NewStage1Data() Stage1Data {
	return Stage1Data{
		ProductInfo:    []Stage1Item{},
		CustomerInfo:   []Stage1Item{},
		CompetitorInfo: []Stage1Item{},
		MarketInfo:     []Stage1Item{},
		BrandInfo:      []Stage1Item{},
		PastData:       []Stage1Item{},
	}
}

// Category returns a pointer to the named list, or nil for an unknown key.
func (s *Stage1Data) Category(name string) *[]Stage1Item {
	switch name {
	case CategoryProductInfo:
		return &s.ProductInfo
	case CategoryCustomerInfo:
		return &s.CustomerInfo
	case CategoryCompetitorInfo:
		return &s.CompetitorInfo
	case CategoryMarketInfo:
		return &s.MarketInfo
	case CategoryBrandInfo:
		return &s.BrandInfo
	case CategoryPastData:
		return &s.PastData
	}
	return nil
}

// AddItem appends item to the named category.
func (s *Stage1Data) AddItem(category string, item Stage1Item) error {
	list := s.Category(category)
	if list == nil {
		return fmt.Errorf("unknown category %q", category)
	}
	*list = append(*list, item)
	return nil
}

// UpdateItem replaces title and content of the item with the given id,
// keeping the id and list position.
func (s *Stage1Data) UpdateItem(category, itemID, title, content string) error {
	list := s.Category(category)
	if list == nil {
		return fmt.Errorf("unknown category %q", category)
	}
	for i := range *list {
		if (*list)[i].ID == itemID {
			(*list)[i].Title = title
			(*list)[i].Content = content
			return nil
		}
	}
	return fmt.Errorf("item %q not found in category %q", itemID, category)
}

// RemoveItem deletes the item with the given id from the named category.
func (s *Stage1Data) RemoveItem(category, itemID string) error {
	list := s.Category(category)
	if list == nil {
		return fmt.Errorf("unknown category %q", category)
	}
	for i := range *list {
		if (*list)[i].ID == itemID {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("item %q not found in category %q", itemID, category)
}

// ItemCount returns the total number of items across all categories.
func (s *Stage1Data) ItemCount() int {
	return len(s.ProductInfo) + len(s.CustomerInfo) + len(s.CompetitorInfo) +
		len(s.MarketInfo) + len(s.BrandInfo) + len(s.PastData)
}

// ProductElements is the structured analysis of the product itself.
type ProductElements struct {
	Features  string `json:"features" firestore:"features"`
	Benefits  string `json:"benefits" firestore:"benefits"`
	Results   string `json:"results" firestore:"results"`
	Authority string `json:"authority" firestore:"authority"`
	Offer     string `json:"offer" firestore:"offer"`
}

// Stage2Data is the product analysis produced by the analyzeProduct function.
type Stage2Data struct {
	Keywords         string          `json:"keywords" firestore:"keywords"`
	ProductElements  ProductElements `json:"productElements" firestore:"productElements"`
	CustomerPersonas string          `json:"customerPersonas" firestore:"customerPersonas"`
}

// Stage3Data is the landing-page first view produced by generateLpFirstView.
type Stage3Data struct {
	CatchCopy              string `json:"catchCopy" firestore:"catchCopy"`
	SubCopy                string `json:"subCopy" firestore:"subCopy"`
	VisualImageDescription string `json:"visualImageDescription" firestore:"visualImageDescription"`
	CTAButtonText          string `json:"ctaButtonText" firestore:"ctaButtonText"`
}

// Stage4Data is the strategy hypothesis produced by generateStrategyHypothesis.
type Stage4Data struct {
	Hypothesis string `json:"hypothesis" firestore:"hypothesis"`
}

// Project is one ad-strategy project document, stored per owner.
type Project struct {
	ID           string      `json:"id" firestore:"-"`
	OwnerID      string      `json:"ownerId" firestore:"-"`
	Name         string      `json:"name" firestore:"name"`
	CurrentStage int         `json:"currentStage" firestore:"currentStage"`
	Stage1       *Stage1Data `json:"stage1,omitempty" firestore:"stage1,omitempty"`
	Stage2       *Stage2Data `json:"stage2,omitempty" firestore:"stage2,omitempty"`
	Stage3       *Stage3Data `json:"stage3,omitempty" firestore:"stage3,omitempty"`
	Stage4       *Stage4Data `json:"stage4,omitempty" firestore:"stage4,omitempty"`
	CreatedAt    time.Time   `json:"createdAt" firestore:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt" firestore:"updatedAt"`
}

// StagePayload returns the stored payload for a stage number, nil when the
// stage has not been filled in yet. Stage 5 has no payload of its own.
func (p *Project) StagePayload(stage int) interface{} {
	switch stage {
	case 1:
		if p.Stage1 == nil {
			return nil
		}
		return p.Stage1
	case 2:
		if p.Stage2 == nil {
			return nil
		}
		return p.Stage2
	case 3:
		if p.Stage3 == nil {
			return nil
		}
		return p.Stage3
	case 4:
		if p.Stage4 == nil {
			return nil
		}
		return p.Stage4
	}
	return nil
}

// StageKey returns the document field name for a stage number.
func StageKey(stage int) string {
	return fmt.Sprintf("stage%d", stage)
}

// ParseStageSlug converts a "stage1".."stage5" path slug to its number.
func ParseStageSlug(slug string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(slug, "stage%d", &n); err != nil {
		return 0, fmt.Errorf("invalid stage slug %q", slug)
	}
	if n < MinStage || n > MaxStage {
		return 0, fmt.Errorf("stage %d out of range", n)
	}
	return n, nil
}
