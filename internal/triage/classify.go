package triage

import "strings"

// Report categories understood by the classifier.
const (
	CategoryPriceError  = "price_error"
	CategoryInfoUpdate  = "info_update"
	CategoryHoursChange = "hours_change"
	CategoryOther       = "other"
)

// Categories lists every category in display order.
var Categories = []string{CategoryPriceError, CategoryInfoUpdate, CategoryHoursChange, CategoryOther}

var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{CategoryPriceError, []string{"가격", "비용", "요금", "price", "cost", "fee"}},
	{CategoryInfoUpdate, []string{"주소", "위치", "옮겼", "이사", "address", "moved", "location"}},
	{CategoryHoursChange, []string{"시간", "휴무", "진료", "hours", "closed", "open"}},
}

// ClassifyCategory assigns a category from keywords found in the content.
func ClassifyCategory(content string) string {
	text := strings.ToLower(content)
	for _, rule := range categoryKeywords {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return rule.category
			}
		}
	}
	return CategoryOther
}

// IsCategory reports whether value is one of the known categories.
func IsCategory(value string) bool {
	for _, c := range Categories {
		if c == value {
			return true
		}
	}
	return false
}
