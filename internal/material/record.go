// Package material defines the material card produced by the normalizer and
// the fixed taxonomy it is classified against.
package material

// Record is a single writing-reference unit split out of a larger text.
// Content is the verbatim source wording.
type Record struct {
	Type    string   `json:"type"`
	Themes  []string `json:"themes"`
	Tags    []string `json:"tags"`
	Content string   `json:"content"`
	// Summary is optional; the store derives one from Content when empty.
	Summary string `json:"summary,omitempty"`
}

// Uncategorized labels fallback records.
const Uncategorized = "未分类"

// Categories are the seven material types, in display order.
var Categories = []string{
	"人物素材",
	"名言金句",
	"论证段",
	"开头段",
	"结尾段",
	"专业词汇",
	"范文",
}

// Themes are the eighteen theme tags, in display order.
var Themes = []string{
	"青春奋斗",
	"家国情怀",
	"科技创新",
	"责任奉献",
	"苦难挫折",
	"文化传承",
	"榜样力量",
	"公平正义",
	"生态环保",
	"多元包容",
	"人性光辉",
	"网络时代",
	"自我认知",
	"人生理想",
	"工匠精神",
	"文化自信",
	"责任担当",
	"审美境界",
}

// AllCategories is the list filter value that disables category filtering.
const AllCategories = "全部素材"

// IsCategory reports whether s is one of the seven material types.
func IsCategory(s string) bool {
	for _, c := range Categories {
		if c == s {
			return true
		}
	}
	return false
}

// IsTheme reports whether s is one of the eighteen theme tags.
func IsTheme(s string) bool {
	for _, t := range Themes {
		if t == s {
			return true
		}
	}
	return false
}
