// Package classifier assigns a fatigue category to free-text task
// descriptions.
package classifier

import (
	"context"
	"strings"

	"github.com/kilianp07/dayplan/core/planner"
)

// Classifier maps a task description to a category tag.
type Classifier interface {
	Classify(ctx context.Context, description string) (string, error)
}

// keywords lists lower-case fragments per category. Order matters: the first
// category with a matching fragment wins.
var keywords = []struct {
	category string
	words    []string
}{
	{"logical", []string{"math", "code", "coding", "program", "calcul", "physics", "account", "debug", "excel", "數學", "程式", "計算", "物理", "邏輯"}},
	{"linguistic", []string{"read", "write", "essay", "english", "language", "vocab", "book", "report", "閱讀", "寫作", "英文", "國文", "報告", "單字"}},
	{"spatial", []string{"draw", "design", "paint", "map", "sketch", "photo", "video edit", "繪", "畫", "設計", "攝影"}},
	{"bodily_kinesthetic", []string{"gym", "run", "jog", "swim", "yoga", "basketball", "football", "dance", "workout", "exercise", "健身", "跑步", "游泳", "運動", "籃球", "舞"}},
	{"musical", []string{"piano", "guitar", "violin", "sing", "music", "song", "鋼琴", "吉他", "唱", "音樂", "樂器"}},
	{"interpersonal", []string{"meeting", "call", "team", "club", "friend", "interview", "presentation", "會議", "開會", "社團", "朋友", "面試", "討論"}},
	{"intrapersonal", []string{"journal", "diary", "meditat", "reflect", "plan my", "goal", "日記", "冥想", "反思", "規劃"}},
	{"naturalistic", []string{"garden", "hike", "plant", "nature", "bird", "walk", "biology", "園藝", "登山", "植物", "自然", "散步", "生物"}},
}

// KeywordClassifier matches descriptions against fixed keyword lists and
// falls back to a default category.
type KeywordClassifier struct {
	fallback string
}

// NewKeywordClassifier returns a classifier answering fallback when nothing
// matches. An empty fallback uses planner.DefaultCategory.
func NewKeywordClassifier(fallback string) *KeywordClassifier {
	if fallback == "" {
		fallback = planner.DefaultCategory
	}
	return &KeywordClassifier{fallback: fallback}
}

func (k *KeywordClassifier) Classify(_ context.Context, description string) (string, error) {
	d := strings.ToLower(description)
	for _, kw := range keywords {
		for _, w := range kw.words {
			if strings.Contains(d, w) {
				return kw.category, nil
			}
		}
	}
	return k.fallback, nil
}
