package clipforge

import (
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"
)

// CaptionSuffix is the fixed call-to-action appended to every composed caption.
const CaptionSuffix = "follow us for more daily clips"

var (
	mentionPattern = regexp.MustCompile(`@\w+`)
	urlPattern     = regexp.MustCompile(`http\S+`)
	hashtagPattern = regexp.MustCompile(`#\w+`)
	wordPattern    = regexp.MustCompile(`\w+`)
)

// CleanCaption strips @mentions, URLs and #hashtags from a title, so a republished caption
// never inherits foreign handles or links, and normalizes the remaining whitespace. It is
// idempotent.
func CleanCaption(title string) string {
	s := mentionPattern.ReplaceAllString(title, "")
	s = urlPattern.ReplaceAllString(s, "")
	s = hashtagPattern.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// HashtagCandidates returns the word tokens of a cleaned caption that are long enough to be
// worth turning into hashtags (more than 3 characters).
func HashtagCandidates(caption string) []string {
	var candidates []string
	for _, w := range wordPattern.FindAllString(caption, -1) {
		if len(w) > 3 {
			candidates = append(candidates, w)
		}
	}
	return candidates
}

// CaptionComposer turns raw titles into publishable captions with synthesized hashtags.
// Hashtags are sampled randomly, so two compositions of the same title may differ.
type CaptionComposer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCaptionComposer() *CaptionComposer {
	return NewCaptionComposerRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewCaptionComposerRand creates a composer with a caller-supplied random source, which makes
// composition reproducible.
func NewCaptionComposerRand(rnd *rand.Rand) *CaptionComposer {
	return &CaptionComposer{rnd: rnd}
}

// Compose cleans the title, appends up to tagCount hashtags chosen uniformly at random
// without replacement from the cleaned title's candidate words, and always ends with
// CaptionSuffix.
func (c *CaptionComposer) Compose(title string, tagCount int) string {
	caption := CleanCaption(title)
	parts := make([]string, 0, 3)
	if caption != "" {
		parts = append(parts, caption)
	}
	if tags := c.sampleTags(HashtagCandidates(caption), tagCount); tags != "" {
		parts = append(parts, tags)
	}
	parts = append(parts, CaptionSuffix)
	return strings.Join(parts, " ")
}

func (c *CaptionComposer) sampleTags(candidates []string, tagCount int) string {
	if tagCount <= 0 || len(candidates) == 0 {
		return ""
	}
	n := tagCount
	if n > len(candidates) {
		n = len(candidates)
	}
	c.mu.Lock()
	order := c.rnd.Perm(len(candidates))
	c.mu.Unlock()
	tags := make([]string, 0, n)
	for _, i := range order[:n] {
		tags = append(tags, "#"+strings.ToLower(candidates[i]))
	}
	return strings.Join(tags, " ")
}
