// Package profile keeps a bounded in-memory usage summary per anonymous
// client ID. Profiles inform nothing client-visible yet; they are never
// echoed in responses.
package profile

import (
	"regexp"
	"sync"
	"time"
)

// Profile is the per-anon-ID summary.
type Profile struct {
	AnonID       string
	CreatedAt    time.Time
	LastSeenAt   time.Time
	AskCount     int
	LastLanguage string
	LastStyle    string
	TopicCounts  map[string]int
}

// Store holds profiles with age and capacity eviction.
type Store struct {
	// MaxEntries caps the map size. Zero means 5000.
	MaxEntries int
	// MaxAge evicts profiles unseen for this long. Zero means 30 days.
	MaxAge time.Duration
	// Now is swappable in tests.
	Now func() time.Time

	mu       sync.Mutex
	profiles map[string]*Profile
}

var anonIDRe = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,200}$`)

// ValidAnonID reports whether id is acceptable as an anonymous client ID.
func ValidAnonID(id string) bool {
	return anonIDRe.MatchString(id)
}

var topicBuckets = []struct {
	name string
	re   *regexp.Regexp
}{
	{"finance", regexp.MustCompile(`(?i)\b(stock|market|price|nifty|sensex|crypto|bitcoin|forex|inflation|invest|trading|ipo|mutual fund)`)},
	{"tech", regexp.MustCompile(`(?i)\b(software|code|coding|program|app\b|api\b|computer|phone|android|ios|ai\b|linux|windows)`)},
	{"news", regexp.MustCompile(`(?i)\b(news|election|government|minister|parliament|breaking|headline)`)},
	{"health", regexp.MustCompile(`(?i)\b(health|doctor|medicine|symptom|disease|fitness|diet|yoga)`)},
	{"sports", regexp.MustCompile(`(?i)\b(cricket|football|match|score|ipl|tournament|olympic|world cup)`)},
	{"travel", regexp.MustCompile(`(?i)\b(travel|flight|train|hotel|visa|tourist|itinerary)`)},
	{"education", regexp.MustCompile(`(?i)\b(exam|college|university|course|study|syllabus|admission)`)},
}

// classifyTopic maps a question to its first matching bucket.
func classifyTopic(question string) string {
	for _, b := range topicBuckets {
		if b.re.MatchString(question) {
			return b.name
		}
	}
	return "general"
}

// Touch upserts the profile for anonID after a successful ask. Invalid or
// empty IDs are ignored.
func (s *Store) Touch(anonID, question, style, language string) {
	if !ValidAnonID(anonID) {
		return
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	t := now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profiles == nil {
		s.profiles = make(map[string]*Profile)
	}

	p, ok := s.profiles[anonID]
	if !ok {
		p = &Profile{AnonID: anonID, CreatedAt: t, TopicCounts: make(map[string]int)}
		s.profiles[anonID] = p
	}
	p.LastSeenAt = t
	p.AskCount++
	if style != "" {
		p.LastStyle = style
	}
	if language != "" {
		p.LastLanguage = language
	}
	p.TopicCounts[classifyTopic(question)]++

	s.evictLocked(t)
}

// Get returns a copy of the profile, if present.
func (s *Store) Get(anonID string) (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[anonID]
	if !ok {
		return Profile{}, false
	}
	cp := *p
	cp.TopicCounts = make(map[string]int, len(p.TopicCounts))
	for k, v := range p.TopicCounts {
		cp.TopicCounts[k] = v
	}
	return cp, true
}

// Len reports the current entry count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles)
}

func (s *Store) evictLocked(now time.Time) {
	maxAge := s.MaxAge
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	for id, p := range s.profiles {
		if now.Sub(p.LastSeenAt) > maxAge {
			delete(s.profiles, id)
		}
	}

	maxEntries := s.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 5000
	}
	for len(s.profiles) > maxEntries {
		oldestID := ""
		var oldest time.Time
		for id, p := range s.profiles {
			if oldestID == "" || p.LastSeenAt.Before(oldest) {
				oldestID, oldest = id, p.LastSeenAt
			}
		}
		delete(s.profiles, oldestID)
	}
}
