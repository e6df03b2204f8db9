package catalog

import (
	"time"

	"github.com/google/uuid"
)

const (
	defaultNoticeTTL = 10 * time.Second
	maxNotices       = 5
)

// Notice is a transient, dismissible message shown to the shopper after a
// recoverable failure.
type Notice struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// noticeBoard keeps the most recent notices until they expire or are dismissed.
type noticeBoard struct {
	ttl     time.Duration
	now     func() time.Time
	notices []Notice
}

func newNoticeBoard(ttl time.Duration, now func() time.Time) noticeBoard {
	if ttl <= 0 {
		ttl = defaultNoticeTTL
	}
	if now == nil {
		now = time.Now
	}
	return noticeBoard{ttl: ttl, now: now}
}

func (b *noticeBoard) post(message string) Notice {
	n := Notice{ID: uuid.NewString(), Message: message, CreatedAt: b.now()}
	b.notices = append(b.notices, n)
	if len(b.notices) > maxNotices {
		b.notices = append([]Notice{}, b.notices[len(b.notices)-maxNotices:]...)
	}
	return n
}

func (b *noticeBoard) dismiss(id string) bool {
	for i, n := range b.notices {
		if n.ID == id {
			b.notices = append(b.notices[:i:i], b.notices[i+1:]...)
			return true
		}
	}
	return false
}

// active prunes expired notices and returns a copy of the rest.
func (b *noticeBoard) active() []Notice {
	cutoff := b.now().Add(-b.ttl)
	kept := b.notices[:0]
	for _, n := range b.notices {
		if n.CreatedAt.After(cutoff) {
			kept = append(kept, n)
		}
	}
	b.notices = kept
	return append([]Notice{}, kept...)
}
