package preview

import "time"

func (o *Orchestrator) addNoticeLocked(op Operation, title, description string) Notice {
	notice := Notice{
		ID:          o.opts.NewID(),
		Operation:   op,
		Title:       title,
		Description: description,
		CreatedAt:   o.opts.Now(),
	}
	o.notices = append(o.notices, notice)
	if overflow := len(o.notices) - o.opts.MaxNotices; overflow > 0 {
		o.notices = append([]Notice(nil), o.notices[overflow:]...)
	}

	time.AfterFunc(o.opts.NoticeTTL, o.expireNotices)
	return notice
}

func (o *Orchestrator) expireNotices() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	if o.pruneNoticesLocked() {
		o.publishLocked()
	}
}

// pruneNoticesLocked drops expired notices and reports whether any were removed.
func (o *Orchestrator) pruneNoticesLocked() bool {
	if len(o.notices) == 0 {
		return false
	}
	now := o.opts.Now()
	kept := o.notices[:0]
	for _, notice := range o.notices {
		if now.Sub(notice.CreatedAt) < o.opts.NoticeTTL {
			kept = append(kept, notice)
		}
	}
	removed := len(kept) != len(o.notices)
	o.notices = kept
	return removed
}
