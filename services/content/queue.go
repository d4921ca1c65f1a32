package content

type QueueCounts struct {
	PendingApprovals int   `json:"pending_approvals"`
	GuestEvents      int   `json:"guest_events"`
	GuestBulletins   int   `json:"guest_bulletins"`
	PendingBusiness  int64 `json:"pending_businesses"`
}

type Queues struct {
	PendingApprovals []*Record   `json:"pending_approvals"`
	GuestEvents      []*Record   `json:"guest_events"`
	GuestBulletins   []*Record   `json:"guest_bulletins"`
	Counts           QueueCounts `json:"counts"`
}

// ProjectQueues splits pending records into the admin moderation queues.
// Anything not pending is ignored. PendingBusiness is left for the caller.
func ProjectQueues(records []*Record) Queues {
	q := Queues{
		PendingApprovals: []*Record{},
		GuestEvents:      []*Record{},
		GuestBulletins:   []*Record{},
	}
	for _, r := range records {
		if r == nil || r.Status != StatusPending {
			continue
		}
		switch {
		case r.Origin == OriginOwner:
			q.PendingApprovals = append(q.PendingApprovals, r)
		case r.Kind == KindEvent:
			q.GuestEvents = append(q.GuestEvents, r)
		case r.Kind == KindBulletin:
			q.GuestBulletins = append(q.GuestBulletins, r)
		}
	}

	SortRecords(q.PendingApprovals, OrderRecent)
	SortRecords(q.GuestEvents, OrderRecent)
	SortRecords(q.GuestBulletins, OrderRecent)

	q.Counts = QueueCounts{
		PendingApprovals: len(q.PendingApprovals),
		GuestEvents:      len(q.GuestEvents),
		GuestBulletins:   len(q.GuestBulletins),
	}
	return q
}
