package entity

// TaskSubscriber identifies one subscriber waiting for the content of a
// batched article fetch, together with the page the result will land on.
type TaskSubscriber struct {
	UserID      string `json:"userId"`
	PageID      string `json:"pageId"`
	WorkspaceID string `json:"workspaceId"`
}

// ContentFetchTask collects every subscriber that wants the same article URL
// during one refresh job. It exists only for the duration of the job; the
// batching invariant is that at most one outbound fetch is issued per unique
// article URL per job, no matter how many subscribers are attached.
type ContentFetchTask struct {
	ID          string
	ArticleURL  string
	FeedURL     string
	Item        FeedItem
	Subscribers map[string]TaskSubscriber // keyed by user id
}

// AddSubscriber merges a subscriber into the task. A user already present
// keeps their original page id.
func (t *ContentFetchTask) AddSubscriber(sub TaskSubscriber) {
	if t.Subscribers == nil {
		t.Subscribers = make(map[string]TaskSubscriber)
	}
	if _, ok := t.Subscribers[sub.UserID]; ok {
		return
	}
	t.Subscribers[sub.UserID] = sub
}

// SubscriberList returns the subscribers in a deterministic-enough slice form
// for the dispatch payload.
func (t *ContentFetchTask) SubscriberList() []TaskSubscriber {
	subs := make([]TaskSubscriber, 0, len(t.Subscribers))
	for _, sub := range t.Subscribers {
		subs = append(subs, sub)
	}
	return subs
}
