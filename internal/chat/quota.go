package chat

import (
	"fmt"
)

// GuestQueryLimit is the number of queries a guest may submit.
const GuestQueryLimit = 3

// GuestLimitError is returned when a guest has used every allowed query.
type GuestLimitError struct {
	Limit int
}

func (e *GuestLimitError) Error() string {
	return fmt.Sprintf("Guest mode is limited to %d queries. Please sign in to continue.", e.Limit)
}

// Quota mirrors the guest query counter. Used is the local, optimistic count
// incremented at submission time; ServerUsed is the last count the server
// reported. The server is authoritative: Reconcile adopts its value and
// records how far the local mirror had drifted.
type Quota struct {
	Limit       int
	Used        int
	ServerUsed  int
	Synced      bool
	Discrepancy int // Used - ServerUsed at the last reconcile
}

func newQuota(limit int) Quota {
	if limit <= 0 {
		limit = GuestQueryLimit
	}
	return Quota{Limit: limit}
}

// Remaining is the number of queries the guest may still submit.
func (q Quota) Remaining() int {
	if q.Used >= q.Limit {
		return 0
	}
	return q.Limit - q.Used
}

// Exhausted reports whether no further guest queries are allowed.
func (q Quota) Exhausted() bool {
	return q.Used >= q.Limit
}

// consume counts one accepted guest query. Used never exceeds Limit.
func (q *Quota) consume() {
	if q.Used < q.Limit {
		q.Used++
	}
}

// reconcile adopts the server count and returns the drift it replaced.
func (q *Quota) reconcile(serverUsed int) int {
	if serverUsed < 0 {
		serverUsed = 0
	}
	if serverUsed > q.Limit {
		serverUsed = q.Limit
	}
	q.Discrepancy = q.Used - serverUsed
	q.ServerUsed = serverUsed
	q.Used = serverUsed
	q.Synced = true
	return q.Discrepancy
}
