package guild

// Counts is an insertion-ordered table of participant tater totals.
//
// Iteration order is the order participants first appeared. Leaderboard
// tie-breaking depends on this, so the order must survive persistence
// round-trips (the storage layer records a position per row).
type Counts struct {
	order  []string
	totals map[string]uint64
}

// CountEntry is one participant's total in iteration order.
type CountEntry struct {
	UserID string
	Count  uint64
}

// NewCounts creates an empty count table.
func NewCounts() *Counts {
	return &Counts{totals: make(map[string]uint64)}
}

// Get returns the participant's total. Absent participants count as zero.
func (c *Counts) Get(userID string) uint64 {
	return c.totals[userID]
}

// Add increments the participant's total, registering the participant on
// first reference.
func (c *Counts) Add(userID string, delta uint64) {
	c.Set(userID, c.totals[userID]+delta)
}

// Set stores the participant's total, registering the participant on first
// reference. Used by Add and by the persistence load path.
func (c *Counts) Set(userID string, total uint64) {
	if _, ok := c.totals[userID]; !ok {
		c.order = append(c.order, userID)
	}
	c.totals[userID] = total
}

// Len returns the number of participants with a recorded total.
func (c *Counts) Len() int {
	return len(c.order)
}

// Entries returns all totals in iteration order.
func (c *Counts) Entries() []CountEntry {
	entries := make([]CountEntry, 0, len(c.order))
	for _, userID := range c.order {
		entries = append(entries, CountEntry{UserID: userID, Count: c.totals[userID]})
	}
	return entries
}
