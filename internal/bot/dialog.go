package bot

import (
	"sync"
	"time"
)

type dialogState int

const (
	stateIdle dialogState = iota
	stateAwaitAddText
	stateAwaitChangeID
	stateAwaitChangeText
	stateAwaitDeleteID
)

// dialogTTL returns an abandoned flow to idle. Checked lazily on the next
// message, no background sweeper.
const dialogTTL = 5 * time.Minute

type conversation struct {
	state     dialogState
	pendingID int64
	updatedAt time.Time
}

// dialogStore keeps per-user dialogue progress. Ephemeral, loss on restart
// is acceptable.
type dialogStore struct {
	mu    sync.Mutex
	convs map[int64]*conversation
	now   func() time.Time
}

func newDialogStore() *dialogStore {
	return &dialogStore{
		convs: make(map[int64]*conversation),
		now:   time.Now,
	}
}

func (d *dialogStore) get(userID int64) (dialogState, int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	conv, ok := d.convs[userID]
	if !ok {
		return stateIdle, 0
	}
	if d.now().Sub(conv.updatedAt) > dialogTTL {
		delete(d.convs, userID)
		return stateIdle, 0
	}
	return conv.state, conv.pendingID
}

func (d *dialogStore) set(userID int64, state dialogState, pendingID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.convs[userID] = &conversation{
		state:     state,
		pendingID: pendingID,
		updatedAt: d.now(),
	}
}

func (d *dialogStore) clear(userID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.convs, userID)
}
