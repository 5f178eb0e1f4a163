package debugger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/a64toolkit/a64emu/vm"
)

// WatchType classifies a watchpoint's trigger condition. All three
// currently trigger identically, on a change from the last observed
// value: this subset's flat memory model gives no cheap way to
// distinguish a read from a write access the way a real MMU trap
// would, so CheckWatchpoints just polls and diffs. The type still
// drives the label cmdInfo prints for "watch"/"rwatch"/"awatch".
type WatchType int

const (
	WatchWrite WatchType = iota
	WatchRead
	WatchReadWrite
)

// Watchpoint monitors a register or memory word for changes.
type Watchpoint struct {
	ID         int
	Type       WatchType
	Expression string // original text, e.g. "x0", "[0x1000]", "myvar"
	Address    uint32 // resolved address, for memory watchpoints
	IsRegister bool
	Register   int // register number, when IsRegister is true
	Enabled    bool
	LastValue  uint32
	HitCount   int
}

// WatchpointManager owns the set of active watchpoints.
type WatchpointManager struct {
	mu          sync.RWMutex
	watchpoints map[int]*Watchpoint
	nextID      int
}

func NewWatchpointManager() *WatchpointManager {
	return &WatchpointManager{
		watchpoints: make(map[int]*Watchpoint),
		nextID:      1,
	}
}

// AddWatchpoint registers a new watchpoint and assigns it the next ID.
// Its LastValue starts at 0 until InitializeWatchpoint captures the
// current state; callers should always follow up with that call before
// relying on CheckWatchpoints to detect the first change.
func (wm *WatchpointManager) AddWatchpoint(wpType WatchType, expression string, address uint32, isRegister bool, register int) *Watchpoint {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp := &Watchpoint{
		ID:         wm.nextID,
		Type:       wpType,
		Expression: expression,
		Address:    address,
		IsRegister: isRegister,
		Register:   register,
		Enabled:    true,
	}

	wm.watchpoints[wp.ID] = wp
	wm.nextID++

	return wp
}

func (wm *WatchpointManager) DeleteWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.watchpoints[id]; !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}
	delete(wm.watchpoints, id)
	return nil
}

func (wm *WatchpointManager) EnableWatchpoint(id int) error {
	return wm.setEnabled(id, true)
}

func (wm *WatchpointManager) DisableWatchpoint(id int) error {
	return wm.setEnabled(id, false)
}

func (wm *WatchpointManager) setEnabled(id int, enabled bool) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}
	wp.Enabled = enabled
	return nil
}

func (wm *WatchpointManager) GetWatchpoint(id int) *Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return wm.watchpoints[id]
}

// GetAllWatchpoints returns every watchpoint ordered by ID, matching
// the order they were created in and the order "info watchpoints"
// lists them.
func (wm *WatchpointManager) GetAllWatchpoints() []*Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	result := make([]*Watchpoint, 0, len(wm.watchpoints))
	for _, wp := range wm.watchpoints {
		result = append(result, wp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// currentValue reads the live value a watchpoint tracks: the low 32
// bits of its register, or the memory word at its resolved address.
func currentValue(wp *Watchpoint, machine *vm.VM) (uint32, error) {
	if wp.IsRegister {
		return machine.Regs.Read32(uint8(wp.Register)), nil
	}
	return machine.Memory.Load32(wp.Address)
}

// CheckWatchpoints scans enabled watchpoints for one whose live value
// differs from LastValue, updates its hit count and LastValue, and
// returns it. Map iteration order is unspecified, so which watchpoint
// wins when several change in the same step is not deterministic;
// callers needing that should call it in a loop and track which IDs
// have already fired.
func (wm *WatchpointManager) CheckWatchpoints(machine *vm.VM) (*Watchpoint, bool) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	for _, wp := range wm.watchpoints {
		if !wp.Enabled {
			continue
		}

		value, err := currentValue(wp, machine)
		if err != nil {
			continue // address outside memory; skip rather than fault
		}

		if value != wp.LastValue {
			wp.HitCount++
			wp.LastValue = value
			return wp, true
		}
	}

	return nil, false
}

// InitializeWatchpoint captures the current value as the watchpoint's
// baseline, called once right after AddWatchpoint so the first real
// change is what triggers it rather than the zero-value default.
func (wm *WatchpointManager) InitializeWatchpoint(id int, machine *vm.VM) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	value, err := currentValue(wp, machine)
	if err != nil {
		return fmt.Errorf("failed to initialize watchpoint: %w", err)
	}
	wp.LastValue = value
	return nil
}

func (wm *WatchpointManager) Clear() {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	wm.watchpoints = make(map[int]*Watchpoint)
}

func (wm *WatchpointManager) Count() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return len(wm.watchpoints)
}
