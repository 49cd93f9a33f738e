// ABOUTME: Scroll offset calculation for the request log
// ABOUTME: Keeps the selected request on screen, pinning the view to the newest entries

package tui

// ViewportManager computes the request log scroll offset for a selected row.
// The selection moves freely until it reaches the middle of the view, after
// which the content scrolls, until the last page is reached.
type ViewportManager struct {
	height     int // Viewport height in lines
	cursorPos  int // Selected row
	totalItems int // Rows in the log
}

// NewViewportManager creates a new viewport manager
func NewViewportManager(height, cursorPos, totalItems int) *ViewportManager {
	return &ViewportManager{
		height:     height,
		cursorPos:  cursorPos,
		totalItems: totalItems,
	}
}

// CalculateOffset returns the first visible row
func (vm *ViewportManager) CalculateOffset() int {
	if vm.totalItems <= vm.height || vm.height < 1 {
		return 0
	}

	offset := vm.cursorPos - vm.height/2
	if offset < 0 {
		return 0
	}

	if last := vm.totalItems - vm.height; offset > last {
		return last
	}

	return offset
}

// AtBottom reports whether the newest row is visible
func (vm *ViewportManager) AtBottom() bool {
	return vm.CalculateOffset()+vm.height >= vm.totalItems
}
