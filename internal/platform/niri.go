package platform

import (
	"encoding/json"
	"fmt"
)

// parseNiriFocusedWindow decodes `niri msg -j focused-window`, which prints
// null when nothing has focus.
func parseNiriFocusedWindow(data []byte) (WindowInfo, error) {
	var win *struct {
		Title string `json:"title"`
		AppID string `json:"app_id"`
	}
	if err := json.Unmarshal(data, &win); err != nil {
		return WindowInfo{}, fmt.Errorf("%w: parse focused-window: %v", ErrQueryFailed, err)
	}
	if win == nil {
		return WindowInfo{}, fmt.Errorf("%w: no focused window", ErrQueryFailed)
	}
	return WindowInfo{Name: win.Title, AppID: win.AppID}, nil
}
