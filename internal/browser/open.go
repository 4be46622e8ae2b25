// Package browser hands URLs to the desktop's default handler.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// ShareBase is the share endpoint used for visitor passes.
const ShareBase = "https://wa.me/"

// Open opens the specified URL in the user's default browser.
func Open(target string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", target).Start()
	case "linux":
		return exec.Command("xdg-open", target).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target).Start()
	default:
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}

// ShareURL returns a link that opens a messaging share sheet prefilled with text.
func ShareURL(text string) string {
	return ShareBase + "?text=" + url.QueryEscape(text)
}
