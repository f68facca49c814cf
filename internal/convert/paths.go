package convert

import (
	"path"
	"strings"
)

// MsgGamePath returns the game path a converted JSON file is served under.
func MsgGamePath(gamePath string) string {
	return replaceExt(gamePath, ".msg")
}

// BXMGamePath returns the game path a converted XML file is served under.
// A ".bxm.xml" suffix collapses to ".bxm".
func BXMGamePath(gamePath string) string {
	gamePath = strings.ReplaceAll(gamePath, "\\", "/")
	if strings.HasSuffix(strings.ToLower(gamePath), ".bxm.xml") {
		return gamePath[:len(gamePath)-len(".xml")]
	}
	return replaceExt(gamePath, ".bxm")
}

func replaceExt(gamePath, ext string) string {
	gamePath = strings.ReplaceAll(gamePath, "\\", "/")
	return strings.TrimSuffix(gamePath, path.Ext(gamePath)) + ext
}
