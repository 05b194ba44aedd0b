package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spotgrab/internal/track"
)

var (
	_ list.Item = fileItem{}
)

// fileItem wraps [track.AudioFile] to implement [list.Item].
type fileItem struct {
	file      track.AudioFile
	preferred bool
}

func (i fileItem) FilterValue() string { return i.file.Format.String() }
func (i fileItem) Title() string {
	if i.preferred {
		return fmt.Sprintf("%s (recommended)", i.file.Format)
	}
	return i.file.Format.String()
}
func (i fileItem) Description() string {
	desc := fmt.Sprintf("file %s", i.file.FileID)
	if ext := i.file.Format.Extension(); ext != "" {
		desc = fmt.Sprintf("%s • %s", desc, ext)
	}
	return desc
}
