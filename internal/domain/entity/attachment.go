package entity

import "path/filepath"

// Attachment 附件实体
type Attachment struct {
	RowID        int64
	MessageRowID int64
	// Filename is the on-disk path as recorded by the source database,
	// possibly with a leading "~".
	Filename     string
	TransferName string
	MimeType     string
	TotalBytes   int64
	IsSticker    bool
}

// Name returns the name the attachment is rendered and copied under:
// the original transfer name when present, else the path basename.
func (a *Attachment) Name() string {
	if a.TransferName != "" {
		return a.TransferName
	}
	if a.Filename == "" {
		return ""
	}
	return filepath.Base(a.Filename)
}
