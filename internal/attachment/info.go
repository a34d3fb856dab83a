package attachment

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Info struct {
	Name   string
	Size   string
	Exists bool
}

// Describe reports display details for path. It never fails: a missing or
// unreadable file yields Exists=false and a "missing" size.
func (m *Manager) Describe(path string) Info {
	info := Info{Name: filepath.Base(path), Size: missingSize}

	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return info
	}
	info.Size = FormatSize(st.Size())
	info.Exists = true
	return info
}

// FormatSize renders n bytes with one decimal in the first unit of B, KB, MB
// or GB that keeps the value below 1024.
func FormatSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB"} {
		if size < 1024 {
			return fmt.Sprintf("%.1f%s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1fGB", size)
}

type Kind int

const (
	KindOther Kind = iota
	KindDocument
	KindImage
	KindSpreadsheet
	KindArchive
	KindCode
	KindAudio
	KindVideo
)

var kindsByExt = map[string]Kind{
	".pdf": KindDocument, ".doc": KindDocument, ".docx": KindDocument,
	".txt": KindDocument, ".rtf": KindDocument, ".md": KindDocument, ".odt": KindDocument,

	".jpg": KindImage, ".jpeg": KindImage, ".png": KindImage, ".gif": KindImage,
	".bmp": KindImage, ".svg": KindImage, ".webp": KindImage,

	".xlsx": KindSpreadsheet, ".xls": KindSpreadsheet, ".csv": KindSpreadsheet, ".ods": KindSpreadsheet,

	".zip": KindArchive, ".rar": KindArchive, ".7z": KindArchive, ".tar": KindArchive, ".gz": KindArchive,

	".py": KindCode, ".js": KindCode, ".ts": KindCode, ".java": KindCode, ".cpp": KindCode,
	".c": KindCode, ".h": KindCode, ".go": KindCode, ".rs": KindCode, ".sh": KindCode,

	".mp3": KindAudio, ".wav": KindAudio, ".flac": KindAudio, ".ogg": KindAudio, ".m4a": KindAudio,

	".mp4": KindVideo, ".mkv": KindVideo, ".mov": KindVideo, ".avi": KindVideo, ".webm": KindVideo,
}

// Classify buckets path by its extension.
func Classify(path string) Kind {
	return kindsByExt[strings.ToLower(filepath.Ext(path))]
}

func (k Kind) Icon() string {
	switch k {
	case KindDocument:
		return "📄"
	case KindImage:
		return "🖼️"
	case KindSpreadsheet:
		return "📊"
	case KindArchive:
		return "📦"
	case KindCode:
		return "💻"
	case KindAudio:
		return "🎵"
	case KindVideo:
		return "🎬"
	default:
		return "📎"
	}
}

func (k Kind) String() string {
	return [...]string{"other", "document", "image", "spreadsheet", "archive", "code", "audio", "video"}[k]
}
