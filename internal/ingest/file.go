package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// FileType is the coarse category text extraction dispatches on.
type FileType int

const (
	FilePlainText FileType = iota
	FileMarkdown
	FileCode
	FileJSON
	FilePDF
	FileUnknown
)

var codeExt = map[string]bool{
	"py": true, "js": true, "ts": true, "tsx": true, "jsx": true, "rs": true,
	"go": true, "java": true, "cpp": true, "c": true, "h": true, "hpp": true,
	"cs": true, "rb": true, "php": true, "swift": true, "kt": true, "scala": true,
	"sh": true, "bash": true, "zsh": true, "yaml": true, "yml": true, "toml": true,
	"ini": true, "cfg": true, "conf": true, "xml": true, "html": true, "css": true,
	"scss": true, "sql": true,
}

// FileTypeFromExtension classifies a file extension (without the leading
// dot) into a FileType.
func FileTypeFromExtension(ext string) FileType {
	switch strings.ToLower(ext) {
	case "txt":
		return FilePlainText
	case "md", "mdx":
		return FileMarkdown
	case "json":
		return FileJSON
	case "pdf":
		return FilePDF
	default:
		if codeExt[strings.ToLower(ext)] {
			return FileCode
		}
		return FileUnknown
	}
}

// IsText reports whether a FileType is read directly as text (as opposed to
// needing a dedicated extractor, or being unsupported).
func (f FileType) IsText() bool {
	switch f {
	case FilePlainText, FileMarkdown, FileCode, FileJSON:
		return true
	default:
		return false
	}
}

// ExtractText reads and, for recognized formats, extracts text content from
// path. It returns (nil, nil) for a file it cannot or should not index
// (PDFs pending a dedicated extractor, or content that looks binary) —
// callers must not treat that as an error.
func ExtractText(path string) (*string, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	fileType := FileTypeFromExtension(ext)

	switch fileType {
	case FilePlainText, FileMarkdown, FileCode:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		text := string(data)
		return &text, nil
	case FileJSON:
		return extractJSON(path)
	case FilePDF:
		return nil, nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil
		}
		text := string(data)
		if looksBinary(text) {
			return nil, nil
		}
		return &text, nil
	}
}

// looksBinary flags text whose control-character density (excluding
// newline/carriage-return/tab) exceeds one in ten runes.
func looksBinary(text string) bool {
	if len(text) == 0 {
		return false
	}
	controls := 0
	total := 0
	for _, r := range text {
		total++
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			controls++
		}
	}
	return controls*10 > total
}

type chatExportNode struct {
	Message *struct {
		Author *struct {
			Role string `json:"role"`
		} `json:"author"`
		Content *struct {
			Parts []string `json:"parts"`
		} `json:"content"`
	} `json:"message"`
}

type chatExportConversation struct {
	Title   string                     `json:"title"`
	Mapping map[string]chatExportNode `json:"mapping"`
}

// extractJSON handles the ChatGPT conversation-export format (an array of
// conversations with a title and a message-graph mapping) when the JSON
// matches that shape, and otherwise returns the file's raw content so it's
// still indexed rather than dropped.
func extractJSON(path string) (*string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := string(data)

	var conversations []chatExportConversation
	if err := json.Unmarshal(data, &conversations); err == nil {
		var texts []string
		for _, conv := range conversations {
			if conv.Title != "" {
				texts = append(texts, "# "+conv.Title)
			}
			for _, node := range conv.Mapping {
				if node.Message == nil || node.Message.Content == nil {
					continue
				}
				role := "unknown"
				if node.Message.Author != nil && node.Message.Author.Role != "" {
					role = node.Message.Author.Role
				}
				for _, part := range node.Message.Content.Parts {
					if part != "" {
						texts = append(texts, "["+role+"]: "+part)
					}
				}
			}
		}
		if len(texts) > 0 {
			joined := strings.Join(texts, "\n\n")
			return &joined, nil
		}
	}

	return &content, nil
}
