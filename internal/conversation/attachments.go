package conversation

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/quocvuong92/ai-chat/internal/constants"
)

var (
	// ErrFileNotFound is returned when an attachment path does not exist
	ErrFileNotFound = errors.New("file not found")
	// ErrNotUTF8 is returned for text attachments that are not valid UTF-8
	ErrNotUTF8 = errors.New("not a UTF-8 encoded file")
	// ErrEmptyFile is returned for text attachments with only whitespace.
	// Callers warn and skip the file.
	ErrEmptyFile = errors.New("empty file")
)

// FileMessage reads a text file and wraps it in a user message.
// Files larger than constants.MaxAttachmentSize are truncated with a note.
func FileMessage(path string) (Message, error) {
	data, size, err := readAttachment(path)
	if err != nil {
		return Message{}, err
	}
	if !utf8.Valid(data) {
		return Message{}, fmt.Errorf("%w: %s", ErrNotUTF8, path)
	}
	if strings.TrimSpace(string(data)) == "" {
		return Message{}, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	content := string(data)
	if size > constants.MaxAttachmentSize {
		content = truncateUTF8(content, constants.MaxAttachmentSize)
		content += fmt.Sprintf("\n\n[Truncated: file is %d bytes, showing first 512KB]", size)
	}

	return NewMessage(RoleUser, fmt.Sprintf(
		"User has uploaded a file '%s'. Here is its content:\n%s", filepath.Base(path), content)), nil
}

// ImageMessage reads an image and builds a multimodal user message with the
// image inlined as a base64 data URL.
func ImageMessage(path string) (Message, error) {
	data, _, err := readAttachment(path)
	if err != nil {
		return Message{}, err
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	return Message{
		Role: RoleUser,
		Parts: []ContentPart{
			{
				Type: PartText,
				Text: fmt.Sprintf("User has uploaded an image '%s', please remember its content.", filepath.Base(path)),
			},
			{
				Type:     PartImageURL,
				ImageURL: &ImageURL{URL: "data:image/jpeg;base64," + encoded},
			},
		},
	}, nil
}

func readAttachment(path string) ([]byte, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, 0, err
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("%s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, info.Size(), nil
}

// truncateUTF8 cuts s to at most maxBytes without splitting a rune
func truncateUTF8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
