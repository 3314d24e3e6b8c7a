package conversation

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	if got := FileName(now, "go_tips"); got != "chat_20240309_140507_go_tips.json" {
		t.Errorf("FileName = %q", got)
	}
	if got := FileName(now, ""); got != "chat_20240309_140507.json" {
		t.Errorf("FileName without summary = %q", got)
	}
}

func TestSave_NothingToSave(t *testing.T) {
	_, err := Save(t.TempDir(), "x", Metadata{}, []Message{NewMessage(RoleSystem, "sys")}, time.Now())
	if !errors.Is(err, ErrNothingToSave) {
		t.Errorf("Save error = %v, want ErrNothingToSave", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "saved_chats")
	temp := 0.3
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)

	msgs := []Message{
		NewMessage(RoleSystem, "sys"),
		NewMessage(RoleUser, "list files & dirs"),
		NewMessage(RoleUser, "a && b <x>"),
		NewMessage(RoleAssistant, "use ls"),
	}
	path, err := Save(dir, "listing", Metadata{Model: "ecnu-max", Temperature: &temp, SystemPrompt: "sys"}, msgs, now)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Base(path) != "chat_20240102_030405_listing.json" {
		t.Errorf("unexpected file name %q", filepath.Base(path))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(raw), "\n    \"metadata\"") {
		t.Error("session should be indented with four spaces")
	}
	for _, want := range []string{"list files & dirs", `"content": "a && b <x>"`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("saved file should contain %q unescaped:\n%s", want, raw)
		}
	}
	if strings.Contains(string(raw), `\u0026`) || strings.Contains(string(raw), `\u003c`) {
		t.Error("saved file should not HTML-escape content")
	}

	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("session is not valid JSON: %v", err)
	}
	if _, ok := generic["metadata"]; !ok {
		t.Error("missing metadata key")
	}

	session, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if session.Metadata.Model != "ecnu-max" || session.Metadata.SystemPrompt != "sys" {
		t.Errorf("metadata = %+v", session.Metadata)
	}
	if session.Metadata.Temperature == nil || *session.Metadata.Temperature != 0.3 {
		t.Errorf("temperature = %v", session.Metadata.Temperature)
	}
	if session.Metadata.SavedAt != "2024-01-02T03:04:05.000000" {
		t.Errorf("saved_at = %q", session.Metadata.SavedAt)
	}
	if len(session.Messages) != 3 || session.Messages[0].Role != RoleUser {
		t.Errorf("messages should exclude the system prompt, got %+v", session.Messages)
	} else if session.Messages[1].Content != "a && b <x>" {
		t.Errorf("content = %q after reload", session.Messages[1].Content)
	}
	if session.HasImages() {
		t.Error("HasImages should be false for text sessions")
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		t.Helper()
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"missing file", filepath.Join(dir, "nope.json"), ErrFileNotFound},
		{"bad json", write("bad.json", "{not json"), ErrInvalidSession},
		{"empty messages", write("empty.json", `{"metadata":{},"messages":[]}`), ErrInvalidSession},
		{"no messages key", write("nokey.json", `{"metadata":{"model":"m"}}`), ErrInvalidSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ImagesAndMissingMetadata(t *testing.T) {
	p := filepath.Join(t.TempDir(), "img.json")
	content := `{"metadata":{},"messages":[{"role":"user","content":[{"type":"text","text":"pic"},{"type":"image_url","image_url":{"url":"data:image/jpeg;base64,AA=="}}]}]}`
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	session, err := Load(p)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !session.HasImages() {
		t.Error("HasImages should detect image parts")
	}
	if session.Metadata.Temperature != nil || session.Metadata.Model != "" {
		t.Errorf("absent metadata should stay empty, got %+v", session.Metadata)
	}
}

func TestFileMessage(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "notes.txt")
	os.WriteFile(good, []byte("line one\nline two"), 0644)
	msg, err := FileMessage(good)
	if err != nil {
		t.Fatalf("FileMessage failed: %v", err)
	}
	want := "User has uploaded a file 'notes.txt'. Here is its content:\nline one\nline two"
	if msg.Role != RoleUser || msg.Content != want {
		t.Errorf("FileMessage = %+v", msg)
	}

	empty := filepath.Join(dir, "empty.txt")
	os.WriteFile(empty, []byte("  \n\t"), 0644)
	if _, err := FileMessage(empty); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("empty file error = %v, want ErrEmptyFile", err)
	}

	binary := filepath.Join(dir, "bin.dat")
	os.WriteFile(binary, []byte{0xff, 0xfe, 0x00, 0x01}, 0644)
	if _, err := FileMessage(binary); !errors.Is(err, ErrNotUTF8) {
		t.Errorf("binary file error = %v, want ErrNotUTF8", err)
	}

	if _, err := FileMessage(filepath.Join(dir, "missing.txt")); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("missing file error = %v, want ErrFileNotFound", err)
	}

	if _, err := FileMessage(dir); err == nil {
		t.Error("directories should be rejected")
	}
}

func TestFileMessage_Truncated(t *testing.T) {
	p := filepath.Join(t.TempDir(), "big.txt")
	os.WriteFile(p, []byte(strings.Repeat("é", 300*1024)), 0644)

	msg, err := FileMessage(p)
	if err != nil {
		t.Fatalf("FileMessage failed: %v", err)
	}
	if !strings.Contains(msg.Content, "[Truncated: file is 614400 bytes, showing first 512KB]") {
		t.Error("large files should carry a truncation note")
	}
	if strings.ContainsRune(msg.Content, '�') {
		t.Error("truncation must not split a rune")
	}
}

func TestImageMessage(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cat.jpg")
	os.WriteFile(p, []byte{0x01, 0x02, 0x03}, 0644)

	msg, err := ImageMessage(p)
	if err != nil {
		t.Fatalf("ImageMessage failed: %v", err)
	}
	if !msg.HasImage() {
		t.Fatal("image message should contain an image part")
	}
	if msg.Text() != "User has uploaded an image 'cat.jpg', please remember its content." {
		t.Errorf("Text() = %q", msg.Text())
	}
	if msg.Parts[1].ImageURL.URL != "data:image/jpeg;base64,AQID" {
		t.Errorf("URL = %q", msg.Parts[1].ImageURL.URL)
	}

	if _, err := ImageMessage(filepath.Join(t.TempDir(), "none.png")); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("missing image error = %v, want ErrFileNotFound", err)
	}
}
