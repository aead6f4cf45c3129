package batch

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadBatchFile(t *testing.T) {
	tests := []struct {
		name        string
		fileContent string
		want        []Entry
		wantErr     bool
	}{
		{
			name:        "empty file",
			fileContent: "",
			want:        nil,
		},
		{
			name:        "only whitespace",
			fileContent: "   \n\t\r\n   ",
			want:        nil,
		},
		{
			name: "texts only",
			fileContent: `Good morning
How are you?`,
			want: []Entry{
				{Text: "Good morning"},
				{Text: "How are you?"},
			},
		},
		{
			name: "texts with languages",
			fileContent: `Good morning | french, Tamil
Thank you | German`,
			want: []Entry{
				{Text: "Good morning", Languages: []string{"French", "Tamil"}},
				{Text: "Thank you", Languages: []string{"German"}},
			},
		},
		{
			name: "comments and blank lines",
			fileContent: `
# greetings
Hello

  Bye | Spanish  

`,
			want: []Entry{
				{Text: "Hello"},
				{Text: "Bye", Languages: []string{"Spanish"}},
			},
		},
		{
			name:        "windows line endings",
			fileContent: "Hello\r\nBye | Tamil\r\nThanks",
			want: []Entry{
				{Text: "Hello"},
				{Text: "Bye", Languages: []string{"Tamil"}},
				{Text: "Thanks"},
			},
		},
		{
			name:        "pipe inside text",
			fileContent: `a | b | Tamil`,
			want: []Entry{
				{Text: "a | b", Languages: []string{"Tamil"}},
			},
		},
		{
			name:        "duplicate and empty languages",
			fileContent: `Hi | Tamil, , tamil,French`,
			want: []Entry{
				{Text: "Hi", Languages: []string{"Tamil", "French"}},
			},
		},
		{
			name:        "empty language list",
			fileContent: `Hi |`,
			want: []Entry{
				{Text: "Hi"},
			},
		},
		{
			name:        "languages without text are ignored",
			fileContent: `| Tamil`,
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			tmpFile := filepath.Join(tmpDir, "test.txt")
			err := os.WriteFile(tmpFile, []byte(tt.fileContent), 0644)
			if err != nil {
				t.Fatalf("Failed to create test file: %v", err)
			}

			got, err := ReadBatchFile(tmpFile)
			if (err != nil) != tt.wantErr {
				t.Errorf("ReadBatchFile() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReadBatchFile() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestReadBatchFile_FileNotFound(t *testing.T) {
	_, err := ReadBatchFile("/nonexistent/file.txt")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "unix line endings",
			input: "line1\nline2\nline3",
			want:  []string{"line1", "line2", "line3"},
		},
		{
			name:  "windows line endings",
			input: "line1\r\nline2\r\nline3",
			want:  []string{"line1", "line2", "line3"},
		},
		{
			name:  "empty string",
			input: "",
			want:  nil,
		},
		{
			name:  "trailing newline",
			input: "line1\nline2\n",
			want:  []string{"line1", "line2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitLines(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitLines() = %v, want %v", got, tt.want)
			}
		})
	}
}
