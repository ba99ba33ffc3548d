package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateExtension(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
		wantErr  bool
	}{
		{"mp4", "clip.mp4", ".mp4", false},
		{"avi", "clip.avi", ".avi", false},
		{"uppercase normalized", "CLIP.MP4", ".mp4", false},
		{"mixed case", "clip.Avi", ".avi", false},
		{"mkv rejected", "clip.mkv", "", true},
		{"no extension", "clip", "", true},
		{"empty", "", "", true},
		{"extension only counts last", "clip.mp4.exe", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := ValidateExtension(tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDisallowedExtension)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ext)
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean name unchanged", "holiday.mp4", "holiday.mp4"},
		{"spaces preserved", "my holiday clip.mp4", "my holiday clip.mp4"},
		{"path separators replaced", `..\..\evil.mp4`, ".._.._evil.mp4"},
		{"forward slashes replaced", "a/b/c.mp4", "a_b_c.mp4"},
		{"quotes replaced", `say "hi".mp4`, "say _hi_.mp4"},
		{"control chars replaced", "a\nb\rc.mp4", "a_b_c.mp4"},
		{"unicode preserved", "vidéo-日本.mp4", "vidéo-日本.mp4"},
		{"empty becomes file", "", "file"},
		{"only dangerous chars becomes file", `\/\/`, "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilenameTruncatesKeepingExtension(t *testing.T) {
	long := strings.Repeat("a", 300) + ".mp4"

	got := SanitizeFilename(long)

	assert.LessOrEqual(t, len(got), 255)
	assert.True(t, strings.HasSuffix(got, ".mp4"))
}

func TestSanitizeFilenameTruncationRespectsUTF8(t *testing.T) {
	long := strings.Repeat("日", 120) + ".mp4" // 3 bytes per rune

	got := SanitizeFilename(long)

	assert.LessOrEqual(t, len(got), 255)
	assert.True(t, strings.HasSuffix(got, ".mp4"))
	for _, r := range got {
		assert.NotEqual(t, '�', r)
	}
}
