package b2blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_downloadURL(t *testing.T) {
	tests := []struct {
		base, bucket, key string
		want              string
	}{
		{DefaultDownloadURL, "resources", "1714550400000-abc.pdf", "https://f000.backblazeb2.com/file/resources/1714550400000-abc.pdf"},
		{"https://cdn.school.test", "uploads", "a b.txt", "https://cdn.school.test/file/uploads/a%20b.txt"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, downloadURL(tt.base, tt.bucket, tt.key))
	}
}

func TestStore_PublicURL(t *testing.T) {
	s := &Store{publicBase: "https://cdn.school.test"}
	assert.Equal(t, "https://cdn.school.test/file/resources/k.png", s.PublicURL("resources", "k.png"))
}
