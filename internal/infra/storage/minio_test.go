package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", ContentType("/out/mem_legacy_pslist.json"))
	assert.Equal(t, "text/csv", ContentType("/out/mem_modern_windows_pslist.CSV"))
	assert.Equal(t, "text/plain; charset=utf-8", ContentType("imageinfo.txt"))
	assert.Equal(t, "application/octet-stream", ContentType("file.None.0xfffffa8001b3c010.vacb"))
	assert.Equal(t, "application/octet-stream", ContentType("executable"))
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "https://minio.lab:9000/evidence/mem/run-1/out.json", ObjectURL("https", "minio.lab:9000", "evidence", "mem/run-1/out.json"))
	assert.Equal(t, "http://localhost:9000/b/k", ObjectURL("", "localhost:9000", "b", "k"))
}
