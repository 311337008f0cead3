package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/iho/ledgerimport/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText turns an uploaded payload into text. A UTF-8 BOM is dropped; bytes
// that are not valid UTF-8 are read as Windows-1252, the code page spreadsheet
// tools use when saving CSV on Windows.
func DecodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode windows-1252: %w", err)
	}
	return string(decoded), nil
}

// FileKind is the container format of an upload.
type FileKind string

const (
	FileKindCSV  FileKind = "csv"
	FileKindXLSX FileKind = "xlsx"
	FileKindXLS  FileKind = "xls"
)

// KindOf infers the container format from the file name.
func KindOf(name string) (FileKind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FileKindXLSX, nil
	case ".xls":
		return FileKindXLS, nil
	case ".csv", ".txt", "":
		return FileKindCSV, nil
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, filepath.Ext(name))
	}
}

// ReadTable decodes and tokenizes an upload of either kind.
func ReadTable(name string, data []byte) (Table, error) {
	if len(bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))) == 0 {
		return Table{}, domain.ErrEmptyFile
	}

	kind, err := KindOf(name)
	if err != nil {
		return Table{}, err
	}

	switch kind {
	case FileKindXLSX:
		return ReadWorkbook(bytes.NewReader(data))
	case FileKindXLS:
		return ReadLegacyWorkbook(bytes.NewReader(data))
	}

	text, err := DecodeText(data)
	if err != nil {
		return Table{}, err
	}
	return Parse(text), nil
}
