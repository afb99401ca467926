// Package share builds shareable links, copies them to the clipboard and
// moves trees in and out of JSON snapshots.
package share

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/bunchhieng/coursetree/internal/migrate"
	"github.com/bunchhieng/coursetree/internal/model"
)

// DefaultBaseURL is used when no share base URL is configured.
const DefaultBaseURL = "http://localhost:5173"

// maxSnapshotBytes bounds how much of an import is read.
const maxSnapshotBytes = 4 << 20

// Link returns the address that opens tree id.
func Link(baseURL, id string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return base + "/?id=" + url.QueryEscape(id)
}

// Export writes doc as an indented JSON snapshot.
func Export(w io.Writer, doc model.TreeData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Import reads a snapshot in any stored shape, normalizes it and validates
// the result. An unreadable snapshot is an error here, unlike a load.
func Import(r io.Reader) (model.TreeData, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxSnapshotBytes))
	if err != nil {
		return model.TreeData{}, fmt.Errorf("read snapshot: %w", err)
	}
	res := migrate.Decode(raw)
	if res.Err != nil {
		return model.TreeData{}, fmt.Errorf("decode snapshot: %w", res.Err)
	}
	if err := model.Validate(res.Doc); err != nil {
		return model.TreeData{}, err
	}
	return res.Doc, nil
}
