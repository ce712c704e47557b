package core

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// uriPattern matches the canonical form root/type:id with an optional
// @version suffix. Root may be empty; type and id must be non-empty.
var uriPattern = regexp.MustCompile(`^([^/]*)/([^:@/]+):([^:@]+)(?:@(\d+))?$`)

// LatestVersion is the sentinel version meaning "newest known version".
const LatestVersion = 0

// PageURI identifies a versioned page using the root/type:id@version scheme.
//
// A zero Version means "latest": the router resolves it to the newest known
// version for (root, type, id), defaulting to 1 when the page has never been
// materialized. Concrete versions start at 1.
//
// PageURI is a comparable value type and can be used directly as a map key.
type PageURI struct {
	Root    string `json:"root"`    // Root identifier for the owning context
	Type    string `json:"type"`    // Page type, selects the handler
	ID      string `json:"id"`      // Unique identifier within the type
	Version int    `json:"version"` // Version number; 0 means latest
}

// NewPageURI constructs a validated PageURI. Type must not contain '/', ':'
// or '@'; ID must not contain ':' or '@'; version must be non-negative.
func NewPageURI(root, pageType, id string, version int) (PageURI, error) {
	if pageType == "" || strings.ContainsAny(pageType, "/:@") {
		return PageURI{}, &ValidationError{
			Field:   "type",
			Value:   pageType,
			Message: "type must be non-empty and must not contain '/', ':' or '@'",
		}
	}
	if id == "" || strings.ContainsAny(id, ":@") {
		return PageURI{}, &ValidationError{
			Field:   "id",
			Value:   id,
			Message: "id must be non-empty and must not contain ':' or '@'",
		}
	}
	if version < 0 {
		return PageURI{}, &ValidationError{
			Field:   "version",
			Value:   version,
			Message: "version must be non-negative",
		}
	}
	return PageURI{Root: root, Type: pageType, ID: id, Version: version}, nil
}

// MustPageURI parses the canonical string form and panics on invalid input.
// Test and setup helper.
func MustPageURI(s string) PageURI {
	uri, err := ParsePageURI(s)
	if err != nil {
		panic(err)
	}
	return uri
}

// ParsePageURI parses the canonical string form root/type:id@version. The
// version suffix is optional; when absent the returned URI has Version 0
// ("latest"). ParsePageURI is the left inverse of PageURI.String.
func ParsePageURI(s string) (PageURI, error) {
	m := uriPattern.FindStringSubmatch(s)
	if m == nil {
		return PageURI{}, &ValidationError{
			Field:   "uri",
			Value:   s,
			Message: "invalid URI format, expected root/type:id or root/type:id@version",
		}
	}

	version := 0
	if m[4] != "" {
		v, err := strconv.Atoi(m[4])
		if err != nil {
			return PageURI{}, &ValidationError{
				Field:   "version",
				Value:   m[4],
				Message: "invalid version number",
			}
		}
		version = v
	}

	return NewPageURI(m[1], m[2], m[3], version)
}

// String returns the canonical form root/type:id@version. The @version
// suffix is omitted for "latest" URIs (Version 0).
func (u PageURI) String() string {
	if u.Version == 0 {
		return fmt.Sprintf("%s/%s:%s", u.Root, u.Type, u.ID)
	}
	return fmt.Sprintf("%s/%s:%s@%d", u.Root, u.Type, u.ID, u.Version)
}

// Prefix returns root/type:id without any version suffix. Used as the
// grouping key when tracking the latest version of a page.
func (u PageURI) Prefix() string {
	return fmt.Sprintf("%s/%s:%s", u.Root, u.Type, u.ID)
}

// WithVersion returns a copy of the URI pinned to the given version.
func (u PageURI) WithVersion(version int) PageURI {
	u.Version = version
	return u
}

// IsZero reports whether the URI is the zero value.
func (u PageURI) IsZero() bool {
	return u == PageURI{}
}

// MarshalJSON serializes the URI as its canonical string form.
func (u PageURI) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON accepts either the canonical string form or the expanded
// object form {root, type, id, version}.
func (u *PageURI) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParsePageURI(s)
		if err != nil {
			return err
		}
		*u = parsed
		return nil
	}

	var obj struct {
		Root    string `json:"root"`
		Type    string `json:"type"`
		ID      string `json:"id"`
		Version int    `json:"version"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	parsed, err := NewPageURI(obj.Root, obj.Type, obj.ID, obj.Version)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
