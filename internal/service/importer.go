package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/learning-tracker/internal/apperror"
	"github.com/sakif/learning-tracker/internal/model"
)

// Rejection explains why one import entry was dropped.
// Index is 1-based so it matches what a person counts in the file.
type Rejection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ImportResult is the typed outcome of validating (and possibly merging) an
// import file.
//
//   - Accepted: entries that passed validation, defaults filled in
//   - Rejected: entries dropped before anything was written
//   - Added:    accepted entries that made it into the collection
//   - Duplicates: accepted entries skipped because their id already existed
type ImportResult struct {
	Accepted   []model.Technology `json:"-"`
	Rejected   []Rejection        `json:"rejected"`
	Added      int                `json:"added"`
	Duplicates int                `json:"duplicates"`
}

// Message is the user-facing summary of the import.
func (r ImportResult) Message() string {
	var b strings.Builder
	fmt.Fprintf(&b, "imported %d technologies", r.Added)
	if r.Duplicates > 0 {
		fmt.Fprintf(&b, ", %d already present", r.Duplicates)
	}
	if n := len(r.Rejected); n > 0 {
		fmt.Fprintf(&b, ", dropped %d invalid entries", n)
		shown := r.Rejected
		if len(shown) > 3 {
			shown = shown[:3]
		}
		reasons := make([]string, 0, len(shown))
		for _, rej := range shown {
			reasons = append(reasons, fmt.Sprintf("entry %d: %s", rej.Index, rej.Reason))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(reasons, "; "))
	}
	return b.String()
}

// importEntry mirrors model.Technology with loose types, so one bad field
// rejects one entry instead of failing the whole decode.
type importEntry struct {
	ID          int64            `json:"id"`
	Description string           `json:"description"`
	Category    model.Category   `json:"category"`
	Status      model.Status     `json:"status"`
	Difficulty  model.Difficulty `json:"difficulty"`
	Resources   []string         `json:"resources"`
	Deadline    string           `json:"deadline"`
	CreatedAt   string           `json:"createdAt"`
	UpdatedAt   string           `json:"updatedAt"`
	CreatedBy   string           `json:"createdBy"`
}

// validateImport turns raw JSON into technology records.
//
// The payload as a whole must be a JSON array of objects; anything else is a
// MalformedImport error and nothing is accepted. Inside the array, an entry
// without a title string, with an unknown enum value, or with a repeated id
// is dropped with a reason. If every entry is dropped the import fails too.
//
// Entries without an id get one from ids; missing optional fields get the
// defaults from model.Technology.ApplyDefaults.
func validateImport(data []byte, now time.Time, ids *idGenerator) (ImportResult, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		if !json.Valid(data) {
			return ImportResult{}, apperror.MalformedImport("import file is not valid JSON", err)
		}
		return ImportResult{}, apperror.MalformedImport("expected an array of technologies", err)
	}

	result := ImportResult{Accepted: make([]model.Technology, 0, len(raw))}
	seen := make(map[int64]bool, len(raw))

	for i, item := range raw {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			return ImportResult{}, apperror.MalformedImport(
				fmt.Sprintf("expected an array of objects, entry %d is not an object", i+1), err)
		}

		tech, reason := decodeEntry(fields, item, now)
		if reason == "" && tech.ID != 0 && seen[tech.ID] {
			reason = fmt.Sprintf("duplicate id %d", tech.ID)
		}
		if reason != "" {
			result.Rejected = append(result.Rejected, Rejection{Index: i + 1, Reason: reason})
			continue
		}

		if tech.ID == 0 {
			tech.ID = ids.Next()
		} else {
			ids.Observe(tech.ID)
		}
		seen[tech.ID] = true
		result.Accepted = append(result.Accepted, tech)
	}

	if len(raw) > 0 && len(result.Accepted) == 0 {
		first := result.Rejected[0]
		return result, apperror.MalformedImport(
			fmt.Sprintf("no valid technologies found (%d dropped, entry %d: %s)",
				len(result.Rejected), first.Index, first.Reason), nil)
	}

	return result, nil
}

// decodeEntry validates one object. A non-empty reason means "drop it".
func decodeEntry(fields map[string]json.RawMessage, item []byte, now time.Time) (model.Technology, string) {
	var title string
	rawTitle, ok := fields["title"]
	if !ok || json.Unmarshal(rawTitle, &title) != nil || strings.TrimSpace(title) == "" {
		return model.Technology{}, "each entry needs a title"
	}

	var e importEntry
	if err := json.Unmarshal(item, &e); err != nil {
		return model.Technology{}, fmt.Sprintf("invalid field: %v", err)
	}

	if e.Category != "" && !e.Category.Valid() {
		return model.Technology{}, fmt.Sprintf("unknown category %q", e.Category)
	}
	if e.Status != "" && !e.Status.Valid() {
		return model.Technology{}, fmt.Sprintf("unknown status %q", e.Status)
	}
	if e.Difficulty != "" && !e.Difficulty.Valid() {
		return model.Technology{}, fmt.Sprintf("unknown difficulty %q", e.Difficulty)
	}

	tech := model.Technology{
		ID:          e.ID,
		Title:       strings.TrimSpace(title),
		Description: e.Description,
		Category:    e.Category,
		Status:      e.Status,
		Difficulty:  e.Difficulty,
		Resources:   cleanResources(e.Resources),
		CreatedBy:   e.CreatedBy,
		CreatedAt:   parseTimestamp(e.CreatedAt),
		UpdatedAt:   parseTimestamp(e.UpdatedAt),
	}
	if e.Deadline != "" {
		d, err := model.ParseDate(e.Deadline)
		if err != nil {
			return model.Technology{}, fmt.Sprintf("invalid deadline %q", e.Deadline)
		}
		tech.Deadline = &d
	}
	if e.ID < 0 {
		return model.Technology{}, fmt.Sprintf("invalid id %d", e.ID)
	}

	tech.ApplyDefaults(now)
	return tech, ""
}

// parseTimestamp is lenient: anything unparsable becomes the zero time and
// ApplyDefaults fills it in.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// cleanResources trims, drops blanks and removes duplicates, keeping order.
func cleanResources(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, r := range in {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
