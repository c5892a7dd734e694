// Package service contains the business logic layer of the application.
//
// THE LAYERS:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes blobs in the key-value store
//
// READ-MODIFY-WRITE:
// Every store here keeps its whole collection as ONE JSON blob. A mutation
// reads the blob, changes the decoded value in memory, and writes the whole
// blob back immediately. There is no partial persistence and no write-behind,
// so there is no dirty state to lose. A mutex per service makes each
// read-modify-write atomic with respect to concurrent HTTP requests.
//
// FAILURES DEGRADE, THEY DON'T CRASH:
// Reads fail soft (an unreadable or corrupt blob is an empty collection).
// A failed write returns an apperror.ErrStorage with a user-facing message,
// and because the write is the LAST step, nothing was changed.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sakif/learning-tracker/internal/apperror"
	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/repository"
	"github.com/sakif/learning-tracker/internal/task"
)

// Validation constants.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 2000
)

// IdentitySource is the slice of the session the record store needs: who is
// logged in right now, to stamp CreatedBy.
type IdentitySource interface {
	Current() (model.Identity, bool)
}

// TechnologyOptions tunes a TechnologyService. The zero value is fine for tests.
type TechnologyOptions struct {
	// Clock defaults to time.Now.
	Clock Clock
	// Latency simulates a slow backend on Load, Append and Search.
	Latency time.Duration
}

// TechnologyService is the record store for technologies.
type TechnologyService struct {
	kv       repository.KeyValueStore
	identity IdentitySource
	logger   *slog.Logger
	now      Clock
	latency  time.Duration
	ids      *idGenerator

	mu sync.Mutex
}

// NewTechnologyService wires a record store. identity may be nil, in which
// case CreatedBy is never stamped.
func NewTechnologyService(
	kv repository.KeyValueStore,
	identity IdentitySource,
	logger *slog.Logger,
	opts TechnologyOptions,
) *TechnologyService {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &TechnologyService{
		kv:       kv,
		identity: identity,
		logger:   logger,
		now:      now,
		latency:  opts.Latency,
		ids:      newIDGenerator(now),
	}
}

// TechnologyInput is what a caller supplies to create a technology.
type TechnologyInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Category    model.Category   `json:"category"`
	Status      model.Status     `json:"status"`
	Difficulty  model.Difficulty `json:"difficulty"`
	Resources   []string         `json:"resources"`
	Deadline    *model.Date      `json:"deadline"`
}

// TechnologyPatch lists the fields to change. nil means "leave as is".
type TechnologyPatch struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Category    *model.Category   `json:"category"`
	Status      *model.Status     `json:"status"`
	Difficulty  *model.Difficulty `json:"difficulty"`
	Resources   *[]string         `json:"resources"`
	Deadline    *model.Date       `json:"deadline"` // "" clears it
	// ClearDeadline removes the deadline; it wins over Deadline.
	ClearDeadline bool `json:"clearDeadline"`
}

// =========================================================================
// READS
// =========================================================================

// Load returns the whole collection. It never fails on storage problems:
// a missing key, an unreadable store or a corrupt blob all yield an empty
// collection (and a warning in the log). The only error is ctx being done
// while the simulated latency runs.
func (s *TechnologyService) Load(ctx context.Context) ([]model.Technology, error) {
	if err := task.Delay(ctx, s.latency); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	techs, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("technologies unavailable, using empty collection",
			slog.String("error", err.Error()),
		)
		return []model.Technology{}, nil
	}
	return techs, nil
}

// Get returns one technology, or apperror.ErrNotFound.
func (s *TechnologyService) Get(ctx context.Context, id int64) (*model.Technology, error) {
	techs, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range techs {
		if techs[i].ID == id {
			return &techs[i], nil
		}
	}
	return nil, apperror.NotFound("technology", strconv.FormatInt(id, 10))
}

// Search matches query case-insensitively against title, description and
// category. An empty query matches nothing. The collection is re-read on
// every call; there is no search index.
func (s *TechnologyService) Search(ctx context.Context, query string) ([]model.Technology, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []model.Technology{}, nil
	}

	techs, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]model.Technology, 0, len(techs))
	for _, t := range techs {
		if strings.Contains(strings.ToLower(t.Title), query) ||
			strings.Contains(strings.ToLower(t.Description), query) ||
			strings.Contains(strings.ToLower(string(t.Category)), query) {
			matches = append(matches, t)
		}
	}
	return matches, nil
}

// Statistics recomputes the aggregate counters from the full collection.
func (s *TechnologyService) Statistics(ctx context.Context) (model.Statistics, error) {
	techs, err := s.Load(ctx)
	if err != nil {
		return model.Statistics{}, err
	}

	stats := model.Statistics{
		Total:        len(techs),
		ByCategory:   make(map[model.Category]int),
		ByDifficulty: make(map[model.Difficulty]int),
	}
	for _, t := range techs {
		switch t.Status {
		case model.StatusCompleted:
			stats.Completed++
		case model.StatusInProgress:
			stats.InProgress++
		default:
			stats.NotStarted++
		}
		stats.ByCategory[t.Category]++
		stats.ByDifficulty[t.Difficulty]++
	}
	if stats.Total > 0 {
		stats.CompletionPercent = int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
	}
	return stats, nil
}

// =========================================================================
// WRITES
// =========================================================================

// Append validates input, assigns a fresh id and persists the new record.
func (s *TechnologyService) Append(ctx context.Context, in TechnologyInput) (*model.Technology, error) {
	now := s.now()

	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if len(in.Description) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if err := validateEnums(in.Category, in.Status, in.Difficulty); err != nil {
		return nil, err
	}
	if err := validateDeadline(in.Deadline, now); err != nil {
		return nil, err
	}
	resources, err := validateResources(in.Resources)
	if err != nil {
		return nil, err
	}

	if err := task.Delay(ctx, s.latency); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	techs, err := s.readForWrite(ctx)
	if err != nil {
		return nil, err
	}

	tech := model.Technology{
		ID:          s.ids.Next(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Status:      in.Status,
		Difficulty:  in.Difficulty,
		Resources:   resources,
		Deadline:    in.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if s.identity != nil {
		if who, ok := s.identity.Current(); ok {
			tech.CreatedBy = who.DisplayName()
		}
	}
	tech.ApplyDefaults(now)

	if err := s.write(ctx, append(techs, tech)); err != nil {
		return nil, err
	}

	s.logger.Info("technology added",
		slog.Int64("id", tech.ID),
		slog.String("title", tech.Title),
	)
	return &tech, nil
}

// UpdateByID merges patch into the record with the given id.
//
// An unknown id is NOT an error: the result is (nil, nil) and nothing is
// written, so the stored blob stays byte-for-byte the same.
func (s *TechnologyService) UpdateByID(ctx context.Context, id int64, patch TechnologyPatch) (*model.Technology, error) {
	if err := s.validatePatch(patch); err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(t *model.Technology) error {
		applyPatch(t, patch)
		return nil
	})
}

// SetStatus is the single-record status change from the detail view.
func (s *TechnologyService) SetStatus(ctx context.Context, id int64, status model.Status) (*model.Technology, error) {
	return s.UpdateByID(ctx, id, TechnologyPatch{Status: &status})
}

// BulkSetStatus sets status on every listed id that exists and reports how
// many records changed. Unknown ids are skipped silently.
func (s *TechnologyService) BulkSetStatus(ctx context.Context, ids []int64, status model.Status) (int, error) {
	if len(ids) == 0 {
		return 0, apperror.ValidationFailed("ids", "select at least one technology")
	}
	if !status.Valid() {
		return 0, apperror.ValidationFailed("status", fmt.Sprintf("unknown status %q", status))
	}

	selected := make(map[int64]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	techs, err := s.readForWrite(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	updated := 0
	for i := range techs {
		if selected[techs[i].ID] {
			techs[i].Status = status
			techs[i].UpdatedAt = now
			updated++
		}
	}
	if updated == 0 {
		return 0, nil
	}

	if err := s.write(ctx, techs); err != nil {
		return 0, err
	}

	s.logger.Info("bulk status update",
		slog.Int("updated", updated),
		slog.String("status", string(status)),
	)
	return updated, nil
}

// AddResource appends url to the record's resources. A url that is already
// attached is rejected with apperror.ErrConflict. Unknown id → (nil, nil).
func (s *TechnologyService) AddResource(ctx context.Context, id int64, rawURL string) (*model.Technology, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(t *model.Technology) error {
		if t.HasResource(rawURL) {
			return &apperror.AppError{
				Err:     apperror.ErrConflict,
				Message: "this resource is already added",
				Field:   "resources",
			}
		}
		t.Resources = append(t.Resources, rawURL)
		return nil
	})
}

// RemoveResource drops url from the record's resources. Removing a url that
// isn't attached returns the record unchanged without writing.
func (s *TechnologyService) RemoveResource(ctx context.Context, id int64, rawURL string) (*model.Technology, error) {
	rawURL = strings.TrimSpace(rawURL)

	s.mu.Lock()
	defer s.mu.Unlock()

	techs, err := s.readForWrite(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOf(techs, id)
	if idx < 0 {
		return nil, nil
	}
	t := &techs[idx]
	if !t.HasResource(rawURL) {
		return t, nil
	}

	kept := make([]string, 0, len(t.Resources))
	for _, r := range t.Resources {
		if r != rawURL {
			kept = append(kept, r)
		}
	}
	t.Resources = kept
	t.UpdatedAt = s.now()

	if err := s.write(ctx, techs); err != nil {
		return nil, err
	}
	return t, nil
}

// RemoveByID deletes the record with the given id. It reports whether a
// record was removed; an unknown id writes nothing.
func (s *TechnologyService) RemoveByID(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	techs, err := s.readForWrite(ctx)
	if err != nil {
		return false, err
	}

	idx := indexOf(techs, id)
	if idx < 0 {
		return false, nil
	}
	techs = append(techs[:idx], techs[idx+1:]...)

	if err := s.write(ctx, techs); err != nil {
		return false, err
	}

	s.logger.Info("technology removed", slog.Int64("id", id))
	return true, nil
}

// ReplaceAll overwrites the collection with records. Records without a title
// are dropped, the rest get defaults. It returns what was stored.
func (s *TechnologyService) ReplaceAll(ctx context.Context, records []model.Technology) ([]model.Technology, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("service/technology: encoding records: %w", err)
	}
	result, err := s.Restore(ctx, data)
	if err != nil {
		return nil, err
	}
	return result.Accepted, nil
}

// Restore validates raw JSON (an array of objects) and replaces the whole
// collection with the accepted entries.
func (s *TechnologyService) Restore(ctx context.Context, data []byte) (ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := validateImport(data, s.now(), s.ids)
	if err != nil {
		return result, err
	}

	if err := s.write(ctx, result.Accepted); err != nil {
		return ImportResult{}, err
	}
	result.Added = len(result.Accepted)

	s.logger.Info("technologies replaced",
		slog.Int("stored", result.Added),
		slog.Int("dropped", len(result.Rejected)),
	)
	return result, nil
}

// MergeImported adds incoming records whose id is not already present.
// Colliding ids keep the EXISTING record. Records without an id get a fresh
// one. It returns how many records were added.
func (s *TechnologyService) MergeImported(ctx context.Context, incoming []model.Technology) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, _, err := s.mergeLocked(ctx, incoming)
	return added, err
}

// Import validates raw JSON and merges the accepted entries. Malformed input
// aborts before anything is written.
func (s *TechnologyService) Import(ctx context.Context, data []byte) (ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := validateImport(data, s.now(), s.ids)
	if err != nil {
		return result, err
	}

	added, dupes, err := s.mergeLocked(ctx, result.Accepted)
	if err != nil {
		return ImportResult{}, err
	}
	result.Added = added
	result.Duplicates = dupes

	s.logger.Info("technologies imported",
		slog.Int("added", added),
		slog.Int("duplicates", dupes),
		slog.Int("dropped", len(result.Rejected)),
	)
	return result, nil
}

// Export returns the collection as indented JSON plus a dated file name.
func (s *TechnologyService) Export(ctx context.Context) ([]byte, string, error) {
	techs, err := s.Load(ctx)
	if err != nil {
		return nil, "", err
	}
	data, err := json.MarshalIndent(techs, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("service/technology: encoding export: %w", err)
	}
	name := fmt.Sprintf("technologies_%s.json", s.now().Format(model.DateLayout))
	return data, name, nil
}

// SeedDemoData writes the starter collection if nothing was ever stored.
// An existing (even empty) collection is left alone.
func (s *TechnologyService) SeedDemoData(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok, err := s.kv.Get(ctx, repository.KeyTechnologies)
	if err != nil {
		return false, apperror.Storage("could not read technologies", err)
	}
	if ok {
		return false, nil
	}

	now := s.now()
	seed := demoTechnologies()
	for i := range seed {
		seed[i].ApplyDefaults(now)
		s.ids.Observe(seed[i].ID)
	}
	if err := s.write(ctx, seed); err != nil {
		return false, err
	}

	s.logger.Info("seeded demo technologies", slog.Int("count", len(seed)))
	return true, nil
}

// =========================================================================
// HELPERS
// =========================================================================

// mutate runs fn on the record with id and persists the result, bumping
// UpdatedAt. Unknown id → (nil, nil) with no write. Caller must NOT hold mu.
func (s *TechnologyService) mutate(ctx context.Context, id int64, fn func(*model.Technology) error) (*model.Technology, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	techs, err := s.readForWrite(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOf(techs, id)
	if idx < 0 {
		return nil, nil
	}

	t := techs[idx]
	// copy so a failed fn can't touch the slice still held by techs
	t.Resources = append(make([]string, 0, len(t.Resources)), t.Resources...)
	if err := fn(&t); err != nil {
		return nil, err
	}
	t.UpdatedAt = s.now()
	techs[idx] = t

	if err := s.write(ctx, techs); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TechnologyService) mergeLocked(ctx context.Context, incoming []model.Technology) (added, dupes int, err error) {
	techs, err := s.readForWrite(ctx)
	if err != nil {
		return 0, 0, err
	}

	existing := make(map[int64]bool, len(techs)+len(incoming))
	for _, t := range techs {
		existing[t.ID] = true
	}

	now := s.now()
	for _, t := range incoming {
		if strings.TrimSpace(t.Title) == "" {
			continue
		}
		if t.ID == 0 {
			t.ID = s.ids.Next()
		}
		if existing[t.ID] {
			dupes++
			continue
		}
		s.ids.Observe(t.ID)
		t.ApplyDefaults(now)
		existing[t.ID] = true
		techs = append(techs, t)
		added++
	}

	if added == 0 {
		return 0, dupes, nil
	}
	if err := s.write(ctx, techs); err != nil {
		return 0, 0, err
	}
	return added, dupes, nil
}

// read loads and decodes the stored collection.
func (s *TechnologyService) read(ctx context.Context) ([]model.Technology, error) {
	raw, _, err := s.kv.Get(ctx, repository.KeyTechnologies)
	if err != nil {
		return nil, err
	}
	return s.decode(raw)
}

// decode parses a stored blob. An empty blob (missing key) is an empty collection.
func (s *TechnologyService) decode(raw string) ([]model.Technology, error) {
	if raw == "" {
		return []model.Technology{}, nil
	}

	var techs []model.Technology
	if err := json.Unmarshal([]byte(raw), &techs); err != nil {
		return nil, fmt.Errorf("service/technology: decoding stored technologies: %w", err)
	}

	now := s.now()
	for i := range techs {
		techs[i].ApplyDefaults(now)
		s.ids.Observe(techs[i].ID)
	}
	if techs == nil {
		techs = []model.Technology{}
	}
	return techs, nil
}

// readForWrite is read for mutations: an unreadable store aborts the write,
// a corrupt blob is treated as empty and will be overwritten.
func (s *TechnologyService) readForWrite(ctx context.Context) ([]model.Technology, error) {
	raw, _, err := s.kv.Get(ctx, repository.KeyTechnologies)
	if err != nil {
		s.logger.Error("failed to read technologies", slog.String("error", err.Error()))
		return nil, apperror.Storage("could not read technologies", err)
	}

	techs, err := s.decode(raw)
	if err != nil {
		s.logger.Warn("stored technologies are corrupt, starting from empty",
			slog.String("error", err.Error()),
		)
		return []model.Technology{}, nil
	}
	return techs, nil
}

func (s *TechnologyService) write(ctx context.Context, techs []model.Technology) error {
	if techs == nil {
		techs = []model.Technology{}
	}
	data, err := json.Marshal(techs)
	if err != nil {
		return fmt.Errorf("service/technology: encoding technologies: %w", err)
	}
	if err := s.kv.Set(ctx, repository.KeyTechnologies, string(data)); err != nil {
		s.logger.Error("failed to save technologies", slog.String("error", err.Error()))
		return apperror.Storage("could not save technologies", err)
	}
	return nil
}

func (s *TechnologyService) validatePatch(p TechnologyPatch) error {
	if p.Title != nil {
		if err := validateTitle(strings.TrimSpace(*p.Title)); err != nil {
			return err
		}
	}
	if p.Description != nil && len(*p.Description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	var cat model.Category
	var st model.Status
	var diff model.Difficulty
	if p.Category != nil {
		if *p.Category == "" {
			return apperror.ValidationFailed("category", "category must not be empty")
		}
		cat = *p.Category
	}
	if p.Status != nil {
		if *p.Status == "" {
			return apperror.ValidationFailed("status", "status must not be empty")
		}
		st = *p.Status
	}
	if p.Difficulty != nil {
		if *p.Difficulty == "" {
			return apperror.ValidationFailed("difficulty", "difficulty must not be empty")
		}
		diff = *p.Difficulty
	}
	if err := validateEnums(cat, st, diff); err != nil {
		return err
	}
	if !p.ClearDeadline {
		if err := validateDeadline(p.Deadline, s.now()); err != nil {
			return err
		}
	}
	if p.Resources != nil {
		if _, err := validateResources(*p.Resources); err != nil {
			return err
		}
	}
	return nil
}

func applyPatch(t *model.Technology, p TechnologyPatch) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Difficulty != nil {
		t.Difficulty = *p.Difficulty
	}
	if p.Resources != nil {
		t.Resources = cleanResources(*p.Resources)
	}
	switch {
	case p.ClearDeadline, p.Deadline != nil && p.Deadline.IsZero():
		t.Deadline = nil
	case p.Deadline != nil:
		d := *p.Deadline
		t.Deadline = &d
	}
}

func validateTitle(title string) error {
	if title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	return nil
}

// validateEnums accepts empty values (they become defaults).
func validateEnums(c model.Category, st model.Status, d model.Difficulty) error {
	if c != "" && !c.Valid() {
		return apperror.ValidationFailed("category", fmt.Sprintf("unknown category %q", c))
	}
	if st != "" && !st.Valid() {
		return apperror.ValidationFailed("status", fmt.Sprintf("unknown status %q", st))
	}
	if d != "" && !d.Valid() {
		return apperror.ValidationFailed("difficulty", fmt.Sprintf("unknown difficulty %q", d))
	}
	return nil
}

// validateDeadline rejects days before today. Today itself is allowed.
func validateDeadline(d *model.Date, now time.Time) error {
	if d == nil || d.IsZero() {
		return nil
	}
	if d.Before(now) {
		return apperror.ValidationFailed("deadline", "deadline cannot be in the past")
	}
	return nil
}

func validateResources(in []string) ([]string, error) {
	cleaned := cleanResources(in)
	for _, r := range cleaned {
		if err := validateURL(r); err != nil {
			return nil, err
		}
	}
	return cleaned, nil
}

func validateURL(raw string) error {
	if raw == "" {
		return apperror.ValidationFailed("resources", "resource URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperror.ValidationFailed("resources", fmt.Sprintf("%q is not a valid http(s) URL", raw))
	}
	return nil
}

func indexOf(techs []model.Technology, id int64) int {
	for i := range techs {
		if techs[i].ID == id {
			return i
		}
	}
	return -1
}

func demoTechnologies() []model.Technology {
	return []model.Technology{
		{
			ID:          1,
			Title:       "React",
			Description: "Library for building user interfaces",
			Category:    model.CategoryFrontend,
			Status:      model.StatusCompleted,
			Difficulty:  model.DifficultyBeginner,
			Resources:   []string{"https://react.dev", "https://ru.reactjs.org"},
		},
		{
			ID:          2,
			Title:       "Node.js",
			Description: "JavaScript runtime for the server",
			Category:    model.CategoryBackend,
			Status:      model.StatusInProgress,
			Difficulty:  model.DifficultyIntermediate,
			Resources:   []string{"https://nodejs.org", "https://nodejs.org/ru/docs/"},
		},
		{
			ID:          3,
			Title:       "TypeScript",
			Description: "Typed superset of JavaScript",
			Category:    model.CategoryLanguage,
			Status:      model.StatusNotStarted,
			Difficulty:  model.DifficultyIntermediate,
			Resources:   []string{"https://www.typescriptlang.org"},
		},
	}
}
