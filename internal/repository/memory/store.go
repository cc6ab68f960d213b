// Package memory provides a mutex-guarded in-memory implementation of the
// repository contracts. It backs the test suite and DSN-less development
// runs; transactions run against a shadow copy of the store that is swapped
// in only on success, so readers of the live store never observe
// uncommitted partial writes.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/bounty-service/internal/domain"
	"github.com/spec-kit/bounty-service/internal/repository"
)

// Store holds all record kinds behind one lock.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users       map[string]domain.UserProfile
	bounties    map[string]domain.Bounty
	submissions map[string]domain.Submission
	audit       []domain.AuditLogEntry
	resets      map[string]repository.PasswordResetToken

	// lastStamp keeps ledger timestamps monotonically non-decreasing even
	// when the wall clock reports equal instants.
	lastStamp time.Time
}

// NewStore initializes an empty store.
func NewStore() *Store {
	return &Store{
		users:       make(map[string]domain.UserProfile),
		bounties:    make(map[string]domain.Bounty),
		submissions: make(map[string]domain.Submission),
		resets:      make(map[string]repository.PasswordResetToken),
	}
}

// Repositories exposes the store through the repository contracts.
func (s *Store) Repositories() repository.Store {
	return repository.Store{
		Users:       &userRepo{s: s},
		Bounties:    &bountyRepo{s: s},
		Submissions: &submissionRepo{s: s},
		Audit:       &auditRepo{s: s},
		Resets:      &resetRepo{s: s},
	}
}

// WithinTx serializes writers and runs fn against a shadow copy of the
// store. The swap back into the live store is the commit point; a failed fn
// leaves the live store untouched.
func (s *Store) WithinTx(_ context.Context, fn func(repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	state := s.snapshot()
	shadow := &Store{
		users:       state.users,
		bounties:    state.bounties,
		submissions: state.submissions,
		audit:       state.audit,
		resets:      state.resets,
		lastStamp:   state.lastStamp,
	}
	if err := fn(shadow.Repositories()); err != nil {
		return err
	}
	s.restore(storeState{
		users:       shadow.users,
		bounties:    shadow.bounties,
		submissions: shadow.submissions,
		audit:       shadow.audit,
		resets:      shadow.resets,
		lastStamp:   shadow.lastStamp,
	})
	return nil
}

type storeState struct {
	users       map[string]domain.UserProfile
	bounties    map[string]domain.Bounty
	submissions map[string]domain.Submission
	audit       []domain.AuditLogEntry
	resets      map[string]repository.PasswordResetToken
	lastStamp   time.Time
}

func (s *Store) snapshot() storeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storeState{
		users:       cloneMap(s.users),
		bounties:    cloneMap(s.bounties),
		submissions: cloneMap(s.submissions),
		audit:       append([]domain.AuditLogEntry(nil), s.audit...),
		resets:      cloneMap(s.resets),
		lastStamp:   s.lastStamp,
	}
}

func (s *Store) restore(state storeState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = state.users
	s.bounties = state.bounties
	s.submissions = state.submissions
	s.audit = state.audit
	s.resets = state.resets
	s.lastStamp = state.lastStamp
}

func cloneMap[V any](src map[string]V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// now must be called with s.mu held.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.lastStamp) {
		t = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = t
	return t
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, profile *domain.UserProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	profile.CreatedAt = r.s.now()
	r.s.users[profile.ID] = *profile
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.UserProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	profile, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &profile, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.UserProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, profile := range r.s.users {
		if profile.Email == email {
			p := profile
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) UpdatePayoutAddress(_ context.Context, id, address string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	profile, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	profile.PayoutAddress = &address
	r.s.users[id] = profile
	return nil
}

func (r *userRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	profile, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	profile.PasswordHash = hash
	r.s.users[id] = profile
	return nil
}

type bountyRepo struct{ s *Store }

func (r *bountyRepo) Create(_ context.Context, bounty *domain.Bounty) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if bounty.ID == "" {
		bounty.ID = uuid.NewString()
	}
	bounty.CreatedAt = r.s.now()
	r.s.bounties[bounty.ID] = *bounty
	return nil
}

func (r *bountyRepo) GetByID(_ context.Context, id string) (*domain.Bounty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	bounty, ok := r.s.bounties[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &bounty, nil
}

func (r *bountyRepo) ListOpen(_ context.Context) ([]domain.Bounty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Bounty
	for _, bounty := range r.s.bounties {
		if bounty.Status == domain.BountyStatusOpen {
			result = append(result, bounty)
		}
	}
	sortBountiesDesc(result)
	return result, nil
}

func (r *bountyRepo) ListByCompany(_ context.Context, companyID string) ([]domain.Bounty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Bounty
	for _, bounty := range r.s.bounties {
		if bounty.CompanyID == companyID {
			result = append(result, bounty)
		}
	}
	sortBountiesDesc(result)
	return result, nil
}

func (r *bountyRepo) CloseWithWinner(_ context.Context, bountyID, winnerID, submissionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	bounty, ok := r.s.bounties[bountyID]
	if !ok {
		return repository.ErrNotFound
	}
	if bounty.Status != domain.BountyStatusOpen && bounty.Status != domain.BountyStatusReviewing {
		return repository.ErrStatusConflict
	}
	bounty.Status = domain.BountyStatusClosed
	bounty.WinnerID = &winnerID
	bounty.WinningSubmissionID = &submissionID
	r.s.bounties[bountyID] = bounty
	return nil
}

func (r *bountyRepo) MarkPaid(_ context.Context, bountyID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	bounty, ok := r.s.bounties[bountyID]
	if !ok {
		return repository.ErrNotFound
	}
	if bounty.Status != domain.BountyStatusClosed {
		return repository.ErrStatusConflict
	}
	bounty.Status = domain.BountyStatusPaid
	r.s.bounties[bountyID] = bounty
	return nil
}

type submissionRepo struct{ s *Store }

func (r *submissionRepo) Create(_ context.Context, submission *domain.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	bounty, ok := r.s.bounties[submission.BountyID]
	if !ok || bounty.Status != domain.BountyStatusOpen {
		return repository.ErrStatusConflict
	}
	for _, existing := range r.s.submissions {
		if existing.BountyID == submission.BountyID &&
			existing.DeveloperID == submission.DeveloperID &&
			existing.Status.Active() {
			return repository.ErrStatusConflict
		}
	}
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	submission.SubmittedAt = r.s.now()
	r.s.submissions[submission.ID] = *submission
	return nil
}

func (r *submissionRepo) GetByID(_ context.Context, id string) (*domain.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	submission, ok := r.s.submissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &submission, nil
}

func (r *submissionRepo) ListByBounty(_ context.Context, bountyID string) ([]domain.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Submission
	for _, submission := range r.s.submissions {
		if submission.BountyID == bountyID {
			result = append(result, submission)
		}
	}
	sortSubmissionsDesc(result)
	return result, nil
}

func (r *submissionRepo) ListByDeveloper(_ context.Context, developerID string) ([]domain.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Submission
	for _, submission := range r.s.submissions {
		if submission.DeveloperID == developerID {
			result = append(result, submission)
		}
	}
	sortSubmissionsDesc(result)
	return result, nil
}

func (r *submissionRepo) HasActiveForDeveloper(_ context.Context, bountyID, developerID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, submission := range r.s.submissions {
		if submission.BountyID == bountyID && submission.DeveloperID == developerID && submission.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (r *submissionRepo) MarkWinner(_ context.Context, submissionID, bountyID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	submission, ok := r.s.submissions[submissionID]
	if !ok {
		return repository.ErrNotFound
	}
	if submission.BountyID != bountyID || submission.Status != domain.SubmissionStatusPendingReview {
		return repository.ErrStatusConflict
	}
	submission.Status = domain.SubmissionStatusWinner
	r.s.submissions[submissionID] = submission
	return nil
}

type auditRepo struct{ s *Store }

func (r *auditRepo) Append(_ context.Context, entry *domain.AuditLogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = uuid.NewString()
	entry.Timestamp = r.s.now()
	r.s.audit = append(r.s.audit, *entry)
	return nil
}

func (r *auditRepo) List(_ context.Context, limit int) ([]domain.AuditLogEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := append([]domain.AuditLogEntry(nil), r.s.audit...)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type resetRepo struct{ s *Store }

func (r *resetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	token.CreatedAt = r.s.now()
	r.s.resets[token.Token] = *token
	return nil
}

func (r *resetRepo) GetByToken(_ context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	token, ok := r.s.resets[tokenStr]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &token, nil
}

func (r *resetRepo) MarkUsed(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for key, token := range r.s.resets {
		if token.ID == id {
			now := r.s.now()
			token.UsedAt = &now
			r.s.resets[key] = token
			return nil
		}
	}
	return repository.ErrNotFound
}

func sortBountiesDesc(bounties []domain.Bounty) {
	sort.SliceStable(bounties, func(i, j int) bool {
		return bounties[i].CreatedAt.After(bounties[j].CreatedAt)
	})
}

func sortSubmissionsDesc(submissions []domain.Submission) {
	sort.SliceStable(submissions, func(i, j int) bool {
		return submissions[i].SubmittedAt.After(submissions[j].SubmittedAt)
	})
}
