package service

import (
	"context"
	"fmt"
	"time"

	"taskminder/internal/models"
)

// In-memory store fakes used across the service tests. They mirror the
// repository semantics: lookups return (nil, nil) when no row exists, and
// the conditional writes report whether they won.

type fakeOtpStore struct {
	challenges map[string]*models.OtpChallenge
}

func newFakeOtpStore() *fakeOtpStore {
	return &fakeOtpStore{challenges: make(map[string]*models.OtpChallenge)}
}

func otpKey(userID int64, purpose string) string {
	return fmt.Sprintf("%d/%s", userID, purpose)
}

func (f *fakeOtpStore) Get(userID int64, purpose string) (*models.OtpChallenge, error) {
	ch, ok := f.challenges[otpKey(userID, purpose)]
	if !ok {
		return nil, nil
	}
	copied := *ch
	return &copied, nil
}

func (f *fakeOtpStore) Replace(ch *models.OtpChallenge, notBefore time.Time) (bool, error) {
	key := otpKey(ch.UserID, ch.Purpose)
	if existing, ok := f.challenges[key]; ok && existing.IssuedAt.After(notBefore) {
		return false, nil
	}
	copied := *ch
	f.challenges[key] = &copied
	return true, nil
}

func (f *fakeOtpStore) Put(ch *models.OtpChallenge) error {
	copied := *ch
	f.challenges[otpKey(ch.UserID, ch.Purpose)] = &copied
	return nil
}

func (f *fakeOtpStore) MarkConsumed(userID int64, purpose, code string) (bool, error) {
	ch, ok := f.challenges[otpKey(userID, purpose)]
	if !ok || ch.Consumed || ch.Code != code {
		return false, nil
	}
	ch.Consumed = true
	return true, nil
}

func (f *fakeOtpStore) Delete(userID int64, purpose string) error {
	delete(f.challenges, otpKey(userID, purpose))
	return nil
}

type fakeUserStore struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*models.User), nextID: 1}
}

func (f *fakeUserStore) CreateUser(email, passwordHash, name string) (*models.User, error) {
	user := &models.User{
		ID:           f.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    time.Now(),
	}
	f.users[user.ID] = user
	f.nextID++
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) GetUserByEmail(email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetUserByID(id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) MarkVerified(id int64) error {
	if u, ok := f.users[id]; ok {
		u.IsVerified = true
	}
	return nil
}

func (f *fakeUserStore) UpdatePassword(id int64, passwordHash string) error {
	if u, ok := f.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (f *fakeUserStore) UpdateSignupDetails(id int64, passwordHash, name string) error {
	if u, ok := f.users[id]; ok {
		u.PasswordHash = passwordHash
		u.Name = name
	}
	return nil
}

func (f *fakeUserStore) UpdateProfile(id int64, name, profilePicture string) error {
	if u, ok := f.users[id]; ok {
		u.Name = name
		u.ProfilePicture = profilePicture
	}
	return nil
}

func (f *fakeUserStore) DeleteUser(id int64) error {
	delete(f.users, id)
	return nil
}

type fakeGrantStore struct {
	grants map[string]*models.ResetGrant
}

func newFakeGrantStore() *fakeGrantStore {
	return &fakeGrantStore{grants: make(map[string]*models.ResetGrant)}
}

func (f *fakeGrantStore) Create(token string, userID int64, expiresAt time.Time) error {
	f.grants[token] = &models.ResetGrant{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (f *fakeGrantStore) Get(token string) (*models.ResetGrant, error) {
	g, ok := f.grants[token]
	if !ok {
		return nil, nil
	}
	copied := *g
	return &copied, nil
}

func (f *fakeGrantStore) MarkUsed(token string) (bool, error) {
	g, ok := f.grants[token]
	if !ok || g.Used {
		return false, nil
	}
	g.Used = true
	return true, nil
}

func (f *fakeGrantStore) DeleteForUser(userID int64) error {
	for token, g := range f.grants {
		if g.UserID == userID {
			delete(f.grants, token)
		}
	}
	return nil
}

func (f *fakeGrantStore) DeleteExpired() error {
	now := time.Now()
	for token, g := range f.grants {
		if g.IsExpired(now) {
			delete(f.grants, token)
		}
	}
	return nil
}

// fakeDeliverer records outbound email and can be set to fail
type fakeDeliverer struct {
	otpCodes  []string
	reminders []int64
	failSends bool
	failTask  int64
}

func (f *fakeDeliverer) SendOtpEmail(ctx context.Context, toEmail, toName, code, purpose string, expiresAt time.Time) error {
	if f.failSends {
		return fmt.Errorf("smtp unreachable")
	}
	f.otpCodes = append(f.otpCodes, code)
	return nil
}

func (f *fakeDeliverer) SendReminderEmail(ctx context.Context, toEmail, toName string, task *models.Task) error {
	if f.failSends || (f.failTask != 0 && f.failTask == task.ID) {
		return fmt.Errorf("smtp unreachable")
	}
	f.reminders = append(f.reminders, task.ID)
	return nil
}

// lastOtpCode returns the most recently delivered code
func (f *fakeDeliverer) lastOtpCode() string {
	if len(f.otpCodes) == 0 {
		return ""
	}
	return f.otpCodes[len(f.otpCodes)-1]
}

type fakeTaskStore struct {
	tasks      map[int64]*models.Task
	owners     map[int64]*models.User
	dispatched map[string]bool
	nextID     int64
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{
		tasks:      make(map[int64]*models.Task),
		owners:     make(map[int64]*models.User),
		dispatched: make(map[string]bool),
		nextID:     1,
	}
}

func (f *fakeTaskStore) CreateTask(task *models.Task) (*models.Task, error) {
	copied := *task
	copied.ID = f.nextID
	copied.CreatedAt = time.Now()
	f.nextID++
	f.tasks[copied.ID] = &copied
	result := copied
	return &result, nil
}

func (f *fakeTaskStore) GetTaskByID(id int64) (*models.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTaskStore) GetTasksByOwner(userID int64) ([]models.Task, error) {
	var out []models.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) UpdateTask(task *models.Task) error {
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskStore) DeleteTask(id int64) error {
	delete(f.tasks, id)
	return nil
}

func dispatchKey(taskID int64, deadline time.Time) string {
	return fmt.Sprintf("%d/%d", taskID, deadline.Unix())
}

// FindReminderCandidates mirrors the repository eligibility query: window
// open, not completed, no dispatch record for the current deadline
func (f *fakeTaskStore) FindReminderCandidates(now time.Time) ([]models.ReminderCandidate, error) {
	var out []models.ReminderCandidate
	for _, t := range f.tasks {
		if t.Completed || !t.ReminderWindowOpen(now) {
			continue
		}
		if f.dispatched[dispatchKey(t.ID, t.Deadline)] {
			continue
		}
		owner := f.owners[t.UserID]
		if owner == nil {
			owner = &models.User{ID: t.UserID, Email: "owner@example.com", Name: "Owner"}
		}
		out = append(out, models.ReminderCandidate{
			Task:       *t,
			OwnerEmail: owner.Email,
			OwnerName:  owner.Name,
		})
	}
	return out, nil
}

func (f *fakeTaskStore) Record(taskID int64, deadline, dispatchedAt time.Time) (bool, error) {
	key := dispatchKey(taskID, deadline)
	if f.dispatched[key] {
		return false, nil
	}
	f.dispatched[key] = true
	return true, nil
}
