package mockapi

import (
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("mockapi: invalid email or password")
	ErrAccountNotFound    = errors.New("mockapi: account not found")
	ErrIncorrectPassword  = errors.New("mockapi: current password is incorrect")
	ErrDuplicateAccount   = errors.New("mockapi: account already exists")
)

type account struct {
	user           User
	hash           []byte
	firstTimeLogin bool
}

// Accounts is the in-memory credential store of the demo API.
type Accounts struct {
	cost int

	mu      sync.RWMutex
	byEmail map[string]*account
	byID    map[int64]*account

	// compared against when the email is unknown so both paths cost one bcrypt check
	dummy []byte
}

// NewAccounts returns an empty store hashing with the given bcrypt cost.
// cost outside bcrypt's range falls back to bcrypt.DefaultCost.
func NewAccounts(cost int) *Accounts {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return &Accounts{
		cost:    cost,
		byEmail: map[string]*account{},
		byID:    map[int64]*account{},
		dummy:   dummy,
	}
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Add registers u with password. firstTimeLogin forces a password change on the next sign-in.
func (a *Accounts) Add(u User, password string, firstTimeLogin bool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return err
	}
	email := normalizeEmail(u.Email)

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byEmail[email]; ok {
		return ErrDuplicateAccount
	}
	if _, ok := a.byID[u.ID]; ok {
		return ErrDuplicateAccount
	}
	acc := &account{user: cloneUser(u), hash: hash, firstTimeLogin: firstTimeLogin}
	a.byEmail[email] = acc
	a.byID[u.ID] = acc
	return nil
}

// Authenticate checks email and password. Disabled accounts authenticate; callers decide.
func (a *Accounts) Authenticate(email, password string) (User, bool, error) {
	a.mu.RLock()
	acc, ok := a.byEmail[normalizeEmail(email)]
	var hash []byte
	var u User
	var first bool
	if ok {
		hash, u, first = acc.hash, cloneUser(acc.user), acc.firstTimeLogin
	}
	a.mu.RUnlock()

	if !ok {
		_ = bcrypt.CompareHashAndPassword(a.dummy, []byte(password))
		return User{}, false, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return User{}, false, ErrInvalidCredentials
	}
	return u, first, nil
}

func (a *Accounts) ByID(id int64) (User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	acc, ok := a.byID[id]
	if !ok {
		return User{}, ErrAccountNotFound
	}
	return cloneUser(acc.user), nil
}

// ChangePassword replaces the password after checking the current one and lifts the first-login flag.
func (a *Accounts) ChangePassword(id int64, current, next string) error {
	a.mu.RLock()
	acc, ok := a.byID[id]
	var hash []byte
	if ok {
		hash = acc.hash
	}
	a.mu.RUnlock()
	if !ok {
		return ErrAccountNotFound
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(current)) != nil {
		return ErrIncorrectPassword
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(next), a.cost)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	acc.hash = newHash
	acc.firstTimeLogin = false
	return nil
}

// Users returns every profile ordered by id.
func (a *Accounts) Users() []User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]User, 0, len(a.byID))
	for _, acc := range a.byID {
		out = append(out, cloneUser(acc.user))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneUser(u User) User {
	out := u
	out.Roles = slices.Clone(u.Roles)
	out.Permissions = slices.Clone(u.Permissions)
	if u.SchoolID != nil {
		id := *u.SchoolID
		out.SchoolID = &id
	}
	if u.SchoolName != nil {
		name := *u.SchoolName
		out.SchoolName = &name
	}
	return out
}
