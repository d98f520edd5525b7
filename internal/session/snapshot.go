package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"schoolpay/internal/rbac"

	"github.com/go-playground/validator/v10"
)

// SnapshotVersion is bumped whenever the persisted layout changes.
// Snapshots with any other version are discarded rather than migrated.
const SnapshotVersion = 0

// snapshot is the persisted layout: one named entry holding exactly these fields.
type snapshot struct {
	State   snapshotState `json:"state"`
	Version int           `json:"version"`
}

type snapshotState struct {
	User               *User   `json:"user"`
	AccessToken        *string `json:"accessToken"`
	RefreshToken       *string `json:"refreshToken"`
	IsAuthenticated    bool    `json:"isAuthenticated"`
	MustChangePassword bool    `json:"mustChangePassword"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	custom := map[string]validator.Func{
		"permission": func(fl validator.FieldLevel) bool {
			return rbac.Permission(fl.Field().String()).Valid()
		},
		"user_type": func(fl validator.FieldLevel) bool {
			return rbac.UserType(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("session: register %q validation: %v", tag, err))
		}
	}
	return v
}

func encodeSnapshot(s State) ([]byte, error) {
	snap := snapshot{
		State: snapshotState{
			User:               s.User,
			AccessToken:        nonEmpty(s.AccessToken),
			RefreshToken:       nonEmpty(s.RefreshToken),
			IsAuthenticated:    s.IsAuthenticated(),
			MustChangePassword: s.MustChangePassword,
		},
		Version: SnapshotVersion,
	}
	return json.Marshal(snap)
}

// decodeSnapshot treats raw as untrusted input.
func decodeSnapshot(raw []byte) (State, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var snap snapshot
	if err := dec.Decode(&snap); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if dec.More() {
		return State{}, fmt.Errorf("%w: trailing data", ErrInvalidSnapshot)
	}
	if snap.Version != SnapshotVersion {
		return State{}, fmt.Errorf("%w: version %d, want %d", ErrInvalidSnapshot, snap.Version, SnapshotVersion)
	}
	if snap.State.User != nil {
		if err := snap.State.User.validateGrants(); err != nil {
			return State{}, fmt.Errorf("%w: user: %v", ErrInvalidSnapshot, err)
		}
	}

	st := State{
		User:               snap.State.User,
		AccessToken:        deref(snap.State.AccessToken),
		RefreshToken:       deref(snap.State.RefreshToken),
		MustChangePassword: snap.State.MustChangePassword,
	}
	if snap.State.IsAuthenticated != st.IsAuthenticated() {
		return State{}, fmt.Errorf("%w: isAuthenticated=%t disagrees with stored identity and credentials",
			ErrInvalidSnapshot, snap.State.IsAuthenticated)
	}
	return st, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
