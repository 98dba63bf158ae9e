package registry

import (
	"errors"
	"testing"

	"github.com/vovakirdan/tui-pong/internal/session"
)

func TestRegisterAndCreate(t *testing.T) {
	const id session.Mode = "test-registry-mode"
	errBoom := errors.New("boom")
	var gotEnv Env

	Register(ModeInfo{ID: id, Title: "Test"}, func(env Env) (*session.Session, error) {
		gotEnv = env
		return nil, errBoom
	})

	if !Exists(id) {
		t.Fatalf("Exists(%q) = false after Register", id)
	}
	info, ok := Info(id)
	if !ok || info.Title != "Test" {
		t.Errorf("Info() = %+v, %v", info, ok)
	}

	env := Env{}
	env.Runtime.Seed = 99
	if _, err := Create(id, env); !errors.Is(err, errBoom) {
		t.Errorf("Create() err = %v, expected factory error", err)
	}
	if gotEnv.Runtime.Seed != 99 {
		t.Errorf("factory env seed = %d, expected 99", gotEnv.Runtime.Seed)
	}

	found := false
	for _, m := range List() {
		if m.ID == id {
			found = true
		}
	}
	if !found {
		t.Errorf("List() does not include %q", id)
	}
}

func TestCreateUnknown(t *testing.T) {
	if _, err := Create("no-such-mode", Env{}); err == nil {
		t.Error("Create(unknown) expected error")
	}
	if Exists("no-such-mode") {
		t.Error("Exists(unknown) = true")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	const id session.Mode = "test-registry-dup"
	f := func(Env) (*session.Session, error) { return nil, nil }
	Register(ModeInfo{ID: id}, f)

	defer func() {
		if recover() == nil {
			t.Error("second Register did not panic")
		}
	}()
	Register(ModeInfo{ID: id}, f)
}
