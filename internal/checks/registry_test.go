package checks

import (
	"context"
	"testing"
)

type dummyCheck struct {
	id string
}

func (c *dummyCheck) ID() string            { return c.id }
func (c *dummyCheck) Title() string         { return "Dummy Check" }
func (c *dummyCheck) Description() string   { return "Does nothing" }
func (c *dummyCheck) Kind() Kind            { return KindBasic }
func (c *dummyCheck) Applies(p string) bool { return true }
func (c *dummyCheck) Run(ctx context.Context, f File) (Result, error) {
	return PassResult(f, c.id), nil
}

func resetRegistry(t *testing.T) {
	t.Helper()
	mu.Lock()
	saved := registry
	registry = make(map[string]Check)
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		registry = saved
		mu.Unlock()
	})
}

func TestRegistry(t *testing.T) {
	resetRegistry(t)

	Register(&dummyCheck{id: "check2"})
	Register(&dummyCheck{id: "check1"})

	all := List()
	if len(all) != 2 || all[0].ID() != "check1" || all[1].ID() != "check2" {
		t.Fatalf("expected sorted [check1 check2], got %v", all)
	}
	if _, ok := all[0].(*IgnoreWrapper); !ok {
		t.Fatalf("expected registered checks to be wrapped, got %T", all[0])
	}

	selected, err := Resolve("check2, check2")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(selected) != 1 || selected[0].ID() != "check2" {
		t.Fatalf("expected [check2], got %v", selected)
	}

	selected, err = Resolve("")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(selected) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(selected))
	}

	if _, err := Resolve("unknown"); err == nil {
		t.Fatal("expected error for unknown check")
	}
	if _, ok := Lookup("check1"); !ok {
		t.Fatal("expected Lookup to find check1")
	}
}

func TestRegister_PanicsOnDuplicate(t *testing.T) {
	resetRegistry(t)
	Register(&dummyCheck{id: "dup"})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	Register(&dummyCheck{id: "dup"})
}

func TestConfigure(t *testing.T) {
	resetRegistry(t)
	Register(&dummyCheck{id: "a"})
	Register(&dummyCheck{id: "b"})
	selected, err := Resolve("a")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if err := Configure(selected, map[string]map[string]string{"a": {"ignore.paths": "vendor/"}}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	res, err := selected[0].Run(context.Background(), File{Path: "vendor/x.go"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != StatusSkipped {
		t.Fatalf("expected SKIPPED for ignored path, got %s", res.Status)
	}

	if err := Configure(selected, map[string]map[string]string{"b": {"ignore.paths": "x"}}); err == nil {
		t.Fatal("expected error for unselected check")
	}
	if err := Configure(selected, map[string]map[string]string{"a": {"nope": "x"}}); err == nil {
		t.Fatal("expected error for unknown option")
	}
}
