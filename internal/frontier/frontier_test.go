package frontier

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/Ferruolo/menuscan/internal/membership"
)

func TestFrontier_BreadthFirstIsFIFO(t *testing.T) {
	t.Parallel()

	f := New(BreadthFirst)
	for _, k := range []string{"a", "b", "c"} {
		f.Push(k)
	}

	for _, want := range []string{"a", "b", "c"} {
		got, err := f.Pop()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
	if !f.IsEmpty() {
		t.Error("expected frontier to be empty")
	}
}

func TestFrontier_DepthFirstIsLIFO(t *testing.T) {
	t.Parallel()

	f := New(DepthFirst)
	for _, k := range []string{"a", "b", "c"} {
		f.Push(k)
	}

	for _, want := range []string{"c", "b", "a"} {
		got, err := f.Pop()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}

func TestFrontier_PopEmpty(t *testing.T) {
	t.Parallel()

	for _, order := range []Order{BreadthFirst, DepthFirst} {
		t.Run(order.String(), func(t *testing.T) {
			t.Parallel()

			f := New(order)
			if _, err := f.Pop(); !errors.Is(err, ErrEmptyFrontier) {
				t.Fatalf("expected ErrEmptyFrontier, got %v", err)
			}

			f.Push("x")
			if _, err := f.Pop(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, err := f.Pop(); !errors.Is(err, ErrEmptyFrontier) {
				t.Fatalf("expected ErrEmptyFrontier after draining, got %v", err)
			}
		})
	}
}

// TestFrontier_RandomInterleaving compares the frontier against a slice
// model for arbitrary push/pop sequences.
func TestFrontier_RandomInterleaving(t *testing.T) {
	t.Parallel()

	for _, order := range []Order{BreadthFirst, DepthFirst} {
		t.Run(order.String(), func(t *testing.T) {
			t.Parallel()

			rng := rand.New(rand.NewPCG(3, uint64(order)+1))
			f := New(order)
			var model []string

			for i := range 5000 {
				if rng.IntN(3) > 0 || len(model) == 0 {
					k := fmt.Sprintf("k%d", i)
					f.Push(k)
					model = append(model, k)
				} else {
					var want string
					if order == DepthFirst {
						want = model[len(model)-1]
						model = model[:len(model)-1]
					} else {
						want = model[0]
						model = model[1:]
					}

					got, err := f.Pop()
					if err != nil {
						t.Fatalf("step %d: unexpected error: %v", i, err)
					}
					if got != want {
						t.Fatalf("step %d: expected %q, got %q", i, want, got)
					}
				}

				if f.Len() != len(model) {
					t.Fatalf("step %d: expected len %d, got %d", i, len(model), f.Len())
				}
			}
		})
	}
}

func TestParseOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Order
		wantErr bool
	}{
		{in: "", want: BreadthFirst},
		{in: "bfs", want: BreadthFirst},
		{in: "Breadth-First", want: BreadthFirst},
		{in: "dfs", want: DepthFirst},
		{in: "depth-first", want: DepthFirst},
		{in: "random", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseOrder(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownOrder) {
					t.Fatalf("expected ErrUnknownOrder, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseOrder(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAdmission(t *testing.T) {
	t.Parallel()

	t.Run("admits each key once", func(t *testing.T) {
		t.Parallel()

		filter, err := membership.New(1024, 16, membership.WithMode(membership.ModeMultiProbe))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		a := NewAdmission(New(BreadthFirst), filter)

		for _, k := range []string{"https://s.com/a", "https://s.com/b", "https://s.com/a"} {
			a.Admit(k)
		}

		if a.Frontier().Len() != 2 {
			t.Errorf("expected 2 pending keys, got %d", a.Frontier().Len())
		}
		if a.Admitted() != 2 || a.Rejected() != 1 {
			t.Errorf("expected 2 admitted / 1 rejected, got %d / %d", a.Admitted(), a.Rejected())
		}
	})

	t.Run("false positives suppress rather than duplicate", func(t *testing.T) {
		t.Parallel()

		filter, err := membership.New(200, 40)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		a := NewAdmission(New(BreadthFirst), filter)

		if !a.Admit("http://a.com/1") {
			t.Fatal("expected first key to be admitted")
		}
		if a.Admit("http://a.com/2") {
			t.Error("expected shared-prefix key to be suppressed in single-bit mode")
		}
		if a.Frontier().Len() != 1 {
			t.Errorf("expected 1 pending key, got %d", a.Frontier().Len())
		}
	})
}
