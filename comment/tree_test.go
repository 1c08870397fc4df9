package comment

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return t0.Add(time.Duration(minutes) * time.Minute)
}

// shape renders a forest as nested ids, e.g. "a(b c(d))".
func shape(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
		if len(n.Children) > 0 {
			out[i] += fmt.Sprint(shape(n.Children))
		}
	}
	return out
}

func TestBuildTree(t *testing.T) {
	tests := []struct {
		name     string
		comments []Comment
		want     []string
	}{
		{
			name: "Empty",
			want: []string{},
		},
		{
			name: "Nested",
			comments: []Comment{
				{ID: "c", ParentID: "a", CreatedAt: at(3)},
				{ID: "a", CreatedAt: at(1)},
				{ID: "b", ParentID: "a", CreatedAt: at(2)},
				{ID: "d", ParentID: "c", CreatedAt: at(4)},
				{ID: "e", CreatedAt: at(0)},
			},
			want: []string{"e", "a[b c[d]]"},
		},
		{
			name: "DanglingParent",
			comments: []Comment{
				{ID: "a", CreatedAt: at(1)},
				{ID: "b", ParentID: "gone", CreatedAt: at(0)},
			},
			want: []string{"b", "a"},
		},
		{
			name: "SelfParent",
			comments: []Comment{
				{ID: "a", ParentID: "a", CreatedAt: at(0)},
			},
			want: []string{"a"},
		},
		{
			name: "TiesKeepInputOrder",
			comments: []Comment{
				{ID: "r", CreatedAt: at(0)},
				{ID: "y", ParentID: "r", CreatedAt: at(1)},
				{ID: "x", ParentID: "r", CreatedAt: at(1)},
				{ID: "z", ParentID: "r", CreatedAt: at(1)},
			},
			want: []string{"r[y x z]"},
		},
		{
			name: "DuplicateLastWins",
			comments: []Comment{
				{ID: "a", CreatedAt: at(0)},
				{ID: "b", ParentID: "a", CreatedAt: at(1)},
				{ID: "b", CreatedAt: at(2)},
			},
			want: []string{"a", "b"},
		},
		{
			name: "Cycle",
			comments: []Comment{
				{ID: "x", CreatedAt: at(0)},
				{ID: "a", ParentID: "b", CreatedAt: at(1)},
				{ID: "b", ParentID: "a", CreatedAt: at(2)},
				{ID: "c", ParentID: "b", CreatedAt: at(3)},
			},
			want: []string{"x", "a[b[c]]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shape(BuildTree(tt.comments))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildTree_KeepsEveryComment(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for round := 0; round < 50; round++ {
		n := rnd.Intn(40)
		comments := make([]Comment, n)
		for i := range comments {
			comments[i] = Comment{
				ID:        fmt.Sprintf("c%d", i),
				CreatedAt: at(rnd.Intn(10)),
			}
			switch p := rnd.Intn(n + 3); {
			case p < n:
				comments[i].ParentID = fmt.Sprintf("c%d", p)
			case p == n:
				comments[i].ParentID = "missing"
			}
		}

		forest := BuildTree(comments)
		if got := Count(forest); got != n {
			t.Fatalf("Round %d: got %d nodes, want %d", round, got, n)
		}

		seen := map[string]bool{}
		Walk(forest, func(node *Node, _ int) {
			if seen[node.ID] {
				t.Errorf("Round %d: comment %s appears twice", round, node.ID)
			}
			seen[node.ID] = true
			for i := 1; i < len(node.Children); i++ {
				if node.Children[i].CreatedAt.Before(node.Children[i-1].CreatedAt) {
					t.Errorf("Round %d: replies of %s are not ordered", round, node.ID)
				}
			}
		})
		for i := 1; i < len(forest); i++ {
			if forest[i].CreatedAt.Before(forest[i-1].CreatedAt) {
				t.Errorf("Round %d: roots are not ordered", round)
			}
		}
	}
}

func TestWalk(t *testing.T) {
	forest := BuildTree([]Comment{
		{ID: "a", CreatedAt: at(0)},
		{ID: "b", ParentID: "a", CreatedAt: at(1)},
		{ID: "c", CreatedAt: at(2)},
	})

	var got []string
	Walk(forest, func(n *Node, depth int) {
		got = append(got, fmt.Sprintf("%s@%d", n.ID, depth))
	})
	want := []string{"a@0", "b@1", "c@0"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Walk order mismatch (-want +got):\n%s", diff)
	}
}
