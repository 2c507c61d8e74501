package calculator

import (
	"errors"
	"testing"

	"github.com/ferd/tripsplit/internal/models"
)

func member(id, settledBy string) models.Member {
	return models.Member{ID: id, SettledByID: settledBy}
}

func TestSettledByMap(t *testing.T) {
	tests := []struct {
		name    string
		members []models.Member
		wantErr error
		want    map[string]string
	}{
		{
			name:    "no redirections is identity",
			members: []models.Member{member("a", ""), member("b", "")},
			want:    map[string]string{"a": "a", "b": "b"},
		},
		{
			name:    "single hop",
			members: []models.Member{member("a", ""), member("b", "a")},
			want:    map[string]string{"a": "a", "b": "a"},
		},
		{
			name:    "chain resolves to final target",
			members: []models.Member{member("a", ""), member("b", "a"), member("c", "b")},
			want:    map[string]string{"a": "a", "b": "a", "c": "a"},
		},
		{
			name:    "two-cycle detected",
			members: []models.Member{member("a", "b"), member("b", "a")},
			wantErr: ErrCycleDetected,
		},
		{
			name:    "self-cycle detected",
			members: []models.Member{member("a", "a")},
			wantErr: ErrCycleDetected,
		},
		{
			name:    "longer cycle behind a chain detected",
			members: []models.Member{member("a", "b"), member("b", "c"), member("c", "a"), member("d", "a")},
			wantErr: ErrCycleDetected,
		},
		{
			name:    "dangling reference stops at the dangling id",
			members: []models.Member{member("a", "gone"), member("b", "")},
			want:    map[string]string{"a": "gone", "b": "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SettledByMap(tt.members)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SettledByMap() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SettledByMap() error = %v", err)
			}
			for id, want := range tt.want {
				if got[id] != want {
					t.Errorf("resolved[%s] = %s, want %s", id, got[id], want)
				}
			}
		})
	}
}

func TestSettledByMapIdempotent(t *testing.T) {
	members := []models.Member{member("a", ""), member("b", "a"), member("c", "b")}
	first, err := SettledByMap(members)
	if err != nil {
		t.Fatal(err)
	}
	second, err := SettledByMap(members)
	if err != nil {
		t.Fatal(err)
	}
	for id := range first {
		if first[id] != second[id] {
			t.Errorf("resolution for %s changed between runs: %s vs %s", id, first[id], second[id])
		}
	}
}
