package merge

import (
	"testing"

	"github.com/foliotree/foliotree/pkg/ferrors"
)

func TestMergeMaybeTable(t *testing.T) {
	cases := []struct {
		base, local, remote bool
		want                Resolution
	}{
		{true, false, false, ResolvedBase},
		{false, true, false, ResolvedLocal},
		{true, true, false, ResolvedLocal},
		{false, false, true, ResolvedRemote},
		{true, false, true, ResolvedRemote},
		{true, true, true, Conflict},
		{false, true, true, BaselessConflict},
	}

	for _, c := range cases {
		got, err := MergeMaybe(c.base, c.local, c.remote)
		if err != nil {
			t.Errorf("MergeMaybe(%v,%v,%v) returned error: %v", c.base, c.local, c.remote, err)
			continue
		}
		if got != c.want {
			t.Errorf("MergeMaybe(%v,%v,%v) = %v, want %v", c.base, c.local, c.remote, got, c.want)
		}
	}
}

func TestMergeMaybeAllAbsent(t *testing.T) {
	_, err := MergeMaybe(false, false, false)
	if err == nil || !ferrors.IsKind(err, ferrors.KindNothingToMerge) {
		t.Fatal("expected NothingToMerge error, got:", err)
	}
}
