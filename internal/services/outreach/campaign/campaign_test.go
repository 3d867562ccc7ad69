package campaign

import "testing"

func TestEventFollowsSend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		event Event
		want  bool
	}{
		{EventSent, false},
		{EventFailed, false},
		{EventOpened, true},
		{EventClicked, true},
		{EventBounced, true},
		{EventUnsubscribed, true},
	}
	for _, tc := range tests {
		if got := tc.event.FollowsSend(); got != tc.want {
			t.Fatalf("%s.FollowsSend() = %v, want %v", tc.event, got, tc.want)
		}
	}
}
